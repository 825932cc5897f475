package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wudi/pdfoverlay/overlay"
)

// Export writes rects as an indented JSON array.
func Export(w io.Writer, rects []overlay.Rect) error {
	if rects == nil {
		rects = []overlay.Rect{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rects)
}

// Import reads a JSON array written by Export. Unlike the analysis parsers
// this input is our own format, so any malformed record fails the call.
func Import(r io.Reader) ([]overlay.Rect, error) {
	var rects []overlay.Rect
	if err := json.NewDecoder(r).Decode(&rects); err != nil {
		return nil, fmt.Errorf("import rectangles: %w", err)
	}
	return rects, nil
}
