package ingest

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/wudi/pdfoverlay/idgen"
	"github.com/wudi/pdfoverlay/observability"
	"github.com/wudi/pdfoverlay/overlay"
)

// Glyph is one positioned text run from a page's content stream, in page
// space with Y on the baseline.
type Glyph struct {
	X, Y, W float64
	Size    float64
	S       string
}

// TextLayerFile opens the PDF at path and returns one PDF-unit rectangle
// per word of its text layer.
func TextLayerFile(path string, ids idgen.Generator, log observability.Logger) ([]overlay.Rect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}
	return TextLayer(f, st.Size(), ids, log)
}

// TextLayer reads the text layer of a PDF. Pages whose content cannot be
// decoded are skipped and logged.
func TextLayer(ra io.ReaderAt, size int64, ids idgen.Generator, log observability.Logger) ([]overlay.Rect, error) {
	log = observability.OrNop(log)
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	var out []overlay.Rect
	for n := 1; n <= r.NumPage(); n++ {
		glyphs, err := pageGlyphs(r, n)
		if err != nil {
			log.Warn("text layer skipped", observability.Int("page", n), observability.Error("error", err))
			continue
		}
		for _, w := range GroupWords(glyphs) {
			w.Page = n
			w.ID = newID(ids, w)
			out = append(out, w)
		}
	}
	return out, nil
}

func pageGlyphs(r *pdf.Reader, n int) (glyphs []Glyph, err error) {
	// The reader panics on malformed content streams.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("page %d: %v", n, p)
		}
	}()
	p := r.Page(n)
	if p.V.IsNull() {
		return nil, nil
	}
	for _, t := range p.Content().Text {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
	}
	return glyphs, nil
}

// GroupWords joins glyphs into words. A word ends at whitespace, at a
// baseline change, or at a horizontal gap wider than a third of the font
// size. Boxes span from slightly below the baseline to one font size above.
func GroupWords(glyphs []Glyph) []overlay.Rect {
	var (
		out  []overlay.Rect
		cur  strings.Builder
		box  overlay.PageBox
		base Glyph
		open bool
	)
	flush := func() {
		if !open {
			return
		}
		out = append(out, overlay.Rect{
			X:      box.Left,
			Y:      box.Bottom,
			Width:  box.Right - box.Left,
			Height: box.Top - box.Bottom,
			Unit:   overlay.PDF,
			Label:  cur.String(),
		})
		cur.Reset()
		open = false
	}
	for _, g := range glyphs {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}
		if open {
			tol := math.Max(base.Size, 1)
			if math.Abs(g.Y-base.Y) > tol*0.5 || g.X < box.Left || g.X-box.Right > tol/3 {
				flush()
			}
		}
		bottom := g.Y - g.Size*0.2
		top := g.Y + g.Size*0.8
		if !open {
			base = g
			box = overlay.PageBox{Left: g.X, Right: g.X + g.W, Bottom: bottom, Top: top}
			open = true
		} else {
			box.Right = math.Max(box.Right, g.X+g.W)
			box.Bottom = math.Min(box.Bottom, bottom)
			box.Top = math.Max(box.Top, top)
		}
		cur.WriteString(g.S)
	}
	flush()
	return out
}
