package ingest

import (
	"github.com/wudi/pdfoverlay/idgen"
	"github.com/wudi/pdfoverlay/ocr"
	"github.com/wudi/pdfoverlay/overlay"
)

// FromOCR turns recognized words into Ratio rectangles relative to the image
// each result came from. Words below minConfidence (0..1) and results with an
// unknown image size are skipped.
func FromOCR(results []ocr.Result, ids idgen.Generator, minConfidence float64) []overlay.Rect {
	var out []overlay.Rect
	for _, res := range results {
		if res.ImageWidth <= 0 || res.ImageHeight <= 0 {
			continue
		}
		w, h := float64(res.ImageWidth), float64(res.ImageHeight)
		for _, word := range res.Words() {
			if word.Confidence < minConfidence {
				continue
			}
			r := overlay.Rect{
				Page:   firstPage(res.Page),
				X:      word.Bounds.X / w,
				Y:      word.Bounds.Y / h,
				Width:  word.Bounds.Width / w,
				Height: word.Bounds.Height / h,
				Unit:   overlay.Ratio,
				Label:  word.Text,
			}
			r.ID = newID(ids, r)
			out = append(out, r)
		}
	}
	return out
}
