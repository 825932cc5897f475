package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/wudi/pdfoverlay/idgen"
	"github.com/wudi/pdfoverlay/observability"
	"github.com/wudi/pdfoverlay/overlay"
)

// ErrUnparsable is returned when the input is not valid JSON text.
var ErrUnparsable = errors.New("could not parse document")

// AnalysisDocument is the word-match export of a document-intelligence
// run. Every level is optional; Decode fills only what it recognizes.
type AnalysisDocument struct {
	Results []ResultGroup
}

type ResultGroup struct {
	Matches []Match
}

type Match struct {
	Page  int // 0 when absent
	Words []Word
}

type Word struct {
	Name    string
	Page    int       // 0 when absent
	Polygon []float64 // nil unless at least 8 numbers were present
}

// Decode walks a generic JSON value (as produced by encoding/json into
// interface{}) and keeps whatever matches the expected shape. It never fails:
// a missing or mistyped node contributes nothing.
func Decode(doc interface{}) AnalysisDocument {
	var out AnalysisDocument
	root, _ := doc.(map[string]interface{})
	groups, _ := root["analysisResult"].([]interface{})
	for _, g := range groups {
		gm, _ := g.(map[string]interface{})
		matches, _ := gm["matchingWords"].([]interface{})
		var group ResultGroup
		for _, m := range matches {
			mm, _ := m.(map[string]interface{})
			if mm == nil {
				continue
			}
			match := Match{Page: pageOf(mm["page"])}
			words, _ := mm["words"].([]interface{})
			for _, w := range words {
				wm, _ := w.(map[string]interface{})
				if wm == nil {
					continue
				}
				name, _ := wm["name"].(string)
				match.Words = append(match.Words, Word{
					Name:    name,
					Page:    pageOf(wm["page"]),
					Polygon: polygonOf(wm["polygon"]),
				})
			}
			group.Matches = append(group.Matches, match)
		}
		out.Results = append(out.Results, group)
	}
	return out
}

func pageOf(v interface{}) int {
	f, ok := v.(float64)
	if !ok || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func polygonOf(v interface{}) []float64 {
	arr, ok := v.([]interface{})
	if !ok || len(arr) < 8 {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, e := range arr {
		f, ok := e.(float64)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

// Rects emits one inch-unit rectangle per word with a usable polygon. The
// word's page wins over its match's page; both absent means page 1.
func (d AnalysisDocument) Rects(ids idgen.Generator) []overlay.Rect {
	var out []overlay.Rect
	for _, g := range d.Results {
		for _, m := range g.Matches {
			for _, w := range m.Words {
				r, err := PolygonToRect(w.Polygon, overlay.Inch)
				if err != nil {
					continue
				}
				r.Page = firstPage(w.Page, m.Page)
				r.Label = w.Name
				r.ID = newID(ids, r)
				out = append(out, r)
			}
		}
	}
	return out
}

func firstPage(pages ...int) int {
	for _, p := range pages {
		if p > 0 {
			return p
		}
	}
	return 1
}

func newID(ids idgen.Generator, r overlay.Rect) string {
	if ids == nil {
		return idgen.UUID{}.NewID()
	}
	if c, ok := ids.(idgen.ContentIDer); ok {
		return c.IDFor(r.Page, r.X, r.Y, r.Width, r.Height, r.Label)
	}
	return ids.NewID()
}

// Parse extracts rectangles from an already decoded JSON value.
func Parse(doc interface{}, ids idgen.Generator) []overlay.Rect {
	return Decode(doc).Rects(ids)
}

// ParseJSON decodes data and extracts rectangles. Only text that is not
// JSON at all is an error.
func ParseJSON(data []byte, ids idgen.Generator) ([]overlay.Rect, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return Parse(doc, ids), nil
}

// Decoder accumulates rectangles across several documents. A document that
// fails to parse is reported but does not discard earlier results.
type Decoder struct {
	ids idgen.Generator
	log observability.Logger

	mu    sync.Mutex
	rects []overlay.Rect
}

func NewDecoder(ids idgen.Generator, log observability.Logger) *Decoder {
	if ids == nil {
		ids = idgen.UUID{}
	}
	return &Decoder{ids: ids, log: observability.OrNop(log)}
}

// Feed parses one document and appends its rectangles. It returns the number
// of rectangles added.
func (d *Decoder) Feed(data []byte) (int, error) {
	rects, err := ParseJSON(data, d.ids)
	if err != nil {
		d.log.Warn("analysis document rejected", observability.Error("error", err))
		return 0, err
	}
	d.mu.Lock()
	d.rects = append(d.rects, rects...)
	total := len(d.rects)
	d.mu.Unlock()
	d.log.Debug("analysis document ingested", observability.Int("added", len(rects)), observability.Int("total", total))
	return len(rects), nil
}

// Rects returns a copy of everything accumulated so far.
func (d *Decoder) Rects() []overlay.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]overlay.Rect(nil), d.rects...)
}
