package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wudi/pdfoverlay/idgen"
	"github.com/wudi/pdfoverlay/overlay"
)

// AzureOperation is the polling envelope returned by Azure Document
// Intelligence analyze calls.
type AzureOperation struct {
	Status string              `json:"status"`
	Result *AzureAnalyzeResult `json:"analyzeResult"`
}

type AzureAnalyzeResult struct {
	ModelID string      `json:"modelId"`
	Pages   []AzurePage `json:"pages"`
}

type AzurePage struct {
	PageNumber int     `json:"pageNumber"`
	Unit       string  `json:"unit"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`

	Words          []AzureWord          `json:"words"`
	SelectionMarks []AzureSelectionMark `json:"selectionMarks"`
}

type AzureWord struct {
	Content    string    `json:"content"`
	Polygon    []float64 `json:"polygon"`
	Confidence float64   `json:"confidence"`
}

type AzureSelectionMark struct {
	State      string    `json:"state"`
	Polygon    []float64 `json:"polygon"`
	Confidence float64   `json:"confidence"`
}

// ParseAzure reads either an analyze operation or a bare analyzeResult.
// Words on inch pages become Inch rectangles; words on pixel pages (image
// input) become Ratio rectangles relative to the page's pixel size.
// Selection marks are labeled with their state.
func ParseAzure(data []byte, ids idgen.Generator) ([]overlay.Rect, error) {
	var op AzureOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	result := op.Result
	if result == nil {
		result = new(AzureAnalyzeResult)
		if err := json.Unmarshal(data, result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
	}

	var out []overlay.Rect
	for _, page := range result.Pages {
		convert := azureConverter(page)
		if convert == nil {
			continue
		}
		emit := func(polygon []float64, label string) {
			r, ok := convert(polygon)
			if !ok {
				return
			}
			r.Page = firstPage(page.PageNumber)
			r.Label = label
			r.ID = newID(ids, r)
			out = append(out, r)
		}
		for _, w := range page.Words {
			emit(w.Polygon, w.Content)
		}
		for _, m := range page.SelectionMarks {
			emit(m.Polygon, m.State)
		}
	}
	return out, nil
}

func azureConverter(page AzurePage) func([]float64) (overlay.Rect, bool) {
	switch strings.ToLower(page.Unit) {
	case "", "inch":
		return func(polygon []float64) (overlay.Rect, bool) {
			r, err := PolygonToRect(polygon, overlay.Inch)
			return r, err == nil
		}
	case "pixel":
		if page.Width <= 0 || page.Height <= 0 {
			return nil
		}
		return func(polygon []float64) (overlay.Rect, bool) {
			r, err := PolygonToRect(polygon, overlay.Ratio)
			if err != nil {
				return r, false
			}
			r.X /= page.Width
			r.Width /= page.Width
			r.Y /= page.Height
			r.Height /= page.Height
			return r, true
		}
	}
	return nil
}
