package ingest

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/wudi/pdfoverlay/overlay"
)

// ErrMalformedPolygon is returned by PolygonToRect for polygons with fewer
// than four corner points.
var ErrMalformedPolygon = errors.New("malformed polygon")

// PolygonToRect returns the axis-aligned bounding box of the first four
// (x, y) corners of polygon as a rectangle in unit. The corners need not form
// an axis-aligned or even convex quadrilateral.
func PolygonToRect(polygon []float64, unit overlay.Unit) (overlay.Rect, error) {
	if len(polygon) < 8 {
		return overlay.Rect{}, fmt.Errorf("%w: %d values, need 8", ErrMalformedPolygon, len(polygon))
	}
	xs := []float64{polygon[0], polygon[2], polygon[4], polygon[6]}
	ys := []float64{polygon[1], polygon[3], polygon[5], polygon[7]}
	minX, minY := lo.Min(xs), lo.Min(ys)
	return overlay.Rect{
		X:      minX,
		Y:      minY,
		Width:  lo.Max(xs) - minX,
		Height: lo.Max(ys) - minY,
		Unit:   unit,
	}, nil
}
