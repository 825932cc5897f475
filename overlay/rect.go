package overlay

import (
	"encoding/json"
	"fmt"
	"math"
)

// Rect is one overlay rectangle. X, Y, Width and Height are always read
// according to Unit; changing Unit without recomputing them changes where
// the rectangle lands on the page.
type Rect struct {
	ID     string
	Page   int // 1-based
	X      float64
	Y      float64
	Width  float64
	Height float64
	Unit   Unit
	Label  string
	Color  string
}

type rectJSON struct {
	ID     string  `json:"id"`
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
	Label  string  `json:"label,omitempty"`
	Color  string  `json:"color,omitempty"`
}

func (r Rect) MarshalJSON() ([]byte, error) {
	if r.Unit == nil {
		return nil, fmt.Errorf("rect %s: %w", r.ID, ErrUnknownUnit)
	}
	return json.Marshal(rectJSON{
		ID: r.ID, Page: r.Page,
		X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
		Unit: r.Unit.String(), Label: r.Label, Color: r.Color,
	})
}

func (r *Rect) UnmarshalJSON(data []byte) error {
	var raw rectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	unit, err := ParseUnit(raw.Unit)
	if err != nil {
		return err
	}
	*r = Rect{
		ID: raw.ID, Page: raw.Page,
		X: raw.X, Y: raw.Y, Width: raw.Width, Height: raw.Height,
		Unit: unit, Label: raw.Label, Color: raw.Color,
	}
	return nil
}

// PageSize is a page's extent in points at scale 1.
type PageSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Letter is US Letter in points.
var Letter = PageSize{Width: 612, Height: 792}

func (p PageSize) checkHeight() error {
	if !(p.Height > 0) || math.IsInf(p.Height, 0) {
		return fmt.Errorf("%w: height %v", ErrInvalidPageGeometry, p.Height)
	}
	return nil
}

func (p PageSize) checkWidth() error {
	if !(p.Width > 0) || math.IsInf(p.Width, 0) {
		return fmt.Errorf("%w: width %v", ErrInvalidPageGeometry, p.Width)
	}
	return nil
}

// PageBox is a rectangle in page space (points, bottom-left origin).
type PageBox struct {
	Left   float64
	Right  float64
	Bottom float64
	Top    float64
}

// Degenerate reports an inverted box, which callers must not draw.
func (b PageBox) Degenerate() bool { return b.Right < b.Left || b.Top < b.Bottom }

// PixelBox is an axis-aligned box in pixel space (top-left origin).
type PixelBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b PixelBox) Right() float64  { return b.Left + b.Width }
func (b PixelBox) Bottom() float64 { return b.Top + b.Height }

// Validate reports problems a UI may want to flag. It is advisory: nothing
// in the conversion pipeline calls it.
func Validate(r Rect) error {
	switch {
	case r.Unit == nil:
		return ErrUnknownUnit
	case r.Page < 1:
		return fmt.Errorf("page %d: %w", r.Page, ErrInvalidRect)
	case r.Width < 0 || r.Height < 0:
		return fmt.Errorf("negative extent %vx%v: %w", r.Width, r.Height, ErrInvalidRect)
	}
	return nil
}
