package overlay

import (
	"fmt"
	"math"

	"github.com/wudi/pdfoverlay/coords"
)

// ToViewportBox projects r onto the pixel canvas described by t. Both
// opposite corners are mapped independently and the result is their
// axis-aligned bounding box, so any rotation baked into t is handled without
// special cases.
func ToViewportBox(r Rect, t coords.Transformer, page PageSize) (PixelBox, error) {
	box, err := ToPageSpace(r, page)
	if err != nil {
		return PixelBox{}, err
	}
	return ProjectPageBox(box, t)
}

// ProjectPageBox maps an already converted page-space box through t.
func ProjectPageBox(box PageBox, t coords.Transformer) (PixelBox, error) {
	p1 := t.Transform(coords.Point{X: box.Left, Y: box.Top})
	p2 := t.Transform(coords.Point{X: box.Right, Y: box.Bottom})
	if !p1.IsFinite() || !p2.IsFinite() {
		return PixelBox{}, fmt.Errorf("%w: (%v, %v) (%v, %v)", ErrProjection, p1.X, p1.Y, p2.X, p2.Y)
	}
	return PixelBox{
		Left:   math.Min(p1.X, p2.X),
		Top:    math.Min(p1.Y, p2.Y),
		Width:  math.Abs(p2.X - p1.X),
		Height: math.Abs(p2.Y - p1.Y),
	}, nil
}

// FromViewportBox maps a pixel box drawn or edited on screen back into a
// rectangle in unit. inv must be the inverse of the transform the box was
// projected with. base supplies ID, Page, Label and Color.
func FromViewportBox(base Rect, px PixelBox, inv coords.Transformer, page PageSize, unit Unit) (Rect, error) {
	p1 := inv.Transform(coords.Point{X: px.Left, Y: px.Top})
	p2 := inv.Transform(coords.Point{X: px.Right(), Y: px.Bottom()})
	if !p1.IsFinite() || !p2.IsFinite() {
		return Rect{}, fmt.Errorf("%w: inverse (%v, %v) (%v, %v)", ErrProjection, p1.X, p1.Y, p2.X, p2.Y)
	}
	box := PageBox{
		Left:   math.Min(p1.X, p2.X),
		Right:  math.Max(p1.X, p2.X),
		Bottom: math.Min(p1.Y, p2.Y),
		Top:    math.Max(p1.Y, p2.Y),
	}
	return FromPageSpace(base, box, page, unit)
}
