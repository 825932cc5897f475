package coords

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidRotation = errors.New("rotation must be a multiple of 90 degrees")
	ErrInvalidScale    = errors.New("scale must be positive and finite")
)

// Viewport maps page space (points, origin bottom-left) onto a pixel canvas
// (origin top-left) for a given scale and clockwise page rotation.
type Viewport struct {
	ViewBox  [4]float64 // [llx lly urx ury]
	Scale    float64
	Rotation int
	// Width and Height are the canvas dimensions in pixels after rotation.
	Width  float64
	Height float64
	Matrix Matrix
}

// NormalizeRotation folds a rotation into 0, 90, 180 or 270.
func NormalizeRotation(rotation int) (int, error) {
	if rotation%90 != 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRotation, rotation)
	}
	rotation %= 360
	if rotation < 0 {
		rotation += 360
	}
	return rotation, nil
}

// NewViewport builds the viewport for viewBox rendered at scale with the
// page's intrinsic rotation.
func NewViewport(viewBox [4]float64, scale float64, rotation int) (Viewport, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return Viewport{}, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	rot, err := NormalizeRotation(rotation)
	if err != nil {
		return Viewport{}, err
	}
	x0, y0, x1, y1 := viewBox[0], viewBox[1], viewBox[2], viewBox[3]
	cx := (x0 + x1) / 2
	cy := (y0 + y1) / 2

	// Unit rotation including the vertical flip.
	var a, b, c, d float64
	switch rot {
	case 0:
		a, b, c, d = 1, 0, 0, -1
	case 90:
		a, b, c, d = 0, 1, 1, 0
	case 180:
		a, b, c, d = -1, 0, 0, 1
	case 270:
		a, b, c, d = 0, -1, -1, 0
	}

	var offX, offY, width, height float64
	if a == 0 {
		offX = math.Abs(cy-y0) * scale
		offY = math.Abs(cx-x0) * scale
		width = math.Abs(y1-y0) * scale
		height = math.Abs(x1-x0) * scale
	} else {
		offX = math.Abs(cx-x0) * scale
		offY = math.Abs(cy-y0) * scale
		width = math.Abs(x1-x0) * scale
		height = math.Abs(y1-y0) * scale
	}

	m := Matrix{
		a * scale,
		b * scale,
		c * scale,
		d * scale,
		offX - a*scale*cx - c*scale*cy,
		offY - b*scale*cx - d*scale*cy,
	}
	return Viewport{
		ViewBox:  viewBox,
		Scale:    scale,
		Rotation: rot,
		Width:    width,
		Height:   height,
		Matrix:   m,
	}, nil
}

func (v Viewport) Transform(p Point) Point { return v.Matrix.Transform(p) }

// Inverse returns the pixel-to-page transform.
func (v Viewport) Inverse() (Matrix, error) { return v.Matrix.Inverse() }
