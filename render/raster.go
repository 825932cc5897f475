package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RasterStyle controls how annotations are painted.
type RasterStyle struct {
	Color      color.RGBA // used when an annotation has no valid color
	LabelColor color.RGBA
	LineWidth  int
	Labels     bool
}

func DefaultRasterStyle() RasterStyle {
	return RasterStyle{
		Color:      color.RGBA{R: 255, A: 255},
		LabelColor: color.RGBA{R: 255, A: 255},
		LineWidth:  2,
		Labels:     true,
	}
}

// RasterPage returns a canvas of the page's pixel size with the annotations
// painted on it. bg, when not nil, is scaled to fill the canvas; otherwise
// the canvas is white.
func RasterPage(bg image.Image, page PageOverlay, st RasterStyle) *image.RGBA {
	w := int(math.Ceil(page.Width))
	h := int(math.Ceil(page.Height))
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	if bg != nil {
		draw.CatmullRom.Scale(canvas, canvas.Bounds(), bg, bg.Bounds(), draw.Src, nil)
	} else {
		draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	}
	DrawPage(canvas, page, st)
	return canvas
}

// DrawPage paints every annotation of page onto dst as an outline with its
// label above the top-left corner.
func DrawPage(dst draw.Image, page PageOverlay, st RasterStyle) {
	lw := st.LineWidth
	if lw < 1 {
		lw = 1
	}
	for _, a := range page.Annotations {
		c := st.Color
		if a.Color != "" {
			if parsed, err := ParseColor(a.Color); err == nil {
				c = parsed
			}
		}
		r := pixelRect(a)
		strokeRect(dst, r, lw, c)
		if st.Labels && a.Label != "" {
			drawLabel(dst, a.Label, r.Min, st.LabelColor)
		}
	}
}

func pixelRect(a Annotation) image.Rectangle {
	return image.Rect(
		int(math.Floor(a.Box.Left)),
		int(math.Floor(a.Box.Top)),
		int(math.Ceil(a.Box.Right())),
		int(math.Ceil(a.Box.Bottom())),
	)
}

// strokeRect draws the outline of r with the given line width. Zero-size
// boxes still produce a visible mark.
func strokeRect(dst draw.Image, r image.Rectangle, lw int, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X+lw, r.Min.Y+lw), // top
		image.Rect(r.Min.X, r.Max.Y, r.Max.X+lw, r.Max.Y+lw), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+lw, r.Max.Y+lw), // left
		image.Rect(r.Max.X, r.Min.Y, r.Max.X+lw, r.Max.Y+lw), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Over)
	}
}

func drawLabel(dst draw.Image, label string, at image.Point, c color.Color) {
	face := basicfont.Face7x13
	y := at.Y - 2
	if y-face.Ascent < dst.Bounds().Min.Y {
		// No room above the box: write inside it.
		y = at.Y + face.Ascent + 2
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(at.X, y),
	}
	d.DrawString(label)
}
