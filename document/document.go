// Package document supplies page geometry to the renderer.
//
// Page space for overlays starts at the lower-left corner of the visible
// page box (CropBox, or MediaBox when no CropBox is set), so a rectangle at
// (0, 0) is always at the visible corner regardless of the box origin.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfoverlay/coords"
	"github.com/wudi/pdfoverlay/overlay"
	"github.com/wudi/pdfoverlay/render"
)

var (
	ErrPageRange = errors.New("page out of range")
	ErrNoPageBox = errors.New("page has no media box")
)

// Page is the resolved geometry of one page.
type Page struct {
	// Box is the visible page box in user space: [llx lly urx ury].
	Box      [4]float64
	Rotation int
}

func (p Page) Size() overlay.PageSize {
	return overlay.PageSize{Width: p.Box[2] - p.Box[0], Height: p.Box[3] - p.Box[1]}
}

// Viewport returns the canvas for the page at scale. Its transform accepts
// overlay page space.
func (p Page) Viewport(scale float64) (render.View, error) {
	vp, err := coords.NewViewport(p.Box, scale, p.Rotation)
	if err != nil {
		return render.View{}, err
	}
	m := coords.Translate(p.Box[0], p.Box[1]).Multiply(vp.Matrix)
	return render.View{Transformer: m, Width: vp.Width, Height: vp.Height}, nil
}

// Document is an opened PDF. Geometry is resolved once on open, so a
// Document is safe for concurrent use.
type Document struct {
	pages []Page
}

var _ render.PageSource = (*Document)(nil)

func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Read parses a PDF and resolves every page's box and rotation.
func Read(rs io.ReadSeeker) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}

	pages := make([]Page, 0, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		_, _, inh, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		p, err := pageFrom(inh)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, p)
	}
	return &Document{pages: pages}, nil
}

func pageFrom(inh *model.InheritedPageAttrs) (Page, error) {
	if inh == nil {
		return Page{}, ErrNoPageBox
	}
	box := inh.CropBox
	if box == nil {
		box = inh.MediaBox
	}
	if box == nil {
		return Page{}, ErrNoPageBox
	}
	rot, err := coords.NormalizeRotation(inh.Rotate)
	if err != nil {
		return Page{}, err
	}
	return Page{Box: rectBox(box), Rotation: rot}, nil
}

// rectBox normalizes a PDF rectangle so that ll is the lower-left corner.
func rectBox(r *types.Rectangle) [4]float64 {
	x0, x1 := r.LL.X, r.UR.X
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	y0, y1 := r.LL.Y, r.UR.Y
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return [4]float64{x0, y0, x1, y1}
}

func (d *Document) NumPages() int { return len(d.pages) }

// Page returns the geometry of a 1-based page.
func (d *Document) Page(page int) (Page, error) {
	if page < 1 || page > len(d.pages) {
		return Page{}, fmt.Errorf("%w: %d of %d", ErrPageRange, page, len(d.pages))
	}
	return d.pages[page-1], nil
}

func (d *Document) PageSize(page int) (overlay.PageSize, error) {
	p, err := d.Page(page)
	if err != nil {
		return overlay.PageSize{}, err
	}
	return p.Size(), nil
}

func (d *Document) Rotation(page int) (int, error) {
	p, err := d.Page(page)
	if err != nil {
		return 0, err
	}
	return p.Rotation, nil
}

func (d *Document) View(page int, scale float64) (render.View, error) {
	p, err := d.Page(page)
	if err != nil {
		return render.View{}, err
	}
	return p.Viewport(scale)
}
