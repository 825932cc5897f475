package document

import (
	"fmt"

	"github.com/wudi/pdfoverlay/overlay"
	"github.com/wudi/pdfoverlay/render"
)

// StaticPage describes a page whose geometry is known without a PDF.
type StaticPage struct {
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Rotation int     `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// Static is an in-memory page source.
type Static struct {
	pages []Page
}

var _ render.PageSource = (*Static)(nil)

// NewStatic validates pages and returns a source for them.
func NewStatic(pages ...StaticPage) (*Static, error) {
	s := &Static{pages: make([]Page, 0, len(pages))}
	for i, p := range pages {
		if !(p.Width > 0) || !(p.Height > 0) {
			return nil, fmt.Errorf("page %d: %w: %vx%v", i+1, overlay.ErrInvalidPageGeometry, p.Width, p.Height)
		}
		s.pages = append(s.pages, Page{Box: [4]float64{0, 0, p.Width, p.Height}, Rotation: p.Rotation})
	}
	return s, nil
}

// Uniform returns n pages of the same size.
func Uniform(n int, size overlay.PageSize) *Static {
	s := &Static{pages: make([]Page, n)}
	for i := range s.pages {
		s.pages[i] = Page{Box: [4]float64{0, 0, size.Width, size.Height}}
	}
	return s
}

func (s *Static) NumPages() int { return len(s.pages) }

func (s *Static) page(page int) (Page, error) {
	if page < 1 || page > len(s.pages) {
		return Page{}, fmt.Errorf("%w: %d of %d", ErrPageRange, page, len(s.pages))
	}
	return s.pages[page-1], nil
}

func (s *Static) PageSize(page int) (overlay.PageSize, error) {
	p, err := s.page(page)
	if err != nil {
		return overlay.PageSize{}, err
	}
	return p.Size(), nil
}

func (s *Static) View(page int, scale float64) (render.View, error) {
	p, err := s.page(page)
	if err != nil {
		return render.View{}, err
	}
	return p.Viewport(scale)
}
