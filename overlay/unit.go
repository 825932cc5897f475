package overlay

import (
	"fmt"
	"strings"
)

// PointsPerInch is the size of one inch in page space.
const PointsPerInch = 72.0

// Unit is the coordinate system a Rect's numbers are expressed in. The set
// of units is closed: Inch, Ratio and PDF are the only implementations.
type Unit interface {
	String() string
	toPageSpace(r Rect, page PageSize) (PageBox, error)
	fromPageSpace(b PageBox, page PageSize) (x, y, w, h float64, err error)
}

var (
	// Inch is fractional inches with a top-left origin, as reported by
	// document-intelligence services.
	Inch Unit = inchUnit{}
	// Ratio is a 0..1 fraction of page width and height, top-left origin.
	Ratio Unit = ratioUnit{}
	// PDF is absolute page-space points with a bottom-left origin.
	PDF Unit = pdfUnit{}
)

// Units lists every supported unit.
func Units() []Unit { return []Unit{Inch, Ratio, PDF} }

// ParseUnit maps the textual unit tag to a Unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inch":
		return Inch, nil
	case "ratio":
		return Ratio, nil
	case "pdf":
		return PDF, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

type inchUnit struct{}

func (inchUnit) String() string { return "inch" }

func (inchUnit) toPageSpace(r Rect, page PageSize) (PageBox, error) {
	if err := page.checkHeight(); err != nil {
		return PageBox{}, err
	}
	return PageBox{
		Left:   r.X * PointsPerInch,
		Right:  (r.X + r.Width) * PointsPerInch,
		Top:    page.Height - r.Y*PointsPerInch,
		Bottom: page.Height - (r.Y+r.Height)*PointsPerInch,
	}, nil
}

func (inchUnit) fromPageSpace(b PageBox, page PageSize) (x, y, w, h float64, err error) {
	if err := page.checkHeight(); err != nil {
		return 0, 0, 0, 0, err
	}
	x = b.Left / PointsPerInch
	y = (page.Height - b.Top) / PointsPerInch
	w = (b.Right - b.Left) / PointsPerInch
	h = (b.Top - b.Bottom) / PointsPerInch
	return x, y, w, h, nil
}

type ratioUnit struct{}

func (ratioUnit) String() string { return "ratio" }

func (ratioUnit) toPageSpace(r Rect, page PageSize) (PageBox, error) {
	if err := page.checkHeight(); err != nil {
		return PageBox{}, err
	}
	return PageBox{
		Left:   r.X * page.Width,
		Right:  (r.X + r.Width) * page.Width,
		Top:    page.Height - r.Y*page.Height,
		Bottom: page.Height - (r.Y+r.Height)*page.Height,
	}, nil
}

func (ratioUnit) fromPageSpace(b PageBox, page PageSize) (x, y, w, h float64, err error) {
	if err := page.checkHeight(); err != nil {
		return 0, 0, 0, 0, err
	}
	if err := page.checkWidth(); err != nil {
		return 0, 0, 0, 0, err
	}
	x = b.Left / page.Width
	y = (page.Height - b.Top) / page.Height
	w = (b.Right - b.Left) / page.Width
	h = (b.Top - b.Bottom) / page.Height
	return x, y, w, h, nil
}

type pdfUnit struct{}

func (pdfUnit) String() string { return "pdf" }

func (pdfUnit) toPageSpace(r Rect, _ PageSize) (PageBox, error) {
	return PageBox{
		Left:   r.X,
		Right:  r.X + r.Width,
		Bottom: r.Y,
		Top:    r.Y + r.Height,
	}, nil
}

func (pdfUnit) fromPageSpace(b PageBox, _ PageSize) (x, y, w, h float64, err error) {
	return b.Left, b.Bottom, b.Right - b.Left, b.Top - b.Bottom, nil
}
