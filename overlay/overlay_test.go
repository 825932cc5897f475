package overlay

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wudi/pdfoverlay/coords"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

func TestToPageSpace(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		want PageBox
	}{
		{
			name: "inch",
			rect: Rect{X: 1, Y: 1, Width: 2, Height: 1, Unit: Inch},
			want: PageBox{Left: 72, Right: 216, Bottom: 648, Top: 720},
		},
		{
			name: "ratio",
			rect: Rect{X: 0.5, Y: 0.5, Width: 0.25, Height: 0.25, Unit: Ratio},
			want: PageBox{Left: 306, Right: 459, Bottom: 198, Top: 396},
		},
		{
			name: "pdf passthrough",
			rect: Rect{X: 10, Y: 20, Width: 30, Height: 40, Unit: PDF},
			want: PageBox{Left: 10, Right: 40, Bottom: 20, Top: 60},
		},
		{
			name: "zero area",
			rect: Rect{X: 1, Y: 2, Unit: Inch},
			want: PageBox{Left: 72, Right: 72, Bottom: 648, Top: 648},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPageSpace(tt.rect, Letter)
			if err != nil {
				t.Fatalf("ToPageSpace() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Fatalf("ToPageSpace() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToPageSpacePDFIsIdentity(t *testing.T) {
	for _, r := range []Rect{
		{X: 0, Y: 0, Width: 0, Height: 0},
		{X: -5, Y: 3.25, Width: 100, Height: 0.5},
		{X: 612, Y: 792, Width: 1e-3, Height: 7},
	} {
		r.Unit = PDF
		got, err := ToPageSpace(r, PageSize{})
		if err != nil {
			t.Fatalf("pdf unit must not need page geometry: %v", err)
		}
		want := PageBox{Left: r.X, Bottom: r.Y, Right: r.X + r.Width, Top: r.Y + r.Height}
		if got != want {
			t.Fatalf("ToPageSpace(%+v) = %+v, want %+v", r, got, want)
		}
	}
}

func TestToPageSpaceFlipsOnce(t *testing.T) {
	// top + bottom == 2H - 144*y - 144*height for inch records.
	r := Rect{X: 0.3, Y: 2.5, Width: 1.1, Height: 0.7, Unit: Inch}
	got, err := ToPageSpace(r, Letter)
	if err != nil {
		t.Fatalf("ToPageSpace() error = %v", err)
	}
	want := 2*Letter.Height - 144*r.Y - 144*r.Height
	if math.Abs(got.Top+got.Bottom-want) > 1e-9 {
		t.Fatalf("top+bottom = %v, want %v", got.Top+got.Bottom, want)
	}
}

func TestToPageSpaceInvalidGeometry(t *testing.T) {
	for _, page := range []PageSize{{Width: 612, Height: 0}, {Width: 612, Height: -10}, {Width: 612, Height: math.NaN()}} {
		for _, unit := range []Unit{Inch, Ratio} {
			_, err := ToPageSpace(Rect{X: 1, Y: 1, Width: 1, Height: 1, Unit: unit}, page)
			if !errors.Is(err, ErrInvalidPageGeometry) {
				t.Fatalf("%s with page %+v: expected ErrInvalidPageGeometry, got %v", unit, page, err)
			}
		}
	}
	if _, err := ToPageSpace(Rect{}, Letter); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit for nil unit, got %v", err)
	}
}

func TestToPageSpaceNegativeExtentIsDegenerate(t *testing.T) {
	got, err := ToPageSpace(Rect{X: 1, Y: 1, Width: -1, Height: -1, Unit: Inch}, Letter)
	if err != nil {
		t.Fatalf("ToPageSpace() error = %v", err)
	}
	if !got.Degenerate() {
		t.Fatalf("expected degenerate box, got %+v", got)
	}
	if got.Right >= got.Left {
		t.Fatalf("extent must not be abs()-ed: %+v", got)
	}
}

func TestReunitRoundTrip(t *testing.T) {
	page := PageSize{Width: 595, Height: 842}
	orig := Rect{ID: "a", Page: 2, X: 1.25, Y: 3.5, Width: 2, Height: 0.75, Unit: Inch, Label: "w"}
	for _, unit := range Units() {
		converted, err := Reunit(orig, page, unit)
		if err != nil {
			t.Fatalf("Reunit(%s) error = %v", unit, err)
		}
		back, err := Reunit(converted, page, Inch)
		if err != nil {
			t.Fatalf("Reunit back error = %v", err)
		}
		if diff := cmp.Diff(orig, back, approx, cmp.Comparer(func(a, b Unit) bool { return a == b })); diff != "" {
			t.Fatalf("round trip via %s mismatch (-want +got):\n%s", unit, diff)
		}
	}
}

func letterViewport(t *testing.T, scale float64, rotation int) coords.Viewport {
	t.Helper()
	vp, err := coords.NewViewport([4]float64{0, 0, Letter.Width, Letter.Height}, scale, rotation)
	if err != nil {
		t.Fatalf("NewViewport() error = %v", err)
	}
	return vp
}

func TestToViewportBoxIdentity(t *testing.T) {
	r := Rect{X: 100, Y: 200, Width: 50, Height: 20, Unit: PDF}
	got, err := ToViewportBox(r, letterViewport(t, 1, 0), Letter)
	if err != nil {
		t.Fatalf("ToViewportBox() error = %v", err)
	}
	want := PixelBox{Left: 100, Top: Letter.Height - 220, Width: 50, Height: 20}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Fatalf("ToViewportBox() mismatch (-want +got):\n%s", diff)
	}
}

func TestToViewportBoxRotation(t *testing.T) {
	r := Rect{X: 1, Y: 1, Width: 2, Height: 1, Unit: Inch}
	base, err := ToViewportBox(r, letterViewport(t, 1.5, 0), Letter)
	if err != nil {
		t.Fatalf("ToViewportBox() error = %v", err)
	}
	for _, rot := range []int{90, 180, 270} {
		got, err := ToViewportBox(r, letterViewport(t, 1.5, rot), Letter)
		if err != nil {
			t.Fatalf("rotation %d: error = %v", rot, err)
		}
		if got.Width < 0 || got.Height < 0 {
			t.Fatalf("rotation %d: negative extent %+v", rot, got)
		}
		wantW, wantH := base.Width, base.Height
		if rot%180 != 0 {
			wantW, wantH = base.Height, base.Width
		}
		if math.Abs(got.Width-wantW) > 1e-6 || math.Abs(got.Height-wantH) > 1e-6 {
			t.Fatalf("rotation %d: size %vx%v, want %vx%v", rot, got.Width, got.Height, wantW, wantH)
		}
	}

	// 180 degrees mirrors the box through the canvas centre.
	got, _ := ToViewportBox(r, letterViewport(t, 1, 180), Letter)
	want := PixelBox{Left: 612 - 216, Top: 792 - 144, Width: 144, Height: 72}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Fatalf("180 mismatch (-want +got):\n%s", diff)
	}
}

func TestToViewportBoxNonFinite(t *testing.T) {
	bad := coords.TransformerFunc(func(p coords.Point) coords.Point {
		return coords.Point{X: math.NaN(), Y: p.Y}
	})
	_, err := ToViewportBox(Rect{X: 1, Y: 1, Width: 1, Height: 1, Unit: PDF}, bad, Letter)
	if !errors.Is(err, ErrProjection) {
		t.Fatalf("expected ErrProjection, got %v", err)
	}
}

func TestFromViewportBox(t *testing.T) {
	vp := letterViewport(t, 2, 90)
	inv, err := vp.Inverse()
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}
	orig := Rect{ID: "x", Page: 1, X: 0.1, Y: 0.2, Width: 0.3, Height: 0.05, Unit: Ratio, Color: "red"}
	px, err := ToViewportBox(orig, vp, Letter)
	if err != nil {
		t.Fatalf("ToViewportBox() error = %v", err)
	}
	back, err := FromViewportBox(orig, px, inv, Letter, Ratio)
	if err != nil {
		t.Fatalf("FromViewportBox() error = %v", err)
	}
	if diff := cmp.Diff(orig, back, approx, cmp.Comparer(func(a, b Unit) bool { return a == b })); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRectJSON(t *testing.T) {
	in := Rect{ID: "r1", Page: 3, X: 1, Y: 2, Width: 3, Height: 4, Unit: Ratio, Label: "total"}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out Rect
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Unit != Ratio || out.Page != 3 || out.Label != "total" {
		t.Fatalf("unexpected decode: %+v", out)
	}
	if err := json.Unmarshal([]byte(`{"unit":"furlong"}`), &out); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Rect{Page: 1, Width: 1, Height: 0, Unit: PDF}); err != nil {
		t.Fatalf("zero-area rect must be valid: %v", err)
	}
	if err := Validate(Rect{Page: 1, Width: -1, Unit: PDF}); !errors.Is(err, ErrInvalidRect) {
		t.Fatalf("expected ErrInvalidRect, got %v", err)
	}
	if err := Validate(Rect{Page: 0, Unit: PDF}); !errors.Is(err, ErrInvalidRect) {
		t.Fatalf("expected ErrInvalidRect for page 0, got %v", err)
	}
}
