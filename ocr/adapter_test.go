package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"reflect"
	"testing"
)

func TestInputFromImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.White)
	region := Region{X: 0, Y: 0, Width: 10, Height: 10}
	meta := map[string]string{"psm": "6"}

	in, err := InputFromImage(
		2,
		img,
		WithLanguages("eng", "spa"),
		WithRegion(region),
		WithDPI(300),
		WithMetadata(meta),
	)
	if err != nil {
		t.Fatalf("InputFromImage() error = %v", err)
	}
	if in.Format != ImageFormatPNG {
		t.Fatalf("unexpected format: %v", in.Format)
	}
	if in.Page != 2 || in.Width != 40 || in.Height != 20 {
		t.Fatalf("unexpected page/size: %d %dx%d", in.Page, in.Width, in.Height)
	}
	if got := in.ID; got != "page-2" {
		t.Fatalf("unexpected id: %s", got)
	}
	if len(in.Image) == 0 {
		t.Fatalf("expected encoded image data")
	}
	if !reflect.DeepEqual(in.Languages, []string{"eng", "spa"}) {
		t.Fatalf("unexpected languages: %+v", in.Languages)
	}
	if in.Region == nil || *in.Region != region {
		t.Fatalf("unexpected region: %#v", in.Region)
	}
	if in.DPI != 300 {
		t.Fatalf("unexpected dpi: %d", in.DPI)
	}
	meta["psm"] = "7"
	if in.Metadata["psm"] != "6" {
		t.Fatalf("metadata was not copied: %+v", in.Metadata)
	}
}

func TestWithRegionClearsEmpty(t *testing.T) {
	in := Input{Region: &Region{X: 1, Y: 1, Width: 2, Height: 2}}
	WithRegion(Region{})(&in)
	if in.Region != nil {
		t.Fatalf("expected nil region for empty input, got %#v", in.Region)
	}
}

func TestTesseractOptions(t *testing.T) {
	in := Input{}
	WithTesseractPSM(11)(&in)
	if got := in.Metadata["tessedit_pageseg_mode"]; got != "11" {
		t.Fatalf("expected PSM to be set, got %q", got)
	}
	WithTesseractWhitelist("ABC")(&in)
	if got := in.Metadata["tessedit_char_whitelist"]; got != "ABC" {
		t.Fatalf("expected whitelist to be set, got %q", got)
	}
}

type countingEngine struct{ calls int }

func (c *countingEngine) Name() string { return "counting" }

func (c *countingEngine) Recognize(_ context.Context, in Input) (Result, error) {
	c.calls++
	return Result{InputID: in.ID, Page: in.Page}, nil
}

func TestRecognizeImages(t *testing.T) {
	eng := &countingEngine{}
	inputs := []Input{{ID: "a", Page: 1}, {ID: "b", Page: 2}}
	res, err := RecognizeImages(context.Background(), eng, inputs)
	if err != nil {
		t.Fatalf("RecognizeImages() error = %v", err)
	}
	if eng.calls != 2 || len(res) != 2 || res[1].Page != 2 {
		t.Fatalf("unexpected results: calls=%d %+v", eng.calls, res)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RecognizeImages(ctx, eng, inputs); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResultWords(t *testing.T) {
	r := Result{Blocks: []TextBlock{
		{Lines: []TextLine{{Words: []TextWord{{Text: "a"}, {Text: "b"}}}}},
		{Lines: []TextLine{{Words: []TextWord{{Text: "c"}}}}},
	}}
	if got := len(r.Words()); got != 3 {
		t.Fatalf("Words() returned %d words", got)
	}
}
