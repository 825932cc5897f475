package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"
)

// InputOption mutates an OCR input generated from a page image.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputFromImage encodes a rendered or scanned page as PNG. The generated ID
// is stable for the page number.
func InputFromImage(page int, img image.Image, opts ...InputOption) (Input, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Input{}, fmt.Errorf("encode page %d: %w", page, err)
	}
	b := img.Bounds()
	in := Input{
		ID:     fmt.Sprintf("page-%d", page),
		Image:  buf.Bytes(),
		Format: ImageFormatPNG,
		Page:   page,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}

func setMetadata(in *Input, key, value string) {
	if in.Metadata == nil {
		in.Metadata = make(map[string]string)
	}
	in.Metadata[key] = value
}

// WithTesseractPSM sets the page segmentation mode (PSM) variable for Tesseract.
// Sparse-text modes (11, 12) suit forms where words are scattered.
func WithTesseractPSM(mode int) InputOption {
	return func(in *Input) { setMetadata(in, "tessedit_pageseg_mode", strconv.Itoa(mode)) }
}

// WithTesseractWhitelist restricts recognition to the provided characters.
func WithTesseractWhitelist(chars string) InputOption {
	return func(in *Input) { setMetadata(in, "tessedit_char_whitelist", chars) }
}
