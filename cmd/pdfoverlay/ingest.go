package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfoverlay/ingest"
	"github.com/wudi/pdfoverlay/observability"
	"github.com/wudi/pdfoverlay/ocr"
	_ "github.com/wudi/pdfoverlay/ocr/tesseract"
	"github.com/wudi/pdfoverlay/overlay"
)

func newIngestCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "ingest <analysis|azure|ocr|text> <file>...",
		Short: "Convert word boxes from a source into rectangle JSON",
		Long: `Convert word boxes into overlay rectangles.

  analysis  document analysis JSON (results[].matches[].words[] with polygons)
  azure     Azure Document Intelligence analyzeResult JSON
  ocr       page images recognized with Tesseract, one page per file in order
  text      the text layer of a PDF`,
		Example: `  pdfoverlay ingest analysis part1.json part2.json -o rects.json
  pdfoverlay ingest ocr page1.png page2.png`,
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{"analysis", "azure", "ocr", "text"},
		RunE: func(cmd *cobra.Command, args []string) error {
			// A partial failure still exports what was collected and
			// reports the failure afterwards.
			rects, ingestErr := a.ingest(cmd, args[0], args[1:])
			if ingestErr != nil && rects == nil {
				return ingestErr
			}
			a.log.Info("ingested", observability.String("source", args[0]), observability.Int("rects", len(rects)))

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := ingest.Export(w, rects); err != nil {
				return err
			}
			return ingestErr
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write rectangles to this file instead of stdout")
	return cmd
}

func (a *app) ingest(cmd *cobra.Command, source string, files []string) ([]overlay.Rect, error) {
	ids := a.cfg.IDGenerator()
	log := a.log.With(observability.String("source", source))

	switch source {
	case "analysis":
		dec := ingest.NewDecoder(ids, log)
		var failed []error
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			n, err := dec.Feed(data)
			if err != nil {
				log.Warn("file skipped", observability.String("path", path), observability.Error("error", err))
				failed = append(failed, fmt.Errorf("%s: %w", path, err))
				continue
			}
			log.Debug("file decoded", observability.String("path", path), observability.Int("rects", n))
		}
		return dec.Rects(), errors.Join(failed...)

	case "azure":
		var out []overlay.Rect
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			rects, err := ingest.ParseAzure(data, ids)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			out = append(out, rects...)
		}
		return out, nil

	case "ocr":
		inputs := make([]ocr.Input, 0, len(files))
		for i, path := range files {
			img, err := decodeImage(path)
			if err != nil {
				return nil, err
			}
			in, err := ocr.InputFromImage(i+1, img,
				ocr.WithLanguages(a.cfg.OCR.Languages...),
				ocr.WithDPI(a.cfg.OCR.DPI))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			inputs = append(inputs, in)
		}
		engine := ocr.DefaultEngine()
		log.Debug("recognizing", observability.String("engine", engine.Name()), observability.Int("pages", len(inputs)))
		results, err := ocr.RecognizeImages(cmd.Context(), engine, inputs)
		if err != nil {
			return nil, err
		}
		return ingest.FromOCR(results, ids, a.cfg.OCR.MinConfidence), nil

	case "text":
		var out []overlay.Rect
		for _, path := range files {
			rects, err := ingest.TextLayerFile(path, ids, log)
			if err != nil {
				return nil, err
			}
			out = append(out, rects...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown source %q (want analysis, azure, ocr or text)", source)
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
