package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfoverlay/document"
	"github.com/wudi/pdfoverlay/ingest"
	"github.com/wudi/pdfoverlay/observability"
	"github.com/wudi/pdfoverlay/render"
	"github.com/wudi/pdfoverlay/store"
)

type renderOptions struct {
	pdfPath     string
	rectsPath   string
	format      string
	outDir      string
	backgrounds string
	scale       float64
	title       string
}

func newRenderCommand(a *app) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render --rects <file> [--pdf <file>]",
		Short: "Draw rectangles onto page canvases",
		Long: `Project rectangles onto each page canvas and write one PNG per page or a
single HTML document. Page geometry comes from --pdf, or from the pages list
in the configuration when no PDF is given.`,
		Example: `  pdfoverlay render --pdf invoice.pdf --rects rects.json -o out/
  pdfoverlay render --pdf invoice.pdf --rects rects.json --format html --backgrounds 'scan-%d.png'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.pdfPath, "pdf", "", "PDF providing page geometry")
	cmd.Flags().StringVar(&opts.rectsPath, "rects", "", "Rectangle JSON as written by ingest")
	cmd.Flags().StringVar(&opts.format, "format", "png", "Output format: png or html")
	cmd.Flags().StringVarP(&opts.outDir, "output", "o", "overlay_output", "Output directory")
	cmd.Flags().StringVar(&opts.backgrounds, "backgrounds", "", "Page image pattern with %d for the page number, drawn under the boxes")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "Render scale; defaults to the configured scale")
	cmd.Flags().StringVar(&opts.title, "title", "", "HTML document title")
	_ = cmd.MarkFlagRequired("rects")
	return cmd
}

func (a *app) pageSource(pdfPath string) (render.PageSource, error) {
	if pdfPath != "" {
		doc, err := document.Open(pdfPath)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
	src, err := a.cfg.PageSource()
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("no page geometry: pass --pdf or configure pages")
	}
	return src, nil
}

func (a *app) render(cmd *cobra.Command, opts renderOptions) error {
	if opts.format != "png" && opts.format != "html" {
		return fmt.Errorf("unknown format %q (want png or html)", opts.format)
	}
	scale := opts.scale
	if scale == 0 {
		scale = a.cfg.Scale
	}
	style, err := a.cfg.RasterStyle()
	if err != nil {
		return err
	}
	styler, err := a.cfg.Styler(a.log)
	if err != nil {
		return err
	}

	src, err := a.pageSource(opts.pdfPath)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.rectsPath)
	if err != nil {
		return err
	}
	loaded, err := ingest.Import(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", opts.rectsPath, err)
	}
	rects := store.New(store.WithIDs(a.cfg.IDGenerator()), store.WithLogger(a.log))
	rects.AddAll(loaded)
	snapshot, revision := rects.Snapshot()

	renderer := render.NewRenderer(
		render.WithWorkers(a.cfg.Workers),
		render.WithLogger(a.log),
		render.WithStyler(styler),
	)
	res, err := render.NewSession(renderer).Render(cmd.Context(), src, snapshot, scale)
	if err != nil {
		return err
	}
	a.log.Info("rendered",
		observability.Int("pages", len(res.Pages)),
		observability.Int("annotations", res.Annotations()),
		observability.Int("unplaced", res.Unplaced),
		observability.Int64("revision", int64(revision)))

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return err
	}
	if opts.format == "html" {
		return a.writeHTML(res, opts, style)
	}
	return a.writePNGs(res, opts, style)
}

func backgroundPath(pattern string, page int) string {
	if pattern == "" {
		return ""
	}
	return fmt.Sprintf(pattern, page)
}

func (a *app) writePNGs(res *render.Result, opts renderOptions, style render.RasterStyle) error {
	for _, page := range res.Pages {
		if page.Err != nil {
			a.log.Warn("page not written", observability.Int("page", page.Page), observability.Error("error", page.Err))
			continue
		}
		var bg image.Image
		if path := backgroundPath(opts.backgrounds, page.Page); path != "" {
			img, err := decodeImage(path)
			if err != nil {
				a.log.Warn("background ignored", observability.String("path", path), observability.Error("error", err))
			} else {
				bg = img
			}
		}
		canvas := render.RasterPage(bg, page, style)
		out := filepath.Join(opts.outDir, fmt.Sprintf("page-%d.png", page.Page))
		if err := writePNG(out, canvas); err != nil {
			return err
		}
		a.log.Debug("page written", observability.String("path", out), observability.Int("annotations", len(page.Annotations)))
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func (a *app) writeHTML(res *render.Result, opts renderOptions, style render.RasterStyle) error {
	backgrounds := make(map[int]string)
	if opts.backgrounds != "" {
		for _, page := range res.Pages {
			path := backgroundPath(opts.backgrounds, page.Page)
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			backgrounds[page.Page] = "file://" + filepath.ToSlash(path)
		}
	}
	out := filepath.Join(opts.outDir, "overlay.html")
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	err = render.WriteHTML(f, res, render.HTMLOptions{
		Title:       opts.title,
		Backgrounds: backgrounds,
		Style:       style,
		Summary:     true,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	a.log.Info("html written", observability.String("path", out))
	return nil
}
