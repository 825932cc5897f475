package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfoverlay/coords"
	"github.com/wudi/pdfoverlay/document"
	"github.com/wudi/pdfoverlay/overlay"
)

type conversion struct {
	Rect      overlay.Rect     `json:"rect"`
	PageBox   overlay.PageBox  `json:"page_box"`
	PixelBox  overlay.PixelBox `json:"pixel_box"`
	Converted *overlay.Rect    `json:"converted,omitempty"`
}

func newConvertCommand(a *app) *cobra.Command {
	var (
		unit     string
		to       string
		width    float64
		height   float64
		rotation int
		scale    float64
		fromPx   bool
	)

	cmd := &cobra.Command{
		Use:   "convert <x> <y> <width> <height>",
		Short: "Show where one rectangle lands in page and pixel space",
		Long: `Show where one rectangle lands in page and pixel space. With --from-pixels
the arguments are a canvas box (left, top, width, height) that is mapped back
into --unit first.`,
		Example: `  pdfoverlay convert --unit inch 1 1 2 1
  pdfoverlay convert --unit ratio --to inch --rotation 90 0.5 0.5 0.25 0.25
  pdfoverlay convert --from-pixels --unit inch 72 72 144 72`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var vals [4]float64
			for i, s := range args {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				vals[i] = v
			}
			u, err := overlay.ParseUnit(unit)
			if err != nil {
				return err
			}
			if scale == 0 {
				scale = a.cfg.Scale
			}
			r := overlay.Rect{Page: 1, X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3], Unit: u}
			size := overlay.PageSize{Width: width, Height: height}
			if fromPx {
				if r, err = fromPixels(vals, size, scale, rotation, u); err != nil {
					return err
				}
			}

			box, err := overlay.ToPageSpace(r, size)
			if err != nil {
				return err
			}
			src, err := document.NewStatic(document.StaticPage{Width: width, Height: height, Rotation: rotation})
			if err != nil {
				return err
			}
			view, err := src.View(1, scale)
			if err != nil {
				return err
			}
			px, err := overlay.ProjectPageBox(box, view.Transformer)
			if err != nil {
				return err
			}
			out := conversion{Rect: r, PageBox: box, PixelBox: px}
			if to != "" {
				target, err := overlay.ParseUnit(to)
				if err != nil {
					return err
				}
				converted, err := overlay.Reunit(r, size, target)
				if err != nil {
					return err
				}
				out.Converted = &converted
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "inch", "Unit of the input rectangle: inch, ratio or pdf")
	cmd.Flags().StringVar(&to, "to", "", "Also express the rectangle in this unit")
	cmd.Flags().Float64Var(&width, "page-width", overlay.Letter.Width, "Page width in points")
	cmd.Flags().Float64Var(&height, "page-height", overlay.Letter.Height, "Page height in points")
	cmd.Flags().IntVar(&rotation, "rotation", 0, "Page rotation in degrees")
	cmd.Flags().Float64Var(&scale, "scale", 0, "Render scale; defaults to the configured scale")
	cmd.Flags().BoolVar(&fromPx, "from-pixels", false, "Read the arguments as a canvas pixel box")
	return cmd
}

// fromPixels maps a canvas box on an unoffset page back into a rectangle.
func fromPixels(vals [4]float64, size overlay.PageSize, scale float64, rotation int, u overlay.Unit) (overlay.Rect, error) {
	vp, err := coords.NewViewport([4]float64{0, 0, size.Width, size.Height}, scale, rotation)
	if err != nil {
		return overlay.Rect{}, err
	}
	inv, err := vp.Inverse()
	if err != nil {
		return overlay.Rect{}, err
	}
	px := overlay.PixelBox{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}
	return overlay.FromViewportBox(overlay.Rect{Page: 1}, px, inv, size, u)
}
