package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/wudi/pdfoverlay/config"
	"github.com/wudi/pdfoverlay/observability"
)

// Build information
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pdfoverlay: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log observability.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "pdfoverlay",
		Short: "Overlay labeled rectangles onto rendered PDF pages",
		Long: `pdfoverlay converts word and phrase boxes from document analysis services,
OCR or a PDF's own text layer into overlay rectangles, and draws them onto
page canvases as PNG images or a single HTML document.`,
		Example: `  pdfoverlay ingest analysis result.json -o rects.json
  pdfoverlay render --pdf invoice.pdf --rects rects.json --format html -o out/
  pdfoverlay convert --unit inch --to ratio 1 1 2 1`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")

	rootCmd.AddCommand(newIngestCommand(a))
	rootCmd.AddCommand(newRenderCommand(a))
	rootCmd.AddCommand(newConvertCommand(a))
	return rootCmd
}

func (a *app) setup() error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Parse(a.configPath); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !cfg.LogColor(os.Getenv("NO_COLOR") == ""),
	})
	a.cfg = cfg
	a.log = observability.NewSlogLogger(slog.New(handler))
	a.log.Debug("configuration loaded",
		observability.String("path", a.configPath),
		observability.Float("scale", cfg.Scale),
		observability.Int("workers", cfg.Workers))
	return nil
}
