package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wudi/pdfoverlay/document"
	"github.com/wudi/pdfoverlay/idgen"
	"github.com/wudi/pdfoverlay/observability"
	"github.com/wudi/pdfoverlay/render"
	"github.com/wudi/pdfoverlay/scripting"
)

type Config struct {
	Scale   float64 `yaml:"scale"`
	Workers int     `yaml:"workers"`
	IDs     string  `yaml:"ids"`

	Log   Log   `yaml:"log"`
	Style Style `yaml:"style"`
	OCR   OCR   `yaml:"ocr"`

	// Pages gives page geometry when no PDF is supplied.
	Pages []document.StaticPage `yaml:"pages"`
}

type Log struct {
	Level string `yaml:"level"`
	Color *bool  `yaml:"color"`
}

type Style struct {
	Color      string `yaml:"color"`
	LabelColor string `yaml:"label_color"`
	LineWidth  int    `yaml:"line_width"`
	Labels     *bool  `yaml:"labels"`
	Script     string `yaml:"script"`
}

type OCR struct {
	Languages     []string `yaml:"languages"`
	DPI           int      `yaml:"dpi"`
	MinConfidence float64  `yaml:"min_confidence"`
}

func Default() *Config {
	return &Config{
		Scale:   1,
		Workers: 4,
		IDs:     "uuid",
		Log:     Log{Level: "info"},
		Style: Style{
			Color:      "#ff0000",
			LabelColor: "#ff0000",
			LineWidth:  2,
		},
		OCR: OCR{
			Languages:     []string{"eng"},
			DPI:           300,
			MinConfidence: 0,
		},
	}
}

// Parse reads a YAML file over the defaults. Environment references are
// expanded before decoding and unknown keys are rejected.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	c := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	// An empty document leaves the defaults untouched.
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if !(c.Scale > 0) {
		return fmt.Errorf("scale must be positive, got %v", c.Scale)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := idgen.New(c.IDs); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if _, err := c.RasterStyle(); err != nil {
		return err
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr.min_confidence must be within [0, 1], got %v", c.OCR.MinConfidence)
	}
	return nil
}

func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// LogColor reports whether colored output was requested; unset means the
// caller decides.
func (c *Config) LogColor(fallback bool) bool {
	if c.Log.Color == nil {
		return fallback
	}
	return *c.Log.Color
}

func (c *Config) IDGenerator() idgen.Generator {
	g, err := idgen.New(c.IDs)
	if err != nil {
		return idgen.UUID{}
	}
	return g
}

func (c *Config) RasterStyle() (render.RasterStyle, error) {
	st := render.DefaultRasterStyle()
	if c.Style.Color != "" {
		col, err := render.ParseColor(c.Style.Color)
		if err != nil {
			return st, fmt.Errorf("style.color: %w", err)
		}
		st.Color = col
	}
	if c.Style.LabelColor != "" {
		col, err := render.ParseColor(c.Style.LabelColor)
		if err != nil {
			return st, fmt.Errorf("style.label_color: %w", err)
		}
		st.LabelColor = col
	}
	if c.Style.LineWidth > 0 {
		st.LineWidth = c.Style.LineWidth
	}
	if c.Style.Labels != nil {
		st.Labels = *c.Style.Labels
	}
	return st, nil
}

// Styler loads style.script when one is configured and returns nil
// otherwise.
func (c *Config) Styler(log observability.Logger) (render.Styler, error) {
	if c.Style.Script == "" {
		return nil, nil
	}
	src, err := os.ReadFile(c.Style.Script)
	if err != nil {
		return nil, fmt.Errorf("style.script: %w", err)
	}
	engine, err := scripting.NewEngine(c.Style.Script, string(src), scripting.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// PageSource returns the configured static pages, or nil when none are set.
func (c *Config) PageSource() (*document.Static, error) {
	if len(c.Pages) == 0 {
		return nil, nil
	}
	return document.NewStatic(c.Pages...)
}
