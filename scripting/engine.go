// Package scripting runs user JavaScript that restyles overlay rectangles.
//
// A script defines a global function
//
//	function style(rect) { return {label: "...", color: "#f00", hidden: false} }
//
// which is called once per rectangle. rect carries id, page, x, y, width,
// height, unit, label and color. Returning null or undefined leaves the
// rectangle unchanged; omitted fields are not overridden.
package scripting

import (
	"context"
	"errors"

	"github.com/wudi/pdfoverlay/overlay"
	"github.com/wudi/pdfoverlay/render"
)

var (
	ErrNoStyleFunc = errors.New("script does not define a style function")
	ErrBadResult   = errors.New("style must return an object, null or undefined")
)

// Engine evaluates arbitrary script snippets and styles rectangles.
type Engine interface {
	render.Styler
	// Execute runs script in a fresh runtime that already has the style
	// program loaded, and returns its exported value. Nothing it defines
	// outlives the call.
	Execute(ctx context.Context, script string) (interface{}, error)
}

// rectView is the script-side shape of a rectangle.
type rectView struct {
	ID     string  `json:"id"`
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
}

func viewOf(r overlay.Rect) rectView {
	v := rectView{
		ID:     r.ID,
		Page:   r.Page,
		X:      r.X,
		Y:      r.Y,
		Width:  r.Width,
		Height: r.Height,
		Label:  r.Label,
		Color:  r.Color,
	}
	if r.Unit != nil {
		v.Unit = r.Unit.String()
	}
	return v
}
