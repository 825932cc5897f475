// Package overlay converts overlay rectangles between the coordinate systems
// they are recorded in and the pixel canvas a page is rendered to.
//
// A Rect carries its own Unit. ToPageSpace resolves the unit into page space
// (points, origin bottom-left), flipping the vertical axis for the top-left
// units Inch and Ratio. ToViewportBox then maps that box through an opaque
// viewport transform and returns an axis-aligned pixel box. All functions are
// pure and safe for concurrent use.
package overlay
