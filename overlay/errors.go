package overlay

import "errors"

var (
	// ErrInvalidPageGeometry is returned when the page size is missing or
	// degenerate for a conversion that needs it.
	ErrInvalidPageGeometry = errors.New("invalid page geometry")

	// ErrProjection is returned when a viewport transform yields a
	// non-finite pixel coordinate.
	ErrProjection = errors.New("projection produced non-finite coordinate")

	ErrUnknownUnit = errors.New("unknown unit")
	ErrInvalidRect = errors.New("invalid rectangle")
)
