package canvas

import "errors"

var (
	// ErrNotInitialized is returned when the surface is used before Initialize.
	ErrNotInitialized = errors.New("canvas: surface not initialized")

	// ErrInvalidSize is returned by Initialize for non-positive dimensions.
	ErrInvalidSize = errors.New("canvas: invalid surface size")

	// ErrBackgroundUnavailable is returned by an export when the background image could not be
	// loaded. The export fails rather than saving a drawing without its line art.
	ErrBackgroundUnavailable = errors.New("canvas: background image unavailable")

	// ErrLoadTimeout is returned (wrapped in ErrBackgroundUnavailable) when the background did not
	// load within the surface's load timeout.
	ErrLoadTimeout = errors.New("canvas: background load timed out")

	// ErrInvalidDataURL is returned for malformed data URLs.
	ErrInvalidDataURL = errors.New("canvas: invalid data URL")
)
