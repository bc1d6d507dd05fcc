// ABOUTME: Conversion error taxonomy
// ABOUTME: Sentinel errors callers match with errors.Is
package convert

import "errors"

var (
	// ErrMissingInput is returned when no input audio is given
	ErrMissingInput = errors.New("no input audio")

	// ErrUnsupportedFormat is returned for output formats other than "it" and "umx"
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrDecode is returned when the input audio cannot be decoded
	ErrDecode = errors.New("failed to decode input audio")

	// ErrInvalidConfig is returned for out-of-range settings
	ErrInvalidConfig = errors.New("invalid conversion config")
)
