package artifact

import "errors"

var (
	// ErrUnknownTemplate is returned when rendering a name that was never registered.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrMissingData is returned when a template needs a context key that is absent.
	ErrMissingData = errors.New("missing template data")
)
