package overlay

import "errors"

var (
	// ErrStore indicates the store could not be opened or used.
	ErrStore = errors.New("overlay store error")
)
