package tui

import "errors"

// ErrMissingConnectionService is returned when the connection service is not provided.
var ErrMissingConnectionService = errors.New("tui: connection service is required")
