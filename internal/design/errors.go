package design

import "errors"

// Caller errors.  Gateway failures are returned as wrapped *upstream.Error
// values and are matched with upstream.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("operation not supported by deployment gateway")
)
