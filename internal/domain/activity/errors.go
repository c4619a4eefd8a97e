package activity

import "errors"

var (
	// ErrInvalidInput indicates the event to publish is malformed.
	ErrInvalidInput = errors.New("invalid activity input")
)
