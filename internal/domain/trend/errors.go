package trend

import "errors"

// Sentinel kinds for trend errors.
var (
	ErrEmptyHistory     = errors.New("empty season history")
	ErrUnorderedHistory = errors.New("season history is not strictly ascending")
)
