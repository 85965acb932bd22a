package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrClosed = errors.New("store closed")
	ErrEmpty  = errors.New("store has no records")
)
