package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrInvalidRecord = errors.New("invalid season record")
)
