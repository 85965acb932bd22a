package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed = errors.New("ingest queue closed")
	ErrFull   = errors.New("ingest queue full")
)
