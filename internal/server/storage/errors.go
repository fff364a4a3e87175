package storage

import "errors"

// Common storage errors
var (
	// ErrInvalidCursor indicates that the pagination cursor cannot be decoded
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrInvalidLimit indicates that the requested page size is out of range
	ErrInvalidLimit = errors.New("invalid limit")
)
