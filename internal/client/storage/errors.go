package storage

import "errors"

// Common client storage errors
var (
	// ErrStoreUnavailable indicates that the store failed to initialize or is closed.
	// Callers should degrade to network-only operation.
	ErrStoreUnavailable = errors.New("cache store unavailable")

	// ErrSchemaMismatch indicates that persisted data was written by another schema version
	ErrSchemaMismatch = errors.New("cache schema version mismatch")

	// ErrRecordNotFound indicates that no record exists for the primary key
	ErrRecordNotFound = errors.New("cache record not found")

	// ErrExtentNotFound indicates that no extent metadata has been saved yet
	ErrExtentNotFound = errors.New("extent metadata not found")
)
