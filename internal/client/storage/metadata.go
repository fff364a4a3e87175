package storage

import (
	"context"

	"github.com/iudanet/notifsync/internal/models"
)

//go:generate moq -out metadatastorage_mock.go . MetadataStorage

// MetadataStorage defines interface for storing sync metadata next to the cache
type MetadataStorage interface {
	// SaveExtent overwrites the single extent metadata record
	SaveExtent(ctx context.Context, extent *models.ExtentMetadata) error

	// LoadExtent retrieves the extent metadata record
	// Returns ErrExtentNotFound if none has been saved yet
	LoadExtent(ctx context.Context) (*models.ExtentMetadata, error)

	// DeleteExtent removes the extent metadata record. Deleting a missing record is not an error.
	DeleteExtent(ctx context.Context) error

	// GetMarker reports whether a one-shot marker has been set
	GetMarker(ctx context.Context, name string) (bool, error)

	// SetMarker records a one-shot marker
	SetMarker(ctx context.Context, name string) error
}

// Store is a full cache backend: records plus metadata.
type Store interface {
	CacheStorage
	MetadataStorage

	// Close releases the backend. The store is not ready afterwards.
	Close() error
}
