package storage

import (
	"context"
	"time"

	"github.com/iudanet/notifsync/internal/models"
)

//go:generate moq -out cachestorage_mock.go . CacheStorage

// Order defines the direction of a Range scan over the temporal index.
type Order int

const (
	// Descending returns the newest records first.
	Descending Order = iota
	// Ascending returns the oldest records first.
	Ascending
)

// String implements fmt.Stringer.
func (o Order) String() string {
	if o == Ascending {
		return "asc"
	}
	return "desc"
}

// CacheStorage defines the durable local cache of feed items.
// Every method returns ErrStoreUnavailable once the store is not ready.
type CacheStorage interface {
	// Ready reports whether the store initialized and has not been closed
	Ready() bool

	// Put upserts records by primary key (last write wins) and returns how many
	// primary keys were not present before. An overwritten record keeps its
	// original insertion order.
	Put(ctx context.Context, records []*models.CacheRecord) (int, error)

	// Get retrieves a record by primary key
	// Returns ErrRecordNotFound if it doesn't exist
	Get(ctx context.Context, primaryKey string) (*models.CacheRecord, error)

	// GetMany retrieves the records that exist among keys, in the order of keys.
	// Missing keys are skipped.
	GetMany(ctx context.Context, keys []string) ([]*models.CacheRecord, error)

	// Range returns records ordered by temporal key. Records with equal temporal
	// keys keep insertion order (earlier first) in both directions. A
	// non-positive limit returns every record after offset.
	Range(ctx context.Context, limit, offset int, order Order) ([]*models.CacheRecord, error)

	// Count returns the number of cached records
	Count(ctx context.Context) (int, error)

	// Oldest returns the record with the smallest temporal key, or nil for an empty cache
	Oldest(ctx context.Context) (*models.CacheRecord, error)

	// Newest returns the record with the largest temporal key, or nil for an empty cache
	Newest(ctx context.Context) (*models.CacheRecord, error)

	// DeleteOlderThan removes records with a temporal key strictly before t
	// and returns how many were removed
	DeleteOlderThan(ctx context.Context, t time.Time) (int, error)

	// Clear removes all records
	Clear(ctx context.Context) error
}
