// Package boltdb implements the local feed cache and sync metadata on BoltDB.
package boltdb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/models"
)

var (
	// BoltDB bucket names
	bucketRecords = []byte("records")
	bucketByTime  = []byte("records_by_time")
	bucketMeta    = []byte("meta")
)

// openTimeout bounds the wait for the file lock held by another process
const openTimeout = time.Second

// Storage represents BoltDB storage implementation of the feed cache
type Storage struct {
	db     *bbolt.DB
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

var _ storage.Store = (*Storage)(nil)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file. A cache written by another
// schema version is reset on open.
func New(ctx context.Context, dbPath string, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open boltdb: %w", storage.ErrStoreUnavailable, err)
	}

	s := &Storage{db: db, logger: logger.With(zap.String("store", "boltdb"))}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to initialize buckets: %w", storage.ErrStoreUnavailable, err)
	}

	if err := s.checkSchema(); err != nil {
		if !errors.Is(err, storage.ErrSchemaMismatch) {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
		}
		s.logger.Info("Resetting local cache", zap.Error(err))
		if err := s.reset(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: failed to reset cache: %w", storage.ErrStoreUnavailable, err)
		}
	}

	return s, nil
}

// Ready reports whether the storage is open
func (s *Storage) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.db != nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.db == nil {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// SchemaVersion returns the schema version stamped on the cache
func (s *Storage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.view(func(tx *bbolt.Tx) error {
		version = readVersion(tx.Bucket(bucketMeta))
		return nil
	})
	return version, err
}

// view runs fn in a read-only transaction while the storage is open
func (s *Storage) view(fn func(tx *bbolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return storage.ErrStoreUnavailable
	}
	return s.db.View(fn)
}

// update runs fn in a read-write transaction while the storage is open
func (s *Storage) update(fn func(tx *bbolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return storage.ErrStoreUnavailable
	}
	return s.db.Update(fn)
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketByTime, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// checkSchema stamps a fresh cache with the current version and reports
// ErrSchemaMismatch for a cache written by another version
func (s *Storage) checkSchema() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		version := readVersion(meta)
		if version == models.CacheSchemaVersion {
			return nil
		}

		// Пустой кэш без версии: просто проставляем текущую
		if version == 0 && tx.Bucket(bucketRecords).Stats().KeyN == 0 && meta.Get(keyExtent) == nil {
			return writeVersion(meta)
		}

		return fmt.Errorf("%w: found %d, expected %d", storage.ErrSchemaMismatch, version, models.CacheSchemaVersion)
	})
}

// reset drops every record and the extent, then stamps the current version
func (s *Storage) reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := recreateRecordBuckets(tx); err != nil {
			return err
		}
		meta := tx.Bucket(bucketMeta)
		if err := meta.Delete(keyExtent); err != nil {
			return fmt.Errorf("failed to delete extent: %w", err)
		}
		return writeVersion(meta)
	})
}

func recreateRecordBuckets(tx *bbolt.Tx) error {
	for _, name := range [][]byte{bucketRecords, bucketByTime} {
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to delete %s bucket: %w", name, err)
		}
		if _, err := tx.CreateBucket(name); err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", name, err)
		}
	}
	return nil
}

func readVersion(meta *bbolt.Bucket) int {
	raw := meta.Get(keySchemaVersion)
	if len(raw) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(raw))
}

func writeVersion(meta *bbolt.Bucket) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(models.CacheSchemaVersion))
	if err := meta.Put(keySchemaVersion, buf); err != nil {
		return fmt.Errorf("failed to save schema version: %w", err)
	}
	return nil
}
