package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/models"
)

var (
	keySchemaVersion = []byte("schema_version")
	keyExtent        = []byte("extent")
)

const markerPrefix = "marker:"

// SaveExtent overwrites the extent metadata record
func (s *Storage) SaveExtent(ctx context.Context, extent *models.ExtentMetadata) error {
	if extent == nil {
		return fmt.Errorf("extent is nil")
	}

	data, err := json.Marshal(extent)
	if err != nil {
		return fmt.Errorf("failed to marshal extent: %w", err)
	}

	err = s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyExtent, data)
	})
	if err != nil {
		return fmt.Errorf("failed to save extent: %w", err)
	}
	return nil
}

// LoadExtent retrieves the extent metadata record
func (s *Storage) LoadExtent(ctx context.Context) (*models.ExtentMetadata, error) {
	var extent *models.ExtentMetadata

	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyExtent)
		if data == nil {
			return storage.ErrExtentNotFound
		}

		extent = &models.ExtentMetadata{}
		if err := json.Unmarshal(data, extent); err != nil {
			return fmt.Errorf("failed to unmarshal extent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return extent, nil
}

// DeleteExtent removes the extent metadata record
func (s *Storage) DeleteExtent(ctx context.Context) error {
	err := s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Delete(keyExtent)
	})
	if err != nil {
		return fmt.Errorf("failed to delete extent: %w", err)
	}
	return nil
}

// GetMarker reports whether the named marker has been set
func (s *Storage) GetMarker(ctx context.Context, name string) (bool, error) {
	var found bool
	err := s.view(func(tx *bbolt.Tx) error {
		found = tx.Bucket(bucketMeta).Get([]byte(markerPrefix+name)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to get marker %s: %w", name, err)
	}
	return found, nil
}

// SetMarker records the named marker with the time it was set
func (s *Storage) SetMarker(ctx context.Context, name string) error {
	// Время установки маркера в unix секундах
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(time.Now().Unix()))

	err := s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put([]byte(markerPrefix+name), buf)
	})
	if err != nil {
		return fmt.Errorf("failed to set marker %s: %w", name, err)
	}
	return nil
}
