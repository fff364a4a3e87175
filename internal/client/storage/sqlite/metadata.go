package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/models"
)

const (
	keyExtent    = "extent"
	markerPrefix = "marker:"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveExtent overwrites the extent metadata record
func (s *Storage) SaveExtent(ctx context.Context, extent *models.ExtentMetadata) error {
	if extent == nil {
		return fmt.Errorf("extent is nil")
	}

	data, err := json.Marshal(extent)
	if err != nil {
		return fmt.Errorf("failed to marshal extent: %w", err)
	}

	err = s.with(func(db *sql.DB) error {
		return writeMeta(ctx, db, keyExtent, data)
	})
	if err != nil {
		return fmt.Errorf("failed to save extent: %w", err)
	}
	return nil
}

// LoadExtent retrieves the extent metadata record
func (s *Storage) LoadExtent(ctx context.Context) (*models.ExtentMetadata, error) {
	var data []byte
	err := s.with(func(db *sql.DB) error {
		var err error
		data, err = readMeta(ctx, db, keyExtent)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrExtentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load extent: %w", err)
	}

	extent := &models.ExtentMetadata{}
	if err := json.Unmarshal(data, extent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extent: %w", err)
	}
	return extent, nil
}

// DeleteExtent removes the extent metadata record
func (s *Storage) DeleteExtent(ctx context.Context) error {
	err := s.with(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `DELETE FROM meta WHERE key = ?`, keyExtent)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete extent: %w", err)
	}
	return nil
}

// GetMarker reports whether the named marker has been set
func (s *Storage) GetMarker(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.with(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meta WHERE key = ?`, markerPrefix+name).Scan(&n)
	})
	if err != nil {
		return false, fmt.Errorf("failed to get marker %s: %w", name, err)
	}
	return n > 0, nil
}

// SetMarker records the named marker with the time it was set
func (s *Storage) SetMarker(ctx context.Context, name string) error {
	err := s.with(func(db *sql.DB) error {
		return writeMeta(ctx, db, markerPrefix+name, []byte(strconv.FormatInt(time.Now().Unix(), 10)))
	})
	if err != nil {
		return fmt.Errorf("failed to set marker %s: %w", name, err)
	}
	return nil
}

func writeMeta(ctx context.Context, db execer, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write meta %s: %w", key, err)
	}
	return nil
}

func readMeta(ctx context.Context, q queryer, key string) ([]byte, error) {
	var value []byte
	if err := q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value); err != nil {
		return nil, err
	}
	return value, nil
}
