package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/models"
)

const recordColumns = `seq, primary_key, temporal_key, cached_at, payload`

// Put upserts records by primary key in a single transaction.
// ON CONFLICT keeps the original seq, so overwrites preserve insertion order.
func (s *Storage) Put(ctx context.Context, records []*models.CacheRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		inserted = 0
		for _, rec := range records {
			if rec == nil || rec.PrimaryKey == "" {
				return fmt.Errorf("%w: record without primary key", models.ErrInvalidItem)
			}

			payload, err := json.Marshal(rec.Payload)
			if err != nil {
				return fmt.Errorf("failed to marshal payload: %w", err)
			}

			var exists int
			err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE primary_key = ?`, rec.PrimaryKey).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check record: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO records (primary_key, temporal_key, cached_at, payload)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(primary_key) DO UPDATE SET
					temporal_key = excluded.temporal_key,
					cached_at = excluded.cached_at,
					payload = excluded.payload
			`, rec.PrimaryKey, rec.TemporalKey.UnixNano(), rec.CachedAt.UnixNano(), payload)
			if err != nil {
				return fmt.Errorf("failed to upsert record: %w", err)
			}

			if exists == 0 {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to put records: %w", err)
	}

	return inserted, nil
}

// Get retrieves a record by primary key
func (s *Storage) Get(ctx context.Context, primaryKey string) (*models.CacheRecord, error) {
	var rec *models.CacheRecord
	err := s.with(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE primary_key = ?`, primaryKey)
		var err error
		rec, err = scanRecord(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetMany retrieves the existing records among keys in the order of keys
func (s *Storage) GetMany(ctx context.Context, keys []string) ([]*models.CacheRecord, error) {
	if len(keys) == 0 {
		return []*models.CacheRecord{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	var found []*models.CacheRecord
	err := s.with(func(db *sql.DB) error {
		var err error
		found, err = queryRecords(ctx, db, `SELECT `+recordColumns+` FROM records WHERE primary_key IN (`+placeholders+`)`, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}

	// Порядок результата совпадает с порядком ключей
	byKey := make(map[string]*models.CacheRecord, len(found))
	for _, rec := range found {
		byKey[rec.PrimaryKey] = rec
	}
	result := make([]*models.CacheRecord, 0, len(found))
	for _, k := range keys {
		if rec, ok := byKey[k]; ok {
			result = append(result, rec)
			delete(byKey, k)
		}
	}
	return result, nil
}

// Range returns records ordered by temporal key
func (s *Storage) Range(ctx context.Context, limit, offset int, order storage.Order) ([]*models.CacheRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	direction := "DESC"
	if order == storage.Ascending {
		direction = "ASC"
	}
	query := `SELECT ` + recordColumns + ` FROM records ORDER BY temporal_key ` + direction + `, seq ASC LIMIT ? OFFSET ?`

	var result []*models.CacheRecord
	err := s.with(func(db *sql.DB) error {
		var err error
		result, err = queryRecords(ctx, db, query, limit, offset)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to range records: %w", err)
	}
	return result, nil
}

// Count returns the number of cached records
func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	err := s.with(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Oldest returns the record with the smallest temporal key
func (s *Storage) Oldest(ctx context.Context) (*models.CacheRecord, error) {
	return s.edge(ctx, storage.Ascending)
}

// Newest returns the record with the largest temporal key
func (s *Storage) Newest(ctx context.Context) (*models.CacheRecord, error) {
	return s.edge(ctx, storage.Descending)
}

func (s *Storage) edge(ctx context.Context, order storage.Order) (*models.CacheRecord, error) {
	records, err := s.Range(ctx, 1, 0, order)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// DeleteOlderThan removes records with a temporal key strictly before t
func (s *Storage) DeleteOlderThan(ctx context.Context, t time.Time) (int, error) {
	var deleted int64
	err := s.with(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM records WHERE temporal_key < ?`, t.UnixNano())
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old records: %w", err)
	}
	return int(deleted), nil
}

// Clear removes all records
func (s *Storage) Clear(ctx context.Context) error {
	err := s.with(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `DELETE FROM records`)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.CacheRecord, error) {
	var (
		rec        models.CacheRecord
		seq        int64
		temporal   int64
		cachedAt   int64
		rawPayload []byte
	)
	if err := row.Scan(&seq, &rec.PrimaryKey, &temporal, &cachedAt, &rawPayload); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawPayload, &rec.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload %s: %w", rec.PrimaryKey, err)
	}
	rec.Seq = uint64(seq)
	rec.TemporalKey = time.Unix(0, temporal).UTC()
	rec.CachedAt = time.Unix(0, cachedAt).UTC()
	return &rec, nil
}

func queryRecords(ctx context.Context, db *sql.DB, query string, args ...any) ([]*models.CacheRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*models.CacheRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
