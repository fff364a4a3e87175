package boltdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/models"
)

// Put upserts records by primary key in a single transaction
func (s *Storage) Put(ctx context.Context, records []*models.CacheRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0
	err := s.update(func(tx *bbolt.Tx) error {
		inserted = 0
		recs := tx.Bucket(bucketRecords)
		index := tx.Bucket(bucketByTime)

		for _, rec := range records {
			if rec == nil || rec.PrimaryKey == "" {
				return fmt.Errorf("%w: record without primary key", models.ErrInvalidItem)
			}

			stored := *rec
			stored.TemporalKey = rec.TemporalKey.UTC()

			if existing := recs.Get([]byte(rec.PrimaryKey)); existing != nil {
				var prev models.CacheRecord
				if err := json.Unmarshal(existing, &prev); err != nil {
					return fmt.Errorf("failed to unmarshal record %s: %w", rec.PrimaryKey, err)
				}
				// Перезапись сохраняет исходный порядок вставки
				stored.Seq = prev.Seq
				if err := index.Delete(indexKey(prev.TemporalKey, prev.Seq)); err != nil {
					return fmt.Errorf("failed to delete index entry: %w", err)
				}
			} else {
				seq, err := recs.NextSequence()
				if err != nil {
					return fmt.Errorf("failed to allocate sequence: %w", err)
				}
				stored.Seq = seq
				inserted++
			}

			data, err := json.Marshal(&stored)
			if err != nil {
				return fmt.Errorf("failed to marshal record: %w", err)
			}
			if err := recs.Put([]byte(stored.PrimaryKey), data); err != nil {
				return fmt.Errorf("failed to save record: %w", err)
			}
			if err := index.Put(indexKey(stored.TemporalKey, stored.Seq), []byte(stored.PrimaryKey)); err != nil {
				return fmt.Errorf("failed to save index entry: %w", err)
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
	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		rec, err = loadRecord(tx.Bucket(bucketRecords), []byte(primaryKey))
		return err
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, storage.ErrRecordNotFound
	}
	return rec, nil
}

// GetMany retrieves the existing records among keys in the order of keys
func (s *Storage) GetMany(ctx context.Context, keys []string) ([]*models.CacheRecord, error) {
	result := make([]*models.CacheRecord, 0, len(keys))
	err := s.view(func(tx *bbolt.Tx) error {
		recs := tx.Bucket(bucketRecords)
		for _, key := range keys {
			rec, err := loadRecord(recs, []byte(key))
			if err != nil {
				return err
			}
			if rec != nil {
				result = append(result, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Range returns records ordered by temporal key
func (s *Storage) Range(ctx context.Context, limit, offset int, order storage.Order) ([]*models.CacheRecord, error) {
	if offset < 0 {
		offset = 0
	}

	var result []*models.CacheRecord
	err := s.view(func(tx *bbolt.Tx) error {
		recs := tx.Bucket(bucketRecords)
		skipped := 0
		var loadErr error

		scan(tx.Bucket(bucketByTime), order, func(pk []byte) bool {
			if skipped < offset {
				skipped++
				return true
			}
			rec, err := loadRecord(recs, pk)
			if err != nil {
				loadErr = err
				return false
			}
			if rec != nil {
				result = append(result, rec)
			}
			return limit <= 0 || len(result) < limit
		})
		return loadErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to range records: %w", err)
	}
	return result, nil
}

// Count returns the number of cached records
func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	err := s.view(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketRecords).Stats().KeyN
		return nil
	})
	return n, err
}

// Oldest returns the record with the smallest temporal key
func (s *Storage) Oldest(ctx context.Context) (*models.CacheRecord, error) {
	return s.edge(storage.Ascending)
}

// Newest returns the record with the largest temporal key
func (s *Storage) Newest(ctx context.Context) (*models.CacheRecord, error) {
	return s.edge(storage.Descending)
}

func (s *Storage) edge(order storage.Order) (*models.CacheRecord, error) {
	var rec *models.CacheRecord
	err := s.view(func(tx *bbolt.Tx) error {
		var loadErr error
		scan(tx.Bucket(bucketByTime), order, func(pk []byte) bool {
			rec, loadErr = loadRecord(tx.Bucket(bucketRecords), pk)
			return false
		})
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteOlderThan removes records with a temporal key strictly before t
func (s *Storage) DeleteOlderThan(ctx context.Context, t time.Time) (int, error) {
	bound := timePrefix(t.UTC())
	deleted := 0

	err := s.update(func(tx *bbolt.Tx) error {
		deleted = 0
		recs := tx.Bucket(bucketRecords)
		index := tx.Bucket(bucketByTime)

		// Собираем ключи, удаление под курсором пропускает элементы
		var indexKeys, primaryKeys [][]byte
		c := index.Cursor()
		for k, v := c.First(); k != nil && bytes.Compare(k[:8], bound) < 0; k, v = c.Next() {
			indexKeys = append(indexKeys, bytes.Clone(k))
			primaryKeys = append(primaryKeys, bytes.Clone(v))
		}

		for i := range indexKeys {
			if err := index.Delete(indexKeys[i]); err != nil {
				return fmt.Errorf("failed to delete index entry: %w", err)
			}
			if err := recs.Delete(primaryKeys[i]); err != nil {
				return fmt.Errorf("failed to delete record: %w", err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old records: %w", err)
	}
	return deleted, nil
}

// Clear removes all records
func (s *Storage) Clear(ctx context.Context) error {
	err := s.update(recreateRecordBuckets)
	if err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

func loadRecord(recs *bbolt.Bucket, pk []byte) (*models.CacheRecord, error) {
	data := recs.Get(pk)
	if data == nil {
		return nil, nil
	}

	// Десериализуем
	rec := &models.CacheRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", pk, err)
	}
	return rec, nil
}

// scan walks the temporal index in order and calls fn with each primary key
// until fn returns false. Equal temporal keys are visited in insertion order
// in both directions.
func scan(index *bbolt.Bucket, order storage.Order, fn func(pk []byte) bool) {
	c := index.Cursor()

	if order == storage.Ascending {
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if !fn(v) {
				return
			}
		}
		return
	}

	// По убыванию: группа с одинаковым временем разворачивается обратно по seq
	var group [][]byte
	var groupTime []byte
	flush := func() bool {
		for i := len(group) - 1; i >= 0; i-- {
			if !fn(group[i]) {
				return false
			}
		}
		group = group[:0]
		return true
	}

	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		if groupTime != nil && !bytes.Equal(k[:8], groupTime) {
			if !flush() {
				return
			}
		}
		groupTime = k[:8]
		group = append(group, v)
	}
	flush()
}

// indexKey is the 8-byte sortable timestamp followed by the 8-byte sequence
func indexKey(t time.Time, seq uint64) []byte {
	key := make([]byte, 16)
	copy(key, timePrefix(t))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}

// timePrefix encodes t so that byte order matches time order
func timePrefix(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixNano())^(1<<63))
	return buf
}
