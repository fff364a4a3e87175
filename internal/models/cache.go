package models

import "time"

// CacheSchemaVersion is stamped on the local cache and the extent record.
// Bump it whenever the persisted layout changes; stores with a different
// version are reset on open.
const CacheSchemaVersion = 2

// CacheRecord is one cached item keyed by its URI.
type CacheRecord struct {
	TemporalKey time.Time `json:"temporal_key"` // TemporalKey ключ сортировки (IndexedAt элемента)
	CachedAt    time.Time `json:"cached_at"`    // CachedAt локальное время записи
	PrimaryKey  string    `json:"primary_key"`  // PrimaryKey URI элемента
	Payload     Item      `json:"payload"`      // Payload сам элемент
	Seq         uint64    `json:"seq"`          // Seq порядок первой вставки, назначается хранилищем
}

// NewCacheRecord wraps an item for storage.
func NewCacheRecord(item Item, cachedAt time.Time) *CacheRecord {
	return &CacheRecord{
		PrimaryKey:  item.URI,
		Payload:     item,
		TemporalKey: item.IndexedAt.UTC(),
		CachedAt:    cachedAt.UTC(),
	}
}

// ExtentMetadata summarizes how far back and how much a completed sync reached.
// There is a single record per cache.
type ExtentMetadata struct {
	LastFetchTimestamp  time.Time `json:"last_fetch_timestamp"`
	OldestItemTimestamp time.Time `json:"oldest_item_timestamp"`
	NewestItemTimestamp time.Time `json:"newest_item_timestamp"`
	TotalItemsFetched   int       `json:"total_items_fetched"`
	DaysReached         int       `json:"days_reached"`
	SchemaVersion       int       `json:"schema_version"`
}

// Age returns how long ago the record was written relative to now.
func (m *ExtentMetadata) Age(now time.Time) time.Duration {
	return now.Sub(m.LastFetchTimestamp)
}
