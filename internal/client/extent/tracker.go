// Package extent records how far back and how recently the feed cache was
// filled, so a sync session can decide whether a full backfill is needed.
package extent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/clock"
	"github.com/iudanet/notifsync/internal/config"
	"github.com/iudanet/notifsync/internal/models"
)

const day = 24 * time.Hour

// Tracker persists and evaluates the single ExtentMetadata record.
type Tracker struct {
	store             storage.MetadataStorage
	clock             clock.Clock
	logger            *zap.Logger
	horizonDays       int
	metadataFreshness time.Duration
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithHorizonDays sets the backfill depth a session must reach.
func WithHorizonDays(days int) Option {
	return func(t *Tracker) {
		if days > 0 {
			t.horizonDays = days
		}
	}
}

// WithMetadataFreshness sets how long a saved extent counts as fresh.
func WithMetadataFreshness(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.metadataFreshness = d
		}
	}
}

// NewTracker creates a tracker on top of store.
func NewTracker(store storage.MetadataStorage, opts ...Option) *Tracker {
	t := &Tracker{
		store:             store,
		horizonDays:       config.DefaultHorizonDays,
		metadataFreshness: config.DefaultMetadataFreshness,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.clock = clock.OrReal(t.clock)
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	return t
}

// HorizonDays returns the configured backfill depth.
func (t *Tracker) HorizonDays() int {
	return t.horizonDays
}

// Save overwrites the extent record. DaysReached is the number of whole days
// between oldest and now.
func (t *Tracker) Save(ctx context.Context, total int, oldest, newest time.Time) (*models.ExtentMetadata, error) {
	now := t.clock.Now()

	extent := &models.ExtentMetadata{
		LastFetchTimestamp:  now,
		OldestItemTimestamp: oldest.UTC(),
		NewestItemTimestamp: newest.UTC(),
		TotalItemsFetched:   total,
		DaysReached:         DaysBetween(oldest, now),
		SchemaVersion:       models.CacheSchemaVersion,
	}

	if err := t.store.SaveExtent(ctx, extent); err != nil {
		return nil, fmt.Errorf("save extent: %w", err)
	}

	t.logger.Debug("Extent saved",
		zap.Int("total_items", total),
		zap.Int("days_reached", extent.DaysReached))

	return extent, nil
}

// Load returns the stored extent regardless of age, or nil if none exists.
func (t *Tracker) Load(ctx context.Context) (*models.ExtentMetadata, error) {
	extent, err := t.store.LoadExtent(ctx)
	if errors.Is(err, storage.ErrExtentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load extent: %w", err)
	}
	return extent, nil
}

// LoadIfFresh returns the extent only if it was written at most maxAge ago
// by the current schema version. Stale or foreign records are treated as absent.
func (t *Tracker) LoadIfFresh(ctx context.Context, maxAge time.Duration) (*models.ExtentMetadata, error) {
	extent, err := t.Load(ctx)
	if err != nil || extent == nil {
		return nil, err
	}

	if extent.SchemaVersion != models.CacheSchemaVersion {
		t.logger.Debug("Ignoring extent of another schema version",
			zap.Int("schema_version", extent.SchemaVersion))
		return nil, nil
	}

	if extent.Age(t.clock.Now()) > maxAge {
		return nil, nil
	}

	return extent, nil
}

// ShouldSkipFullBackfill reports whether a fresh extent already reached the
// horizon, so a backfill may stop once it overlaps the cache.
func (t *Tracker) ShouldSkipFullBackfill(ctx context.Context) (bool, error) {
	extent, err := t.LoadIfFresh(ctx, t.metadataFreshness)
	if err != nil {
		return false, err
	}
	return extent != nil && extent.DaysReached >= t.horizonDays, nil
}

// Reset deletes the extent record.
func (t *Tracker) Reset(ctx context.Context) error {
	if err := t.store.DeleteExtent(ctx); err != nil {
		return fmt.Errorf("reset extent: %w", err)
	}
	return nil
}

// DaysBetween returns the number of whole days from oldest to now, never negative.
func DaysBetween(oldest, now time.Time) int {
	if oldest.IsZero() || !now.After(oldest) {
		return 0
	}
	return int(now.Sub(oldest) / day)
}
