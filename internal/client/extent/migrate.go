package extent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/models"
)

// LegacyMigratedMarker is set once the flat-file extent has been imported.
const LegacyMigratedMarker = "legacy_extent_migrated"

// legacyExtent is the flat JSON blob written by older clients.
// Timestamps are unix milliseconds.
type legacyExtent struct {
	LastFetchTimestamp  int64 `json:"lastFetchTimestamp"`
	TotalItemsFetched   int   `json:"totalItemsFetched"`
	OldestItemTimestamp int64 `json:"oldestItemTimestamp"`
	NewestItemTimestamp int64 `json:"newestItemTimestamp"`
	DaysReached         int   `json:"daysReached"`
}

func (l legacyExtent) toMetadata() *models.ExtentMetadata {
	return &models.ExtentMetadata{
		LastFetchTimestamp:  fromMillis(l.LastFetchTimestamp),
		OldestItemTimestamp: fromMillis(l.OldestItemTimestamp),
		NewestItemTimestamp: fromMillis(l.NewestItemTimestamp),
		TotalItemsFetched:   l.TotalItemsFetched,
		DaysReached:         l.DaysReached,
		SchemaVersion:       models.CacheSchemaVersion,
	}
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// MigrateLegacy imports the legacy extent file at path into store, removes the
// file and sets LegacyMigratedMarker. It runs once: later calls see the marker
// and return immediately. An extent already present in store is kept.
// The returned bool reports whether a legacy record was imported.
func MigrateLegacy(ctx context.Context, store storage.MetadataStorage, path string, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	done, err := store.GetMarker(ctx, LegacyMigratedMarker)
	if err != nil {
		return false, fmt.Errorf("check migration marker: %w", err)
	}
	if done {
		return false, nil
	}

	imported := false
	if path != "" {
		imported, err = importLegacy(ctx, store, path, logger)
		if err != nil {
			return false, err
		}
	}

	if err := store.SetMarker(ctx, LegacyMigratedMarker); err != nil {
		return imported, fmt.Errorf("set migration marker: %w", err)
	}

	return imported, nil
}

func importLegacy(ctx context.Context, store storage.MetadataStorage, path string, logger *zap.Logger) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read legacy extent: %w", err)
	}

	imported := false
	var legacy legacyExtent
	if err := json.Unmarshal(data, &legacy); err != nil {
		// Повреждённый файл считаем отсутствующим
		logger.Warn("Discarding unreadable legacy extent", zap.String("path", path), zap.Error(err))
	} else {
		_, err := store.LoadExtent(ctx)
		switch {
		case errors.Is(err, storage.ErrExtentNotFound):
			if err := store.SaveExtent(ctx, legacy.toMetadata()); err != nil {
				return false, fmt.Errorf("save migrated extent: %w", err)
			}
			imported = true
			logger.Info("Legacy extent migrated",
				zap.String("path", path),
				zap.Int("total_items", legacy.TotalItemsFetched))
		case err != nil:
			return false, fmt.Errorf("load extent: %w", err)
		default:
			logger.Info("Extent already present, skipping legacy import", zap.String("path", path))
		}
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return imported, fmt.Errorf("remove legacy extent: %w", err)
	}

	return imported, nil
}
