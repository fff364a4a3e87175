package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/client/api"
	"github.com/iudanet/notifsync/internal/client/auth"
	"github.com/iudanet/notifsync/internal/client/extent"
	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/client/storage/boltdb"
	"github.com/iudanet/notifsync/internal/client/storage/sqlite"
	"github.com/iudanet/notifsync/internal/client/sync"
	"github.com/iudanet/notifsync/internal/config"
	"github.com/iudanet/notifsync/internal/limiter"
)

// App wires the client components for one command run.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      storage.Store // nil, если кэш не открылся
	Registry   *limiter.Registry
	Tracker    *extent.Tracker
	Client     *api.Client
	Controller *sync.Controller
}

// NewApp opens the local cache, runs the legacy extent migration and builds
// the limiter registry, API client and sync controller. A cache that fails to
// open is logged and the app continues in network-only mode.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := &App{Config: cfg, Logger: logger}

	store, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Warn("Local cache unavailable, continuing without it",
			zap.String("driver", cfg.Store.Driver),
			zap.String("path", cfg.Store.Path),
			zap.Error(err))
	} else {
		app.Store = store
		if _, err := extent.MigrateLegacy(ctx, store, cfg.Store.LegacyExtentPath, logger); err != nil {
			logger.Warn("Legacy extent migration failed", zap.Error(err))
		}
		app.Tracker = extent.NewTracker(store,
			extent.WithLogger(logger),
			extent.WithHorizonDays(cfg.Sync.HorizonDays),
			extent.WithMetadataFreshness(cfg.Sync.MetadataFreshness))
	}

	registry, err := limiter.NewRegistry(cfg.LimiterLimits(), limiter.WithLogger(logger))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create rate limiters: %w", err)
	}
	app.Registry = registry

	app.Client = api.NewClient(cfg.API.BaseURL,
		api.WithTokenSource(auth.NewStaticToken(cfg.API.Token, nil)),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger))

	var cache storage.CacheStorage
	if app.Store != nil {
		cache = app.Store
	}

	controller, err := sync.NewController(sync.Deps{
		Feed:    api.NewFeedAdapter(app.Client, cfg.Sync.PageSize),
		Limiter: registry.Get(limiter.ClassFeed),
		Cache:   cache,
		Tracker: app.Tracker,
		Logger:  logger,
	}, sync.Options{
		CacheFreshness: cfg.Sync.CacheFreshness,
		PollInterval:   cfg.Sync.PollInterval,
		SettleDelay:    cfg.Sync.SettleDelay,
		HorizonDays:    cfg.Sync.HorizonDays,
		PageSize:       cfg.Sync.PageSize,
		MaxPages:       cfg.Sync.MaxPages,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create sync controller: %w", err)
	}
	app.Controller = controller

	return app, nil
}

// Close stops the controller and releases the limiters and the cache.
func (a *App) Close() {
	if a.Controller != nil {
		a.Controller.Stop()
	}
	if a.Registry != nil {
		a.Registry.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error("Failed to close local cache", zap.Error(err))
		}
	}
}

// Cache returns the store or an error when the app runs without one.
func (a *App) Cache() (storage.Store, error) {
	if a.Store == nil || !a.Store.Ready() {
		return nil, fmt.Errorf("local cache is not available: %w", storage.ErrStoreUnavailable)
	}
	return a.Store, nil
}

// OpenStore opens the configured cache backend.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverBolt, "":
		store, err := boltdb.New(ctx, cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
