// Package config holds the fixed defaults of notifsync and loads runtime
// overrides from a config file, the environment and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/notifsync/internal/limiter"
)

// Sync defaults.
const (
	DefaultCacheFreshness    = 5 * time.Minute
	DefaultMetadataFreshness = 4 * time.Hour
	DefaultHorizonDays       = 28
	DefaultPageSize          = 100
	DefaultMaxPages          = 100
	DefaultPollInterval      = 60 * time.Second
	DefaultSettleDelay       = time.Second
)

// Client defaults.
const (
	DefaultBaseURL          = "http://localhost:8080"
	DefaultAPITimeout       = 30 * time.Second
	DefaultStoreDriver      = DriverBolt
	DefaultStorePath        = "notifsync.db"
	DefaultLegacyExtentPath = "notifsync-extent.json"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "auto"
)

// MaxPageSize is the largest page the remote listing accepts.
const MaxPageSize = 100

// Store drivers.
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Config is the client configuration.
type Config struct {
	Limits map[string]limiter.Config `mapstructure:"limits"`
	API    APIConfig                 `mapstructure:"api"`
	Store  StoreConfig               `mapstructure:"store"`
	Log    LogConfig                 `mapstructure:"log"`
	Sync   SyncConfig                `mapstructure:"sync"`
}

// APIConfig describes the remote feed endpoint.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects the local cache backend.
type StoreConfig struct {
	Driver           string `mapstructure:"driver"`
	Path             string `mapstructure:"path"`
	LegacyExtentPath string `mapstructure:"legacy_extent_path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SyncConfig carries the sync thresholds.
type SyncConfig struct {
	CacheFreshness    time.Duration `mapstructure:"cache_freshness"`
	MetadataFreshness time.Duration `mapstructure:"metadata_freshness"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	HorizonDays       int           `mapstructure:"horizon_days"`
	PageSize          int           `mapstructure:"page_size"`
	MaxPages          int           `mapstructure:"max_pages"`
}

// Default returns the configuration with every default applied.
func Default() *Config {
	limits := make(map[string]limiter.Config, len(limiter.DefaultLimits))
	for class, cfg := range limiter.DefaultLimits {
		limits[string(class)] = cfg
	}

	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultAPITimeout,
		},
		Store: StoreConfig{
			Driver:           DefaultStoreDriver,
			Path:             DefaultStorePath,
			LegacyExtentPath: DefaultLegacyExtentPath,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Sync: SyncConfig{
			CacheFreshness:    DefaultCacheFreshness,
			MetadataFreshness: DefaultMetadataFreshness,
			PollInterval:      DefaultPollInterval,
			SettleDelay:       DefaultSettleDelay,
			HorizonDays:       DefaultHorizonDays,
			PageSize:          DefaultPageSize,
			MaxPages:          DefaultMaxPages,
		},
		Limits: limits,
	}
}

// LimiterLimits converts the configured limits to registry input.
func (c *Config) LimiterLimits() map[limiter.Class]limiter.Config {
	out := make(map[limiter.Class]limiter.Config, len(c.Limits))
	for name, cfg := range c.Limits {
		out[limiter.Class(strings.ToLower(name))] = cfg
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	switch c.Store.Driver {
	case DriverBolt, DriverSQLite:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverBolt, DriverSQLite, c.Store.Driver)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path is required")
	}

	switch c.Log.Format {
	case "auto", "json", "console":
	default:
		return fmt.Errorf("log.format must be auto, json or console, got %q", c.Log.Format)
	}

	s := c.Sync
	if s.PageSize <= 0 || s.PageSize > MaxPageSize {
		return fmt.Errorf("sync.page_size must be within 1..%d, got %d", MaxPageSize, s.PageSize)
	}
	if s.MaxPages <= 0 {
		return fmt.Errorf("sync.max_pages must be positive, got %d", s.MaxPages)
	}
	if s.HorizonDays <= 0 {
		return fmt.Errorf("sync.horizon_days must be positive, got %d", s.HorizonDays)
	}
	if s.CacheFreshness < 0 || s.MetadataFreshness < 0 || s.SettleDelay < 0 {
		return fmt.Errorf("sync freshness windows and settle delay must not be negative")
	}
	// 0 отключает опрос
	if s.PollInterval < 0 {
		return fmt.Errorf("sync.poll_interval must not be negative, got %s", s.PollInterval)
	}

	for name, l := range c.Limits {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("limits.%s: %w", name, err)
		}
	}

	return nil
}
