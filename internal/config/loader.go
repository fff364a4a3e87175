package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NOTIFSYNC_SYNC_PAGE_SIZE.
const EnvPrefix = "NOTIFSYNC"

// KeyConfigFile is the viper key holding an explicit config file path.
const KeyConfigFile = "config"

// SetDefaults registers every default on v so that environment variables
// and flags bound to the same keys override them.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.token", d.API.Token)
	v.SetDefault("api.timeout", d.API.Timeout)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.legacy_extent_path", d.Store.LegacyExtentPath)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("sync.cache_freshness", d.Sync.CacheFreshness)
	v.SetDefault("sync.metadata_freshness", d.Sync.MetadataFreshness)
	v.SetDefault("sync.poll_interval", d.Sync.PollInterval)
	v.SetDefault("sync.settle_delay", d.Sync.SettleDelay)
	v.SetDefault("sync.horizon_days", d.Sync.HorizonDays)
	v.SetDefault("sync.page_size", d.Sync.PageSize)
	v.SetDefault("sync.max_pages", d.Sync.MaxPages)

	for name, l := range d.Limits {
		prefix := "limits." + name + "."
		v.SetDefault(prefix+"capacity", l.Capacity)
		v.SetDefault(prefix+"window", l.Window)
		v.SetDefault(prefix+"max_queue_size", l.MaxQueueSize)
	}
}

// Load layers defaults, an optional YAML config file, NOTIFSYNC_* environment
// variables and any flags already bound to v, then decodes and validates.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString(KeyConfigFile)); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName("notifsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
