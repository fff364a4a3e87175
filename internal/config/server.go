package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// ServerConfig configures the development feed server.
type ServerConfig struct {
	Addr      string        `mapstructure:"addr"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Log       LogConfig     `mapstructure:"log"`
	Dataset   DatasetConfig `mapstructure:"dataset"`
	RateLimit RateConfig    `mapstructure:"rate_limit"`
}

// DatasetConfig describes the generated notification set.
type DatasetConfig struct {
	Items     int           `mapstructure:"items"`
	Days      int           `mapstructure:"days"`
	Seed      int64         `mapstructure:"seed"`
	LiveEvery time.Duration `mapstructure:"live_every"` // 0 отключает генерацию новых уведомлений
}

// RateConfig describes the server-side throttles.
type RateConfig struct {
	GlobalRPS         float64       `mapstructure:"global_rps"`
	GlobalBurst       int           `mapstructure:"global_burst"`
	PerClientRequests int           `mapstructure:"per_client_requests"`
	PerClientWindow   time.Duration `mapstructure:"per_client_window"`
}

// SetServerDefaults registers the server defaults on v.
func SetServerDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("dataset.items", 500)
	v.SetDefault("dataset.days", 40)
	v.SetDefault("dataset.seed", 1)
	v.SetDefault("dataset.live_every", time.Duration(0))
	v.SetDefault("rate_limit.global_rps", 20.0)
	v.SetDefault("rate_limit.global_burst", 40)
	v.SetDefault("rate_limit.per_client_requests", 60)
	v.SetDefault("rate_limit.per_client_window", time.Minute)
}

// LoadServer layers defaults, NOTIFSYNC_SERVER_* environment variables and
// bound flags into a ServerConfig.
func LoadServer(v *viper.Viper) (*ServerConfig, error) {
	if v == nil {
		v = viper.New()
	}

	SetServerDefaults(v)
	v.SetEnvPrefix(EnvPrefix + "_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &ServerConfig{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal server config: %w", err)
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Dataset.Items < 0 || cfg.Dataset.Days <= 0 {
		return nil, fmt.Errorf("dataset.items must not be negative and dataset.days must be positive")
	}
	if cfg.Dataset.LiveEvery < 0 {
		return nil, fmt.Errorf("dataset.live_every must not be negative")
	}
	if cfg.RateLimit.GlobalRPS <= 0 || cfg.RateLimit.GlobalBurst <= 0 {
		return nil, fmt.Errorf("rate_limit.global_rps and rate_limit.global_burst must be positive")
	}
	if cfg.RateLimit.PerClientRequests <= 0 || cfg.RateLimit.PerClientWindow <= 0 {
		return nil, fmt.Errorf("rate_limit.per_client_requests and rate_limit.per_client_window must be positive")
	}

	return cfg, nil
}
