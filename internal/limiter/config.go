package limiter

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/clock"
)

// Config describes the token budget of one resource class.
type Config struct {
	Capacity     int           `mapstructure:"capacity"`       // токенов на окно
	Window       time.Duration `mapstructure:"window"`         // длительность окна пополнения
	MaxQueueSize int           `mapstructure:"max_queue_size"` // максимум ожидающих запросов
}

// Validate reports whether the configuration can drive a limiter.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, c.Window)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("%w: max queue size must be positive, got %d", ErrInvalidConfig, c.MaxQueueSize)
	}
	return nil
}

// Option customizes a RateLimiter.
type Option func(*RateLimiter)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(l *RateLimiter) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *RateLimiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}
