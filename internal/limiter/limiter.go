// Package limiter throttles outbound calls with a token bucket and a
// priority queue. Each RateLimiter owns one resource class; the Registry
// groups independently configured limiters.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/clock"
)

// Work is a call gated by a RateLimiter. It receives the caller's context.
type Work func(ctx context.Context) (any, error)

// RateLimiter dispatches queued work while tokens are available and refills
// the bucket once per whole window. A single worker goroutine owns dispatch,
// so requests of one limiter never run concurrently.
type RateLimiter struct {
	lastRefill time.Time
	clock      clock.Clock
	logger     *zap.Logger
	wake       chan struct{}
	stop       chan struct{}
	name       string
	queue      requestQueue
	cfg        Config
	tokens     int
	seq        uint64
	mu         sync.Mutex
	closeOnce  sync.Once
	closed     bool
}

// New creates a limiter with a full bucket and starts its worker.
func New(name string, cfg Config, opts ...Option) (*RateLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("limiter %q: %w", name, err)
	}

	l := &RateLimiter{
		name:   name,
		cfg:    cfg,
		tokens: cfg.Capacity,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.clock = clock.OrReal(l.clock)
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	l.logger = l.logger.With(zap.String("class", name))
	l.lastRefill = l.clock.Now()

	go l.run()

	return l, nil
}

// Name returns the resource class this limiter throttles.
func (l *RateLimiter) Name() string {
	return l.name
}

// Config returns the limiter's configuration.
func (l *RateLimiter) Config() Config {
	return l.cfg
}

// Execute enqueues work with the given priority (higher runs sooner) and
// blocks until it has run. Errors returned by work are forwarded unchanged.
// A full queue fails fast with ErrQueueFull. If ctx ends while the request is
// still queued, the request is dropped and ctx.Err() is returned.
func (l *RateLimiter) Execute(ctx context.Context, priority int, work Work) (any, error) {
	if work == nil {
		return nil, errors.New("rate limiter: nil work")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrLimiterClosed
	}
	if l.queue.Len() >= l.cfg.MaxQueueSize {
		size := l.queue.Len()
		l.mu.Unlock()
		l.logger.Warn("Rate limiter queue is full", zap.Int("queue_size", size), zap.Int("priority", priority))
		return nil, ErrQueueFull
	}
	l.seq++
	req := &request{
		ctx:      ctx,
		work:     work,
		done:     make(chan outcome, 1),
		seq:      l.seq,
		priority: priority,
	}
	l.queue.push(req)
	l.mu.Unlock()

	l.signal()

	select {
	case out := <-req.done:
		return out.value, out.err
	case <-ctx.Done():
		l.mu.Lock()
		removed := l.queue.remove(req)
		l.mu.Unlock()
		if removed {
			return nil, ctx.Err()
		}
		// Запрос уже извлечён из очереди, дожидаемся результата
		out := <-req.done
		return out.value, out.err
	}
}

// Do is a typed wrapper around Execute.
func Do[T any](ctx context.Context, l *RateLimiter, priority int, work func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := l.Execute(ctx, priority, func(ctx context.Context) (any, error) {
		return work(ctx)
	})
	if v == nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("rate limiter: unexpected result type %T", v)
	}
	return typed, err
}

// QueueSize returns the number of pending (not yet dispatched) requests.
func (l *RateLimiter) QueueSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

// Tokens returns the currently available budget after applying any pending refill.
func (l *RateLimiter) Tokens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked(l.clock.Now())
	return l.tokens
}

// ClearQueue rejects every pending request with ErrQueueCleared.
// Work that is already running is not interrupted.
func (l *RateLimiter) ClearQueue() {
	l.mu.Lock()
	pending := l.queue.drain()
	l.mu.Unlock()

	for _, req := range pending {
		req.settle(nil, ErrQueueCleared)
	}
	if len(pending) > 0 {
		l.logger.Info("Rate limiter queue cleared", zap.Int("dropped", len(pending)))
	}
}

// Close stops the worker and clears the queue. Subsequent Execute calls fail
// with ErrLimiterClosed. Close is idempotent.
func (l *RateLimiter) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.stop)
		l.ClearQueue()
	})
}

func (l *RateLimiter) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// run is the single dispatch loop of the limiter.
func (l *RateLimiter) run() {
	for {
		l.mu.Lock()
		if l.queue.Len() == 0 {
			l.mu.Unlock()
			select {
			case <-l.wake:
				continue
			case <-l.stop:
				return
			}
		}

		now := l.clock.Now()
		l.refillLocked(now)
		if l.tokens > 0 {
			req := l.queue.pop()
			l.tokens--
			l.mu.Unlock()
			l.dispatch(req)
			continue
		}

		wait := l.untilNextWindowLocked(now)
		queued := l.queue.Len()
		l.mu.Unlock()

		l.logger.Debug("Rate limiter waiting for refill",
			zap.Duration("wait", wait),
			zap.Int("queue_size", queued))

		select {
		case <-l.clock.After(wait):
		case <-l.stop:
			return
		}
	}
}

func (l *RateLimiter) dispatch(req *request) {
	if err := req.ctx.Err(); err != nil {
		// Вызывающий уже ушёл, возвращаем токен
		l.mu.Lock()
		if l.tokens < l.cfg.Capacity {
			l.tokens++
		}
		l.mu.Unlock()
		req.settle(nil, err)
		return
	}

	l.logger.Debug("Dispatching request", zap.Int("priority", req.priority), zap.Uint64("seq", req.seq))

	value, err := l.invoke(req)
	req.settle(value, err)
}

func (l *RateLimiter) invoke(req *request) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Rate limited work panicked", zap.Any("panic", r))
			value, err = nil, fmt.Errorf("rate limited work panicked: %v", r)
		}
	}()
	return req.work(req.ctx)
}

// refillLocked adds capacity tokens for every whole window elapsed since the
// last refill, capped at capacity. Must be called with l.mu held.
func (l *RateLimiter) refillLocked(now time.Time) {
	elapsed := now.Sub(l.lastRefill)
	if elapsed < l.cfg.Window {
		return
	}

	windows := elapsed / l.cfg.Window
	// windows*capacity токенов с ограничением capacity: любое целое окно заполняет bucket
	l.tokens = min(l.cfg.Capacity, l.tokens+l.cfg.Capacity)
	l.lastRefill = l.lastRefill.Add(windows * l.cfg.Window)
}

// untilNextWindowLocked must be called with l.mu held.
func (l *RateLimiter) untilNextWindowLocked(now time.Time) time.Duration {
	wait := l.lastRefill.Add(l.cfg.Window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
