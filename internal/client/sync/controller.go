// Package sync drives the notification feed: it decides between the local
// cache and the network, backfills history page by page through the rate
// limiter, and polls for new items once caught up.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/client/extent"
	"github.com/iudanet/notifsync/internal/client/schedule"
	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/clock"
	"github.com/iudanet/notifsync/internal/config"
	"github.com/iudanet/notifsync/internal/limiter"
	"github.com/iudanet/notifsync/internal/models"
)

//go:generate moq -out feedlister_mock.go . FeedLister

var (
	// ErrFeedUnavailable is returned by Items when neither the cache nor the
	// network produced any data.
	ErrFeedUnavailable = errors.New("feed unavailable")
	// ErrSyncInProgress is returned when Sync is called while another session runs.
	ErrSyncInProgress = errors.New("sync already in progress")
)

const day = 24 * time.Hour

// FeedLister fetches one page of the remote feed. An empty cursor requests
// the newest page.
type FeedLister interface {
	ListPage(ctx context.Context, cursor string) (*models.Page, error)
}

// Deps are the collaborators of a Controller. Cache and Tracker are optional:
// without a ready cache the controller works in network-only mode.
type Deps struct {
	Feed    FeedLister
	Limiter *limiter.RateLimiter
	Cache   storage.CacheStorage
	Tracker *extent.Tracker
	Clock   clock.Clock
	Logger  *zap.Logger
}

// Options are the thresholds of the sync pipeline.
type Options struct {
	CacheFreshness time.Duration // свежесть кэша для решения "кэш или сеть"
	PollInterval   time.Duration // 0 отключает опрос
	SettleDelay    time.Duration
	HorizonDays    int
	PageSize       int
	MaxPages       int
}

// DefaultOptions returns the built-in thresholds.
func DefaultOptions() Options {
	return Options{
		CacheFreshness: config.DefaultCacheFreshness,
		PollInterval:   config.DefaultPollInterval,
		SettleDelay:    config.DefaultSettleDelay,
		HorizonDays:    config.DefaultHorizonDays,
		PageSize:       config.DefaultPageSize,
		MaxPages:       config.DefaultMaxPages,
	}
}

// Controller is the sync state machine for one feed.
type Controller struct {
	feed    FeedLister
	limiter *limiter.RateLimiter
	cache   storage.CacheStorage
	tracker *extent.Tracker
	clock   clock.Clock
	logger  *zap.Logger

	view     *view
	notifier *notifier

	ctx    context.Context
	cancel context.CancelFunc

	settleTask *schedule.Task
	pollTask   *schedule.Task
	lastExtent *models.ExtentMetadata

	session SessionState
	opts    Options
	mu      sync.Mutex
	state   State
	running atomic.Bool
	stopped bool
}

// NewController creates a controller in the INIT state.
func NewController(deps Deps, opts Options) (*Controller, error) {
	if deps.Feed == nil {
		return nil, errors.New("feed lister is required")
	}
	if deps.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}

	defaults := DefaultOptions()
	if opts.CacheFreshness <= 0 {
		opts.CacheFreshness = defaults.CacheFreshness
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = defaults.HorizonDays
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaults.PageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaults.MaxPages
	}
	if opts.PollInterval < 0 {
		opts.PollInterval = 0
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		feed:     deps.Feed,
		limiter:  deps.Limiter,
		cache:    deps.Cache,
		tracker:  deps.Tracker,
		clock:    clock.OrReal(deps.Clock),
		logger:   logger,
		view:     newView(),
		notifier: newNotifier(),
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		state:    StateInit,
	}, nil
}

// Start schedules a Sync after the settle delay. Cancelling ctx stops the
// controller. Calling Start again is a no-op.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.settleTask != nil {
		return
	}

	c.settleTask = schedule.After(c.clock, c.opts.SettleDelay, func() {
		if _, err := c.Sync(c.ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("Initial sync failed", zap.Error(err))
		}
	})

	go func() {
		select {
		case <-ctx.Done():
			c.Stop()
		case <-c.ctx.Done():
		}
	}()
}

// Stop cancels the settle and poll tasks and any in-flight sync, and waits
// for a running task to return. Subscriber channels are closed.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.session.IsPolling = false
	settle, poll := c.settleTask, c.pollTask
	c.pollTask = nil
	c.mu.Unlock()

	c.cancel()
	for _, task := range []*schedule.Task{settle, poll} {
		if task == nil {
			continue
		}
		task.Cancel()
		<-task.Done()
	}

	c.notifier.closeAll()
	c.logger.Debug("Sync controller stopped")
}

// Subscribe returns a channel of controller events and a function that
// unsubscribes and closes it.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.notifier.subscribe()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Items returns up to limit items of the in-memory view, newest first.
// Before the first session it reads the cache directly; an empty cache then
// yields ErrFeedUnavailable.
func (c *Controller) Items(ctx context.Context, limit, offset int) ([]models.Item, error) {
	if c.view.isLoaded() {
		return c.view.page(limit, offset), nil
	}

	c.mu.Lock()
	lastErr := c.session.LastError
	c.mu.Unlock()

	if lastErr == nil && c.cacheReady() {
		records, err := c.cache.Range(ctx, limit, offset, storage.Descending)
		if err == nil && len(records) == 0 {
			// Пустой кэш до первой загрузки: данных нет, а не "нет уведомлений"
			if count, cerr := c.cache.Count(ctx); cerr == nil && count == 0 {
				return nil, ErrFeedUnavailable
			}
		}
		if err == nil {
			items := make([]models.Item, 0, len(records))
			for _, rec := range records {
				items = append(items, rec.Payload)
			}
			return items, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, lastErr)
	}
	return nil, ErrFeedUnavailable
}

// Sync runs one session: serve a fresh cache, otherwise backfill from the
// network, then enter polling. Only one session runs at a time.
func (c *Controller) Sync(ctx context.Context) (*Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer c.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	interrupted := c.backfillInterrupted()
	sessionID := c.beginSession()
	c.logger.Info("Starting synchronization", zap.String("session_id", sessionID))

	c.setState(StateCheckingCache)

	if result, ok := c.loadFromCache(ctx, interrupted); ok {
		result.SessionID = sessionID
		c.enterPolling()
		result.State = c.State()
		c.logger.Info("Synchronization completed from cache",
			zap.String("session_id", sessionID),
			zap.Int("cached_items", result.CachedItems))
		return result, nil
	}

	result, err := c.backfill(ctx)
	result.SessionID = sessionID
	if err != nil {
		c.fail(err)
		result.State = c.State()
		return result, err
	}

	c.enterPolling()
	result.State = c.State()

	c.logger.Info("Synchronization completed",
		zap.String("session_id", sessionID),
		zap.String("stop_reason", string(result.StopReason)),
		zap.Int("pages_fetched", result.PagesFetched),
		zap.Int("items_fetched", result.ItemsFetched),
		zap.Int("inserted", result.Inserted))

	return result, nil
}

// backfillInterrupted reports whether the last session stopped mid-backfill.
func (c *Controller) backfillInterrupted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateBackfilling && c.session.LastError != nil
}

func (c *Controller) beginSession() string {
	id := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = SessionState{
		ID:        id,
		StartedAt: c.clock.Now(),
		IsPolling: c.pollTask != nil,
	}
	return id
}

// loadFromCache hydrates the view when the newest cached record is younger
// than the cache freshness window and the last backfill completed. The extent
// record is deleted when a backfill starts and saved when it completes, so its
// absence means the cache may hold a partial history.
func (c *Controller) loadFromCache(ctx context.Context, interrupted bool) (*Result, bool) {
	if !c.cacheReady() {
		c.logger.Debug("Cache not available, using network only")
		return nil, false
	}
	if interrupted {
		c.logger.Debug("Previous backfill did not complete, backfilling again")
		return nil, false
	}

	newest, err := c.cache.Newest(ctx)
	if err != nil {
		c.logger.Warn("Failed to read newest cached item", zap.Error(err))
		return nil, false
	}
	if newest == nil {
		return nil, false
	}
	if c.clock.Since(newest.TemporalKey) >= c.opts.CacheFreshness {
		c.logger.Debug("Cache is stale",
			zap.Time("newest", newest.TemporalKey),
			zap.Duration("freshness", c.opts.CacheFreshness))
		return nil, false
	}

	if c.tracker != nil {
		ext, err := c.tracker.Load(ctx)
		if err != nil {
			c.logger.Warn("Failed to read extent metadata", zap.Error(err))
			return nil, false
		}
		if ext == nil {
			c.logger.Debug("No completed backfill recorded")
			return nil, false
		}
	}

	c.setState(StateLoadingFromCache)

	count, err := c.hydrate(ctx)
	if err != nil {
		c.logger.Warn("Failed to load cached items", zap.Error(err))
		return nil, false
	}

	c.publish(Event{Type: EventDataChanged, Inserted: count})

	return &Result{Source: SourceCache, CachedItems: count}, true
}

// hydrate merges every cached record into the view and returns the cache size.
func (c *Controller) hydrate(ctx context.Context) (int, error) {
	records, err := c.cache.Range(ctx, 0, 0, storage.Descending)
	if err != nil {
		return 0, fmt.Errorf("range cache: %w", err)
	}

	if len(records) == 0 {
		return 0, nil
	}

	items := make([]models.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, rec.Payload)
	}
	c.view.merge(items)

	return len(records), nil
}

// backfill walks the feed from the newest page backwards until a stop
// condition is met. Pages merged before a failure are kept.
func (c *Controller) backfill(ctx context.Context) (*Result, error) {
	c.setState(StateBackfilling)
	result := &Result{Source: SourceNetwork}

	cacheReady := c.cacheReady()
	if cacheReady && !c.view.isLoaded() {
		// Старые данные показываем, пока догружаем новые
		if _, err := c.hydrate(ctx); err != nil {
			c.logger.Warn("Failed to load cached items", zap.Error(err))
		}
	}

	skipFull := false
	if cacheReady && c.tracker != nil {
		var err error
		skipFull, err = c.tracker.ShouldSkipFullBackfill(ctx)
		if err != nil {
			c.logger.Warn("Failed to read extent metadata", zap.Error(err))
			skipFull = false
		}
		// Экстент вернется только после полного завершения бэкфилла
		if err := c.tracker.Reset(ctx); err != nil {
			c.logger.Warn("Failed to reset extent metadata", zap.Error(err))
		}
		c.mu.Lock()
		c.lastExtent = nil
		c.mu.Unlock()
	}

	horizon := c.clock.Now().Add(-time.Duration(c.opts.HorizonDays) * day)
	cursor := ""

	for {
		if result.PagesFetched >= c.opts.MaxPages {
			result.StopReason = StopPageCap
			break
		}

		page, err := c.fetchPage(ctx, limiter.PriorityBackfill, cursor)
		if err != nil {
			return result, fmt.Errorf("fetch page %d: %w", result.PagesFetched+1, err)
		}

		valid, invalid := c.validate(page.Items)
		inserted := c.merge(ctx, valid)

		result.PagesFetched++
		result.ItemsFetched += len(valid)
		result.Invalid += invalid
		result.Inserted += inserted

		c.mu.Lock()
		c.session.Cursor = page.Cursor
		c.session.PagesFetched++
		c.session.ItemsFetched += len(valid)
		c.session.InvalidItems += invalid
		c.mu.Unlock()

		c.logger.Debug("Fetched page",
			zap.Int("pages_fetched", result.PagesFetched),
			zap.Int("items", len(valid)),
			zap.Int("inserted", inserted),
			zap.String("cursor", page.Cursor))

		if inserted > 0 {
			c.publish(Event{Type: EventDataChanged, Inserted: inserted})
		}

		if oldest, ok := oldestOf(valid); ok && oldest.Before(horizon) {
			result.StopReason = StopHorizon
			break
		}
		if skipFull && len(valid) > 0 && inserted < len(valid) {
			result.StopReason = StopOverlap
			break
		}
		if page.Cursor == "" {
			result.StopReason = StopEndOfFeed
			break
		}
		cursor = page.Cursor
	}

	c.mu.Lock()
	c.session.HasCompletedBackfill = true
	c.session.LastError = nil
	c.mu.Unlock()

	result.CachedItems = c.saveExtent(ctx)

	return result, nil
}

// poll fetches the newest page and merges it. A page made only of unseen
// items means the poll interval missed some, so the gap is backfilled.
func (c *Controller) poll(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		c.logger.Debug("Skipping poll, sync in progress")
		return
	}
	defer c.running.Store(false)

	page, err := c.fetchPage(ctx, limiter.PriorityPoll, "")
	if errors.Is(err, limiter.ErrQueueFull) {
		c.logger.Debug("Skipping poll, limiter queue is full")
		return
	}
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.logger.Warn("Poll failed", zap.Error(err))
		c.recordError(err)
		return
	}

	valid, invalid := c.validate(page.Items)
	knownBefore := c.view.len()

	unseen := 0
	for _, item := range valid {
		if !c.view.contains(item.URI) {
			unseen++
		}
	}

	inserted := c.merge(ctx, valid)
	if inserted > 0 {
		c.publish(Event{Type: EventDataChanged, Inserted: inserted})
	}

	c.logger.Debug("Polled newest page",
		zap.Int("items", len(valid)),
		zap.Int("invalid", invalid),
		zap.Int("inserted", inserted))

	if knownBefore > 0 && len(page.Items) >= c.opts.PageSize && len(valid) > 0 && unseen == len(valid) {
		c.logger.Info("Gap detected, backfilling", zap.Int("unseen", unseen))

		if _, err := c.backfill(ctx); err != nil {
			if ctx.Err() == nil {
				c.fail(err)
			}
			return
		}
		c.enterPolling()
		return
	}

	if len(valid) > 0 {
		c.saveExtentIfChanged(ctx)
	}
}

func (c *Controller) fetchPage(ctx context.Context, priority int, cursor string) (*models.Page, error) {
	page, err := limiter.Do(ctx, c.limiter, priority, func(ctx context.Context) (*models.Page, error) {
		return c.feed.ListPage(ctx, cursor)
	})
	if err != nil {
		return nil, err
	}
	if page == nil {
		return &models.Page{}, nil
	}
	return page, nil
}

// validate drops items the pipeline cannot key or order.
func (c *Controller) validate(items []models.Item) ([]models.Item, int) {
	valid := make([]models.Item, 0, len(items))
	invalid := 0
	for i := range items {
		if err := items[i].Validate(); err != nil {
			c.logger.Debug("Dropping invalid item", zap.Error(err))
			invalid++
			continue
		}
		valid = append(valid, items[i])
	}
	if invalid > 0 {
		c.logger.Warn("Dropped invalid items", zap.Int("invalid", invalid))
	}
	return valid, invalid
}

// merge upserts items into the cache and the view and returns how many keys
// were new. A failed cache write leaves the view as the only copy.
func (c *Controller) merge(ctx context.Context, items []models.Item) int {
	inserted := c.view.merge(items)
	if len(items) == 0 || !c.cacheReady() {
		return inserted
	}

	now := c.clock.Now()
	records := make([]*models.CacheRecord, 0, len(items))
	for _, item := range items {
		records = append(records, models.NewCacheRecord(item, now))
	}

	if _, err := c.cache.Put(ctx, records); err != nil {
		c.logger.Warn("Failed to write items to cache", zap.Error(err))
	}

	return inserted
}

// saveExtent records how far the cache reaches and returns the cached count.
// Failures are logged and ignored.
func (c *Controller) saveExtent(ctx context.Context) int {
	if !c.cacheReady() {
		return c.view.len()
	}

	count, oldest, newest, err := c.cacheBounds(ctx)
	if err != nil {
		c.logger.Warn("Failed to read cache bounds", zap.Error(err))
		return c.view.len()
	}
	if c.tracker == nil || count == 0 {
		return count
	}

	saved, err := c.tracker.Save(ctx, count, oldest, newest)
	if err != nil {
		c.logger.Warn("Failed to save extent metadata", zap.Error(err))
		return count
	}

	c.mu.Lock()
	c.lastExtent = saved
	c.mu.Unlock()

	return count
}

func (c *Controller) saveExtentIfChanged(ctx context.Context) {
	if c.tracker == nil || !c.cacheReady() {
		return
	}

	count, oldest, newest, err := c.cacheBounds(ctx)
	if err != nil {
		c.logger.Warn("Failed to read cache bounds", zap.Error(err))
		return
	}

	c.mu.Lock()
	last := c.lastExtent
	c.mu.Unlock()

	if last != nil && last.TotalItemsFetched == count &&
		last.OldestItemTimestamp.Equal(oldest) && last.NewestItemTimestamp.Equal(newest) {
		return
	}

	c.saveExtent(ctx)
}

func (c *Controller) cacheBounds(ctx context.Context) (int, time.Time, time.Time, error) {
	count, err := c.cache.Count(ctx)
	if err != nil {
		return 0, time.Time{}, time.Time{}, err
	}
	oldest, err := c.cache.Oldest(ctx)
	if err != nil {
		return 0, time.Time{}, time.Time{}, err
	}
	newest, err := c.cache.Newest(ctx)
	if err != nil {
		return 0, time.Time{}, time.Time{}, err
	}
	if oldest == nil || newest == nil {
		return count, time.Time{}, time.Time{}, nil
	}
	return count, oldest.TemporalKey, newest.TemporalKey, nil
}

// enterPolling moves to POLLING and schedules the poll task once.
func (c *Controller) enterPolling() {
	c.setState(StatePolling)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.opts.PollInterval <= 0 || c.pollTask != nil {
		return
	}

	c.pollTask = schedule.Every(c.clock, c.opts.PollInterval, func() {
		c.poll(c.ctx)
	})
	c.session.IsPolling = true

	c.logger.Debug("Polling started", zap.Duration("interval", c.opts.PollInterval))
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()

	if prev == s {
		return
	}

	c.logger.Debug("State changed",
		zap.String("from", prev.String()),
		zap.String("state", s.String()))
	c.publish(Event{Type: EventStateChanged, State: s})
}

// fail records a failed backfill. The state stays BACKFILLING.
func (c *Controller) fail(err error) {
	c.logger.Error("Synchronization failed", zap.Error(err))
	c.recordError(err)
}

func (c *Controller) recordError(err error) {
	c.mu.Lock()
	c.session.LastError = err
	c.mu.Unlock()

	c.publish(Event{Type: EventSyncFailed, Err: err})
}

func (c *Controller) publish(e Event) {
	e.At = c.clock.Now()
	if e.Type != EventStateChanged {
		e.State = c.State()
	}
	if dropped := c.notifier.publish(e); dropped > 0 {
		c.logger.Debug("Event dropped for slow subscribers",
			zap.String("event", e.Type.String()),
			zap.Int("subscribers", dropped))
	}
}

func (c *Controller) cacheReady() bool {
	return c.cache != nil && c.cache.Ready()
}

func oldestOf(items []models.Item) (time.Time, bool) {
	page := models.Page{Items: items}
	return page.Oldest()
}
