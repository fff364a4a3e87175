package sync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iudanet/notifsync/internal/client/extent"
	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/client/storage/boltdb"
	"github.com/iudanet/notifsync/internal/clock"
	"github.com/iudanet/notifsync/internal/limiter"
	"github.com/iudanet/notifsync/internal/models"
)

var (
	testNow   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	errRemote = errors.New("remote unavailable")
)

// dataset serves a newest-first item list with numeric offset cursors.
type dataset struct {
	failures map[string]error
	items    []models.Item
	mu       sync.Mutex
}

func newDataset(items []models.Item) *dataset {
	return &dataset{items: items, failures: make(map[string]error)}
}

func (d *dataset) feed(pageSize int) *FeedListerMock {
	return &FeedListerMock{
		ListPageFunc: func(_ context.Context, cursor string) (*models.Page, error) {
			d.mu.Lock()
			defer d.mu.Unlock()

			if err, ok := d.failures[cursor]; ok {
				return nil, err
			}

			start := 0
			if cursor != "" {
				var err error
				start, err = strconv.Atoi(cursor)
				if err != nil {
					return nil, err
				}
			}
			start = min(start, len(d.items))
			end := min(start+pageSize, len(d.items))

			page := &models.Page{Items: append([]models.Item(nil), d.items[start:end]...)}
			if end < len(d.items) {
				page.Cursor = strconv.Itoa(end)
			}
			return page, nil
		},
	}
}

func (d *dataset) prepend(items ...models.Item) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(append([]models.Item(nil), items...), d.items...)
}

func (d *dataset) fail(cursor string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, cursor)
		return
	}
	d.failures[cursor] = err
}

func makeItems(prefix string, n int, newest time.Time, step time.Duration) []models.Item {
	items := make([]models.Item, n)
	for i := range items {
		items[i] = models.Item{
			URI:       fmt.Sprintf("at://did:plc:alice/%s/%04d", prefix, i),
			CID:       fmt.Sprintf("cid-%s-%d", prefix, i),
			Reason:    models.ReasonLike,
			Author:    models.Author{DID: "did:plc:bob", Handle: "bob.test"},
			IndexedAt: newest.Add(-time.Duration(i) * step),
		}
	}
	return items
}

type fixture struct {
	ctrl    *Controller
	store   *boltdb.Storage
	tracker *extent.Tracker
	clk     *clock.VirtualClock
}

func newTestLimiter(t *testing.T) *limiter.RateLimiter {
	t.Helper()

	l, err := limiter.New("feed", limiter.Config{Capacity: 1000, Window: time.Second, MaxQueueSize: 100})
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func newFixture(t *testing.T, feed FeedLister, opts Options) *fixture {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	clk := clock.NewVirtualClock(testNow)
	tracker := extent.NewTracker(store, extent.WithClock(clk))

	ctrl, err := NewController(Deps{
		Feed:    feed,
		Limiter: newTestLimiter(t),
		Cache:   store,
		Tracker: tracker,
		Clock:   clk,
	}, opts)
	require.NoError(t, err)
	t.Cleanup(ctrl.Stop)

	return &fixture{ctrl: ctrl, store: store, tracker: tracker, clk: clk}
}

func (f *fixture) seed(t *testing.T, items ...models.Item) {
	t.Helper()

	records := make([]*models.CacheRecord, 0, len(items))
	for _, item := range items {
		records = append(records, models.NewCacheRecord(item, testNow))
	}
	_, err := f.store.Put(context.Background(), records)
	require.NoError(t, err)
}

func cursors(feed *FeedListerMock) []string {
	calls := feed.ListPageCalls()
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		out = append(out, call.Cursor)
	}
	return out
}

func waitEvent(t *testing.T, events <-chan Event, match func(Event) bool) Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "events channel closed")
			if match(e) {
				return e
			}
		case <-timeout:
			require.FailNow(t, "timed out waiting for event")
		}
	}
}

func isEvent(typ EventType) func(Event) bool {
	return func(e Event) bool { return e.Type == typ }
}

func isState(s State) func(Event) bool {
	return func(e Event) bool { return e.Type == EventStateChanged && e.State == s }
}

func noPolling() Options {
	opts := DefaultOptions()
	opts.PollInterval = 0
	return opts
}

func TestNewController_Validation(t *testing.T) {
	_, err := NewController(Deps{Limiter: newTestLimiter(t)}, DefaultOptions())
	require.Error(t, err)

	_, err = NewController(Deps{Feed: &FeedListerMock{}}, DefaultOptions())
	require.Error(t, err)

	ctrl, err := NewController(Deps{Feed: &FeedListerMock{}, Limiter: newTestLimiter(t)}, Options{})
	require.NoError(t, err)
	assert.Equal(t, StateInit, ctrl.State())
	assert.Equal(t, DefaultOptions().HorizonDays, ctrl.opts.HorizonDays)
	assert.Equal(t, time.Duration(0), ctrl.opts.PollInterval)
}

func TestController_ColdStart(t *testing.T) {
	// 250 элементов на 10 дней и 1 час
	items := makeItems("cold", 250, testNow.Add(-time.Minute), (10*24*time.Hour+time.Hour)/249)
	data := newDataset(items)
	feed := data.feed(100)

	f := newFixture(t, feed, noPolling())
	ctx := context.Background()

	res, err := f.ctrl.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, SourceNetwork, res.Source)
	assert.Equal(t, 3, res.PagesFetched)
	assert.Equal(t, 250, res.ItemsFetched)
	assert.Equal(t, 250, res.Inserted)
	assert.Equal(t, 250, res.CachedItems)
	assert.Equal(t, StopEndOfFeed, res.StopReason)
	assert.Equal(t, StatePolling, res.State)
	assert.NotEmpty(t, res.SessionID)

	assert.Equal(t, []string{"", "100", "200"}, cursors(feed))
	assert.Equal(t, StatePolling, f.ctrl.State())

	count, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250, count)

	ext, err := f.tracker.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.Equal(t, 10, ext.DaysReached)
	assert.Equal(t, 250, ext.TotalItemsFetched)
	assert.True(t, items[0].IndexedAt.Equal(ext.NewestItemTimestamp))

	session := f.ctrl.Session()
	assert.Equal(t, res.SessionID, session.ID)
	assert.True(t, session.HasCompletedBackfill)
	assert.False(t, session.IsPolling)
	assert.Equal(t, 3, session.PagesFetched)
	assert.Empty(t, session.Cursor)
	assert.NoError(t, session.LastError)

	got, err := f.ctrl.Items(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, items[0].URI, got[0].URI)
	assert.Equal(t, items[1].URI, got[1].URI)
}

func TestController_WarmStart(t *testing.T) {
	feed := &FeedListerMock{
		ListPageFunc: func(context.Context, string) (*models.Page, error) {
			return nil, errRemote
		},
	}
	f := newFixture(t, feed, noPolling())
	items := makeItems("warm", 3, testNow.Add(-2*time.Minute), time.Hour)
	f.seed(t, items...)
	_, err := f.tracker.Save(context.Background(), 3, items[2].IndexedAt, items[0].IndexedAt)
	require.NoError(t, err)

	events, unsubscribe := f.ctrl.Subscribe()
	defer unsubscribe()

	res, err := f.ctrl.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, 3, res.CachedItems)
	assert.Equal(t, StatePolling, res.State)
	assert.Empty(t, feed.ListPageCalls())

	waitEvent(t, events, isState(StateLoadingFromCache))
	waitEvent(t, events, isEvent(EventDataChanged))
	waitEvent(t, events, isState(StatePolling))

	got, err := f.ctrl.Items(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, items[0].URI, got[0].URI)
	assert.Equal(t, items[2].URI, got[2].URI)
}

func TestController_CacheFreshnessBoundary(t *testing.T) {
	tests := []struct {
		name      string
		age       time.Duration
		fromCache bool
	}{
		{name: "just under freshness", age: 5*time.Minute - time.Second, fromCache: true},
		{name: "exactly at freshness", age: 5 * time.Minute, fromCache: false},
		{name: "stale", age: 10 * time.Minute, fromCache: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := newDataset(makeItems("fresh", 3, testNow.Add(-tt.age), time.Minute))
			feed := data.feed(100)
			f := newFixture(t, feed, noPolling())
			f.seed(t, data.items[0])
			_, err := f.tracker.Save(context.Background(), 1, data.items[0].IndexedAt, data.items[0].IndexedAt)
			require.NoError(t, err)

			res, err := f.ctrl.Sync(context.Background())
			require.NoError(t, err)

			if tt.fromCache {
				assert.Equal(t, SourceCache, res.Source)
				assert.Empty(t, feed.ListPageCalls())
			} else {
				assert.Equal(t, SourceNetwork, res.Source)
				assert.Len(t, feed.ListPageCalls(), 1)
			}
		})
	}
}

func TestController_PartialFailure(t *testing.T) {
	data := newDataset(makeItems("partial", 250, testNow.Add(-10*time.Minute), time.Hour))
	data.fail("100", errRemote)
	feed := data.feed(100)

	f := newFixture(t, feed, noPolling())
	ctx := context.Background()

	events, unsubscribe := f.ctrl.Subscribe()
	defer unsubscribe()

	res, err := f.ctrl.Sync(ctx)
	require.ErrorIs(t, err, errRemote)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.PagesFetched)
	assert.Equal(t, StateBackfilling, res.State)
	assert.Equal(t, StateBackfilling, f.ctrl.State())

	failed := waitEvent(t, events, isEvent(EventSyncFailed))
	assert.ErrorIs(t, failed.Err, errRemote)
	assert.ErrorIs(t, f.ctrl.Session().LastError, errRemote)

	count, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, count)

	ext, err := f.tracker.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, ext)

	// Первая страница уже видна, несмотря на ошибку
	got, err := f.ctrl.Items(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 100)

	data.fail("100", nil)

	res, err = f.ctrl.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.PagesFetched)
	assert.Equal(t, 150, res.Inserted)
	assert.Equal(t, StatePolling, f.ctrl.State())

	assert.Equal(t, []string{"", "100", "", "100", "200"}, cursors(feed))

	ext, err = f.tracker.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.Equal(t, 250, ext.TotalItemsFetched)
}

func TestController_PartialFailureWithFreshItems(t *testing.T) {
	// Первая страница свежее окна кэша, но история неполная
	data := newDataset(makeItems("partial-fresh", 250, testNow.Add(-time.Minute), time.Hour))
	data.fail("100", errRemote)
	feed := data.feed(100)

	f := newFixture(t, feed, noPolling())
	ctx := context.Background()

	_, err := f.ctrl.Sync(ctx)
	require.ErrorIs(t, err, errRemote)

	data.fail("100", nil)

	res, err := f.ctrl.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceNetwork, res.Source)
	assert.Equal(t, 3, res.PagesFetched)
	assert.Equal(t, StopEndOfFeed, res.StopReason)
	assert.Equal(t, []string{"", "100", "", "100", "200"}, cursors(feed))

	ext, err := f.tracker.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.Equal(t, 250, ext.TotalItemsFetched)
}

func TestController_RestartAfterPartialFailure(t *testing.T) {
	data := newDataset(makeItems("restart", 250, testNow.Add(-time.Minute), time.Hour))
	feed := data.feed(100)

	f := newFixture(t, feed, noPolling())
	ctx := context.Background()

	_, err := f.ctrl.Sync(ctx)
	require.NoError(t, err)

	// Кэш устарел, новая попытка обрывается на второй странице
	f.clk.Advance(10 * time.Minute)
	data.prepend(makeItems("restart-new", 1, testNow.Add(10*time.Minute-30*time.Second), time.Minute)...)
	data.fail("100", errRemote)

	_, err = f.ctrl.Sync(ctx)
	require.ErrorIs(t, err, errRemote)

	ext, err := f.tracker.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, ext, "extent must not outlive an interrupted backfill")

	data.fail("100", nil)

	// Новый процесс видит свежий кэш, но без завершенного бэкфилла
	restarted, err := NewController(Deps{
		Feed:    feed,
		Limiter: newTestLimiter(t),
		Cache:   f.store,
		Tracker: f.tracker,
		Clock:   f.clk,
	}, noPolling())
	require.NoError(t, err)
	t.Cleanup(restarted.Stop)

	res, err := restarted.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceNetwork, res.Source)
	assert.Equal(t, 3, res.PagesFetched)
	assert.Equal(t, 251, res.CachedItems)

	ext, err = f.tracker.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.Equal(t, 251, ext.TotalItemsFetched)
}

func TestController_ItemsBeforeFirstSession(t *testing.T) {
	t.Run("empty cache is unavailable", func(t *testing.T) {
		f := newFixture(t, newDataset(nil).feed(10), noPolling())

		got, err := f.ctrl.Items(context.Background(), 10, 0)
		require.ErrorIs(t, err, ErrFeedUnavailable)
		assert.Nil(t, got)
	})

	t.Run("cached items are served", func(t *testing.T) {
		f := newFixture(t, newDataset(nil).feed(10), noPolling())
		items := makeItems("cached", 2, testNow.Add(-time.Hour), time.Minute)
		f.seed(t, items...)

		got, err := f.ctrl.Items(context.Background(), 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, items[0].URI, got[0].URI)

		got, err = f.ctrl.Items(context.Background(), 10, 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty feed after a session", func(t *testing.T) {
		f := newFixture(t, newDataset(nil).feed(10), noPolling())

		_, err := f.ctrl.Sync(context.Background())
		require.NoError(t, err)

		got, err := f.ctrl.Items(context.Background(), 10, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestController_StorageWriteFailuresAreLogged(t *testing.T) {
	errDisk := errors.New("disk full")

	tests := []struct {
		putErr     error
		saveErr    error
		name       string
		logMessage string
		cached     int
		saves      int
	}{
		{
			name:       "metadata write fails",
			saveErr:    errDisk,
			logMessage: "Failed to save extent metadata",
			cached:     3,
			saves:      1,
		},
		{
			name:       "cache write fails",
			putErr:     errDisk,
			logMessage: "Failed to write items to cache",
			cached:     0,
			saves:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := makeItems("mock", 3, testNow.Add(-time.Hour), time.Minute)

			var (
				mu     sync.Mutex
				stored []*models.CacheRecord
			)
			edge := func(newest bool) (*models.CacheRecord, error) {
				mu.Lock()
				defer mu.Unlock()
				if len(stored) == 0 {
					return nil, nil
				}
				if newest {
					return stored[0], nil
				}
				return stored[len(stored)-1], nil
			}

			cache := &storage.CacheStorageMock{
				ReadyFunc: func() bool { return true },
				PutFunc: func(_ context.Context, records []*models.CacheRecord) (int, error) {
					if tt.putErr != nil {
						return 0, tt.putErr
					}
					mu.Lock()
					defer mu.Unlock()
					stored = append(stored, records...)
					return len(records), nil
				},
				RangeFunc: func(context.Context, int, int, storage.Order) ([]*models.CacheRecord, error) {
					return nil, nil
				},
				CountFunc: func(context.Context) (int, error) {
					mu.Lock()
					defer mu.Unlock()
					return len(stored), nil
				},
				NewestFunc: func(context.Context) (*models.CacheRecord, error) { return edge(true) },
				OldestFunc: func(context.Context) (*models.CacheRecord, error) { return edge(false) },
			}
			meta := &storage.MetadataStorageMock{
				LoadExtentFunc: func(context.Context) (*models.ExtentMetadata, error) {
					return nil, storage.ErrExtentNotFound
				},
				DeleteExtentFunc: func(context.Context) error { return nil },
				SaveExtentFunc: func(context.Context, *models.ExtentMetadata) error {
					return tt.saveErr
				},
			}

			core, logs := observer.New(zap.WarnLevel)
			clk := clock.NewVirtualClock(testNow)

			ctrl, err := NewController(Deps{
				Feed:    newDataset(items).feed(10),
				Limiter: newTestLimiter(t),
				Cache:   cache,
				Tracker: extent.NewTracker(meta, extent.WithClock(clk)),
				Clock:   clk,
				Logger:  zap.New(core),
			}, noPolling())
			require.NoError(t, err)
			t.Cleanup(ctrl.Stop)

			res, err := ctrl.Sync(context.Background())
			require.NoError(t, err)
			assert.Equal(t, StatePolling, res.State)
			assert.Equal(t, SourceNetwork, res.Source)
			assert.Equal(t, tt.cached, res.CachedItems)
			assert.Equal(t, 3, res.Inserted)

			assert.Len(t, cache.PutCalls(), 1)
			assert.Len(t, meta.SaveExtentCalls(), tt.saves)
			assert.Equal(t, 1, logs.FilterMessage(tt.logMessage).Len())

			// Данные остаются доступны из памяти
			got, err := ctrl.Items(context.Background(), 0, 0)
			require.NoError(t, err)
			assert.Len(t, got, 3)
		})
	}
}

func TestController_BackfillTermination(t *testing.T) {
	t.Run("horizon", func(t *testing.T) {
		data := newDataset(makeItems("horizon", 100, testNow.Add(-10*time.Minute), 24*time.Hour))
		feed := data.feed(10)
		opts := noPolling()
		opts.PageSize = 10
		f := newFixture(t, feed, opts)

		res, err := f.ctrl.Sync(context.Background())
		require.NoError(t, err)
		// Элемент 28 старше 28 дней и лежит на третьей странице
		assert.Equal(t, 3, res.PagesFetched)
		assert.Equal(t, StopHorizon, res.StopReason)
	})

	t.Run("page cap", func(t *testing.T) {
		data := newDataset(makeItems("cap", 100, testNow.Add(-10*time.Minute), time.Minute))
		feed := data.feed(10)
		opts := noPolling()
		opts.MaxPages = 2
		f := newFixture(t, feed, opts)

		res, err := f.ctrl.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, res.PagesFetched)
		assert.Equal(t, StopPageCap, res.StopReason)
		assert.Equal(t, []string{"", "10"}, cursors(feed))
	})

	t.Run("overlap with fresh deep extent", func(t *testing.T) {
		items := makeItems("overlap", 100, testNow.Add(-10*time.Minute), time.Hour)
		feed := newDataset(items).feed(10)
		f := newFixture(t, feed, noPolling())
		f.seed(t, items[15:20]...)

		_, err := f.tracker.Save(context.Background(), 5, testNow.Add(-30*24*time.Hour), testNow.Add(-time.Hour))
		require.NoError(t, err)

		res, err := f.ctrl.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, res.PagesFetched)
		assert.Equal(t, StopOverlap, res.StopReason)
		assert.Equal(t, 15, res.Inserted)
	})

	t.Run("no overlap stop without extent", func(t *testing.T) {
		items := makeItems("nooverlap", 30, testNow.Add(-10*time.Minute), time.Hour)
		feed := newDataset(items).feed(10)
		f := newFixture(t, feed, noPolling())
		f.seed(t, items[15:20]...)

		res, err := f.ctrl.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, res.PagesFetched)
		assert.Equal(t, StopEndOfFeed, res.StopReason)
	})
}

func TestController_DeduplicatesAcrossPages(t *testing.T) {
	items := makeItems("dup", 3, testNow.Add(-time.Hour), time.Minute)
	feed := &FeedListerMock{
		ListPageFunc: func(_ context.Context, cursor string) (*models.Page, error) {
			if cursor == "" {
				return &models.Page{Items: items[:2], Cursor: "next"}, nil
			}
			return &models.Page{Items: items[1:]}, nil
		},
	}
	f := newFixture(t, feed, noPolling())

	res, err := f.ctrl.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.ItemsFetched)
	assert.Equal(t, 3, res.Inserted)

	count, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestController_DropsInvalidItems(t *testing.T) {
	valid := makeItems("valid", 1, testNow.Add(-time.Hour), time.Minute)[0]
	feed := &FeedListerMock{
		ListPageFunc: func(context.Context, string) (*models.Page, error) {
			return &models.Page{Items: []models.Item{
				valid,
				{URI: "", IndexedAt: testNow},
				{URI: "at://did:plc:alice/broken/1"},
			}}, nil
		},
	}
	f := newFixture(t, feed, noPolling())

	res, err := f.ctrl.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Invalid)
	assert.Equal(t, 1, res.ItemsFetched)
	assert.Equal(t, 2, f.ctrl.Session().InvalidItems)

	count, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestController_NetworkOnly(t *testing.T) {
	t.Run("serves network data without a cache", func(t *testing.T) {
		items := makeItems("net", 5, testNow.Add(-time.Hour), time.Minute)
		ctrl, err := NewController(Deps{
			Feed:    newDataset(items).feed(100),
			Limiter: newTestLimiter(t),
			Clock:   clock.NewVirtualClock(testNow),
		}, noPolling())
		require.NoError(t, err)
		t.Cleanup(ctrl.Stop)

		res, err := ctrl.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, res.CachedItems)
		assert.Equal(t, StatePolling, ctrl.State())

		got, err := ctrl.Items(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Len(t, got, 5)
	})

	t.Run("closed store and failing network", func(t *testing.T) {
		store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "cache.db"), nil)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		ctrl, err := NewController(Deps{
			Feed: &FeedListerMock{
				ListPageFunc: func(context.Context, string) (*models.Page, error) {
					return nil, errRemote
				},
			},
			Limiter: newTestLimiter(t),
			Cache:   store,
			Clock:   clock.NewVirtualClock(testNow),
		}, noPolling())
		require.NoError(t, err)
		t.Cleanup(ctrl.Stop)

		_, err = ctrl.Items(context.Background(), 10, 0)
		require.ErrorIs(t, err, ErrFeedUnavailable)

		_, err = ctrl.Sync(context.Background())
		require.ErrorIs(t, err, errRemote)

		_, err = ctrl.Items(context.Background(), 10, 0)
		require.ErrorIs(t, err, ErrFeedUnavailable)
		require.ErrorIs(t, err, errRemote)
	})
}

func TestController_SyncInProgress(t *testing.T) {
	release := make(chan struct{})
	feed := &FeedListerMock{
		ListPageFunc: func(ctx context.Context, _ string) (*models.Page, error) {
			select {
			case <-release:
				return &models.Page{}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	f := newFixture(t, feed, noPolling())

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Sync(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return len(feed.ListPageCalls()) == 1 }, time.Second, time.Millisecond)

	_, err := f.ctrl.Sync(context.Background())
	require.ErrorIs(t, err, ErrSyncInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestController_PollingMergesNewItems(t *testing.T) {
	data := newDataset(makeItems("poll", 5, testNow.Add(-10*time.Minute), time.Hour))
	feed := data.feed(10)
	opts := DefaultOptions()
	opts.PageSize = 10
	opts.PollInterval = time.Minute
	f := newFixture(t, feed, opts)
	ctx := context.Background()

	_, err := f.ctrl.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, f.ctrl.Session().IsPolling)

	events, unsubscribe := f.ctrl.Subscribe()
	defer unsubscribe()

	fresh := makeItems("poll-new", 1, testNow, time.Minute)[0]
	data.prepend(fresh)

	require.Eventually(t, func() bool { return f.clk.Waiters() == 1 }, time.Second, time.Millisecond)
	f.clk.Advance(time.Minute)

	changed := waitEvent(t, events, isEvent(EventDataChanged))
	assert.Equal(t, 1, changed.Inserted)
	assert.Equal(t, StatePolling, f.ctrl.State())

	got, err := f.ctrl.Items(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.URI, got[0].URI)

	require.Eventually(t, func() bool {
		ext, err := f.tracker.Load(ctx)
		return err == nil && ext != nil && ext.TotalItemsFetched == 6
	}, time.Second, time.Millisecond)

	assert.Equal(t, "", cursors(feed)[1])
}

func TestController_PollFailureKeepsPolling(t *testing.T) {
	data := newDataset(makeItems("pollfail", 5, testNow.Add(-10*time.Minute), time.Hour))
	feed := data.feed(10)
	opts := DefaultOptions()
	opts.PageSize = 10
	opts.PollInterval = time.Minute
	f := newFixture(t, feed, opts)

	_, err := f.ctrl.Sync(context.Background())
	require.NoError(t, err)

	events, unsubscribe := f.ctrl.Subscribe()
	defer unsubscribe()

	data.fail("", errRemote)
	require.Eventually(t, func() bool { return f.clk.Waiters() == 1 }, time.Second, time.Millisecond)
	f.clk.Advance(time.Minute)

	failed := waitEvent(t, events, isEvent(EventSyncFailed))
	assert.ErrorIs(t, failed.Err, errRemote)
	assert.Equal(t, StatePolling, f.ctrl.State())

	data.fail("", nil)
	data.prepend(makeItems("pollfail-new", 1, testNow, time.Minute)...)

	require.Eventually(t, func() bool { return f.clk.Waiters() == 1 }, time.Second, time.Millisecond)
	f.clk.Advance(time.Minute)

	waitEvent(t, events, isEvent(EventDataChanged))
}

func TestController_PollSavesMovedBounds(t *testing.T) {
	data := newDataset(makeItems("moved", 5, testNow.Add(-10*time.Minute), time.Hour))
	feed := data.feed(10)
	opts := DefaultOptions()
	opts.PageSize = 10
	opts.PollInterval = time.Minute
	f := newFixture(t, feed, opts)
	ctx := context.Background()

	_, err := f.ctrl.Sync(ctx)
	require.NoError(t, err)

	ext, err := f.tracker.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.True(t, testNow.Add(-10*time.Minute).Equal(ext.NewestItemTimestamp))

	// Тот же ключ с новым временем: вставок нет, но граница сдвинулась
	moved := testNow.Add(-time.Minute)
	data.mu.Lock()
	data.items[0].IndexedAt = moved
	data.mu.Unlock()

	require.Eventually(t, func() bool { return f.clk.Waiters() == 1 }, time.Second, time.Millisecond)
	f.clk.Advance(time.Minute)

	require.Eventually(t, func() bool {
		ext, err := f.tracker.Load(ctx)
		return err == nil && ext != nil && moved.Equal(ext.NewestItemTimestamp)
	}, time.Second, time.Millisecond)

	ext, err = f.tracker.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, ext.TotalItemsFetched)
}

func TestController_GapTriggersBackfill(t *testing.T) {
	data := newDataset(makeItems("gap-old", 15, testNow.Add(-10*time.Hour), time.Hour))
	feed := data.feed(10)
	opts := DefaultOptions()
	opts.PageSize = 10
	opts.PollInterval = time.Minute
	f := newFixture(t, feed, opts)
	ctx := context.Background()

	_, err := f.ctrl.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"", "10"}, cursors(feed))

	events, unsubscribe := f.ctrl.Subscribe()
	defer unsubscribe()

	// Целая страница новых элементов: часть могла быть пропущена
	data.prepend(makeItems("gap-new", 10, testNow, time.Minute)...)

	require.Eventually(t, func() bool { return f.clk.Waiters() == 1 }, time.Second, time.Millisecond)
	f.clk.Advance(time.Minute)

	waitEvent(t, events, isState(StateBackfilling))
	waitEvent(t, events, isState(StatePolling))

	assert.Equal(t, []string{"", "10", "", "", "10", "20"}, cursors(feed))

	count, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, count)
}

func TestController_StartAfterSettleDelay(t *testing.T) {
	data := newDataset(makeItems("start", 3, testNow.Add(-time.Hour), time.Minute))
	feed := data.feed(10)
	f := newFixture(t, feed, noPolling())

	f.ctrl.Start(context.Background())
	require.Eventually(t, func() bool { return f.clk.Waiters() == 1 }, time.Second, time.Millisecond)
	assert.Empty(t, feed.ListPageCalls())

	f.clk.Advance(time.Second)

	require.Eventually(t, func() bool { return f.ctrl.State() == StatePolling }, time.Second, time.Millisecond)
	assert.Len(t, feed.ListPageCalls(), 1)
}

func TestController_StopCancelsSettle(t *testing.T) {
	feed := newDataset(makeItems("stop", 3, testNow.Add(-time.Hour), time.Minute)).feed(10)
	f := newFixture(t, feed, noPolling())

	events, _ := f.ctrl.Subscribe()

	f.ctrl.Start(context.Background())
	require.Eventually(t, func() bool { return f.clk.Waiters() == 1 }, time.Second, time.Millisecond)

	f.ctrl.Stop()
	f.clk.Advance(time.Second)

	assert.Empty(t, feed.ListPageCalls())
	assert.Equal(t, StateInit, f.ctrl.State())

	_, open := <-events
	assert.False(t, open)
}

func TestController_StartStopsWithContext(t *testing.T) {
	feed := newDataset(nil).feed(10)
	f := newFixture(t, feed, noPolling())

	ctx, cancel := context.WithCancel(context.Background())
	f.ctrl.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		f.ctrl.mu.Lock()
		defer f.ctrl.mu.Unlock()
		return f.ctrl.stopped
	}, time.Second, time.Millisecond)
}
