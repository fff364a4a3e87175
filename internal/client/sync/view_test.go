package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/notifsync/internal/models"
)

func uris(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.URI)
	}
	return out
}

func TestView_MergeOrdersNewestFirst(t *testing.T) {
	v := newView()
	assert.False(t, v.isLoaded())

	inserted := v.merge([]models.Item{
		{URI: "b", IndexedAt: testNow.Add(-2 * time.Minute)},
		{URI: "a", IndexedAt: testNow.Add(-time.Minute)},
		{URI: "tie-1", IndexedAt: testNow.Add(-3 * time.Minute)},
		{URI: "tie-2", IndexedAt: testNow.Add(-3 * time.Minute)},
	})
	assert.Equal(t, 4, inserted)
	assert.True(t, v.isLoaded())

	assert.Equal(t, []string{"a", "b", "tie-1", "tie-2"}, uris(v.page(0, 0)))
}

func TestView_MergeUpserts(t *testing.T) {
	v := newView()
	v.merge([]models.Item{{URI: "a", IndexedAt: testNow}})

	inserted := v.merge([]models.Item{
		{URI: "a", IndexedAt: testNow, IsRead: true},
		{URI: "b", IndexedAt: testNow},
	})
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 2, v.len())
	assert.True(t, v.contains("a"))

	items := v.page(0, 0)
	// При равном времени порядок первой вставки сохраняется
	assert.Equal(t, []string{"a", "b"}, uris(items))
	assert.True(t, items[0].IsRead)
}

func TestView_Page(t *testing.T) {
	v := newView()

	v.merge(makeItems("page", 5, testNow, time.Minute))

	tests := []struct {
		name   string
		limit  int
		offset int
		want   int
	}{
		{name: "all", limit: 0, offset: 0, want: 5},
		{name: "first two", limit: 2, offset: 0, want: 2},
		{name: "tail", limit: 10, offset: 3, want: 2},
		{name: "past end", limit: 2, offset: 5, want: 0},
		{name: "negative offset", limit: 1, offset: -1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, v.page(tt.limit, tt.offset), tt.want)
		})
	}
}

func TestNotifier_SubscribeAndUnsubscribe(t *testing.T) {
	n := newNotifier()

	first, unsubscribeFirst := n.subscribe()
	second, unsubscribeSecond := n.subscribe()
	defer unsubscribeSecond()

	assert.Equal(t, 0, n.publish(Event{Type: EventDataChanged, Inserted: 3}))

	e := <-first
	assert.Equal(t, EventDataChanged, e.Type)
	assert.Equal(t, 3, e.Inserted)
	assert.Equal(t, 3, (<-second).Inserted)

	unsubscribeFirst()
	unsubscribeFirst()
	_, open := <-first
	assert.False(t, open)

	n.publish(Event{Type: EventStateChanged, State: StatePolling})
	assert.Equal(t, StatePolling, (<-second).State)
}

func TestNotifier_DropsForSlowSubscriber(t *testing.T) {
	n := newNotifier()
	_, unsubscribe := n.subscribe()
	defer unsubscribe()

	for range subscriberBuffer {
		assert.Equal(t, 0, n.publish(Event{Type: EventDataChanged}))
	}
	assert.Equal(t, 1, n.publish(Event{Type: EventDataChanged}))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "INIT", StateInit.String())
	assert.Equal(t, "CHECKING_CACHE", StateCheckingCache.String())
	assert.Equal(t, "LOADING_FROM_CACHE", StateLoadingFromCache.String())
	assert.Equal(t, "BACKFILLING", StateBackfilling.String())
	assert.Equal(t, "POLLING", StatePolling.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
	assert.Equal(t, "sync_failed", EventSyncFailed.String())
}
