// Package storage holds the notification feed served by the development server.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iudanet/notifsync/pkg/api"
)

// FeedStorage defines the read side of the notification feed
type FeedStorage interface {
	// Page returns up to limit notifications strictly older than cursor,
	// newest first, and the cursor of the next page ("" when the feed ends).
	// An empty cursor starts from the newest notification.
	Page(ctx context.Context, cursor string, limit int) ([]api.Notification, string, error)

	// Len returns the number of notifications in the feed
	Len() int
}

// MemoryFeed keeps the feed in memory, ordered newest first.
//
// Cursors encode the IndexedAt of the last returned notification, so pages stay
// consistent when new notifications are published between requests.
type MemoryFeed struct {
	items []api.Notification
	mu    sync.RWMutex
}

// NewMemoryFeed creates a feed from items in any order.
func NewMemoryFeed(items []api.Notification) *MemoryFeed {
	sorted := make([]api.Notification, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].IndexedAt.After(sorted[j].IndexedAt)
	})
	return &MemoryFeed{items: sorted}
}

// Publish adds a notification to the feed.
func (f *MemoryFeed) Publish(n api.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := sort.Search(len(f.items), func(i int) bool {
		return !f.items[i].IndexedAt.After(n.IndexedAt)
	})
	f.items = append(f.items, api.Notification{})
	copy(f.items[idx+1:], f.items[idx:])
	f.items[idx] = n
}

// Len returns the number of notifications in the feed.
func (f *MemoryFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// Page implements FeedStorage.
func (f *MemoryFeed) Page(ctx context.Context, cursor string, limit int) ([]api.Notification, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if limit <= 0 || limit > api.MaxLimit {
		return nil, "", fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidLimit, limit, api.MaxLimit)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	start := 0
	if cursor != "" {
		before, err := DecodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		start = sort.Search(len(f.items), func(i int) bool {
			return f.items[i].IndexedAt.Before(before)
		})
	}

	end := min(start+limit, len(f.items))
	page := make([]api.Notification, end-start)
	copy(page, f.items[start:end])

	next := ""
	if end < len(f.items) && len(page) > 0 {
		next = EncodeCursor(page[len(page)-1].IndexedAt)
	}
	return page, next, nil
}

// EncodeCursor returns the cursor that continues after a notification indexed at t.
func EncodeCursor(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

// DecodeCursor parses a cursor produced by EncodeCursor.
func DecodeCursor(cursor string) (time.Time, error) {
	nanos, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || nanos <= 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return time.Unix(0, nanos).UTC(), nil
}
