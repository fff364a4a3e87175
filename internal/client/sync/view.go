package sync

import (
	"sort"
	"sync"

	"github.com/iudanet/notifsync/internal/models"
)

// view is the in-memory, newest-first projection served by Items.
// Items with equal IndexedAt keep the order in which the view first saw them.
type view struct {
	byKey   map[string]*viewEntry
	ordered []*viewEntry
	mu      sync.RWMutex
	seq     uint64
	loaded  bool
}

type viewEntry struct {
	item models.Item
	seq  uint64
}

func newView() *view {
	return &view{byKey: make(map[string]*viewEntry)}
}

// merge upserts items and returns how many keys were new.
func (v *view) merge(items []models.Item) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.loaded = true
	inserted := 0
	for _, item := range items {
		if e, ok := v.byKey[item.URI]; ok {
			e.item = item
			continue
		}
		v.seq++
		e := &viewEntry{item: item, seq: v.seq}
		v.byKey[item.URI] = e
		v.ordered = append(v.ordered, e)
		inserted++
	}

	sort.SliceStable(v.ordered, func(i, j int) bool {
		a, b := v.ordered[i], v.ordered[j]
		if !a.item.IndexedAt.Equal(b.item.IndexedAt) {
			return a.item.IndexedAt.After(b.item.IndexedAt)
		}
		return a.seq < b.seq
	})

	return inserted
}

func (v *view) contains(key string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.byKey[key]
	return ok
}

func (v *view) len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.ordered)
}

func (v *view) isLoaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// page returns up to limit items after offset; a non-positive limit returns the rest.
func (v *view) page(limit, offset int) []models.Item {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(v.ordered) {
		return []models.Item{}
	}
	end := len(v.ordered)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]models.Item, 0, end-offset)
	for _, e := range v.ordered[offset:end] {
		out = append(out, e.item)
	}
	return out
}
