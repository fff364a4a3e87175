package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		item    *Item
		name    string
		wantErr bool
	}{
		{
			name:    "valid item",
			item:    &Item{URI: "at://did:plc:a/app.bsky.feed.like/1", IndexedAt: now, Reason: ReasonLike},
			wantErr: false,
		},
		{
			name:    "missing uri",
			item:    &Item{IndexedAt: now},
			wantErr: true,
		},
		{
			name:    "blank uri",
			item:    &Item{URI: "   ", IndexedAt: now},
			wantErr: true,
		},
		{
			name:    "missing indexed_at",
			item:    &Item{URI: "at://did:plc:a/app.bsky.feed.like/1"},
			wantErr: true,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidItem)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPage_Oldest(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	page := &Page{Items: []Item{
		{URI: "a", IndexedAt: base},
		{URI: "b", IndexedAt: base.Add(-2 * time.Hour)},
		{URI: "c", IndexedAt: base.Add(-time.Hour)},
	}}

	oldest, ok := page.Oldest()
	require.True(t, ok)
	assert.Equal(t, base.Add(-2*time.Hour), oldest)

	_, ok = (&Page{}).Oldest()
	assert.False(t, ok)
}

func TestNewCacheRecord(t *testing.T) {
	indexed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))
	cached := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	rec := NewCacheRecord(Item{URI: "at://x", IndexedAt: indexed}, cached)

	assert.Equal(t, "at://x", rec.PrimaryKey)
	assert.True(t, rec.TemporalKey.Equal(indexed))
	assert.Equal(t, time.UTC, rec.TemporalKey.Location())
	assert.Equal(t, cached, rec.CachedAt)
	assert.Zero(t, rec.Seq)
}
