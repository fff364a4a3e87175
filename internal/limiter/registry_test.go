package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notifsync/internal/clock"
)

func TestNewRegistry_Defaults(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	t.Cleanup(r.Close)

	assert.Equal(t, []Class{ClassFeed, ClassGeneral, ClassProfile}, r.Classes())
	for class, cfg := range DefaultLimits {
		assert.Equal(t, cfg, r.Get(class).Config(), class)
		assert.Equal(t, string(class), r.Get(class).Name())
	}
}

func TestDefaultLimits_ProfileStricterThanFeed(t *testing.T) {
	profile := DefaultLimits[ClassProfile]
	feed := DefaultLimits[ClassFeed]

	assert.Less(t, float64(profile.Capacity)/profile.Window.Seconds(), float64(feed.Capacity)/feed.Window.Seconds())
}

func TestRegistry_GetUnknownFallsBackToGeneral(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	t.Cleanup(r.Close)

	assert.Same(t, r.Get(ClassGeneral), r.Get(Class("search")))
}

func TestNewRegistry_Overrides(t *testing.T) {
	custom := Config{Capacity: 7, Window: 2 * time.Second, MaxQueueSize: 3}

	r, err := NewRegistry(map[Class]Config{
		ClassFeed:   custom,
		Class("dm"): {Capacity: 1, Window: time.Second, MaxQueueSize: 1},
	})
	require.NoError(t, err)
	t.Cleanup(r.Close)

	assert.Equal(t, custom, r.Get(ClassFeed).Config())
	assert.Equal(t, DefaultLimits[ClassProfile], r.Get(ClassProfile).Config())
	assert.Equal(t, "dm", r.Get(Class("dm")).Name())
	assert.Len(t, r.Classes(), 4)
}

func TestNewRegistry_InvalidConfig(t *testing.T) {
	r, err := NewRegistry(map[Class]Config{
		ClassFeed: {Capacity: 0, Window: time.Second, MaxQueueSize: 1},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, r)
}

func TestRegistry_ClassesAreIndependent(t *testing.T) {
	clk := clock.NewVirtualClock(testStart)
	r, err := NewRegistry(map[Class]Config{
		ClassProfile: {Capacity: 1, Window: time.Minute, MaxQueueSize: 1},
	}, WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(r.Close)

	profile := r.Get(ClassProfile)
	_, err = profile.Execute(context.Background(), 0, value("p1"))
	require.NoError(t, err)
	assert.Equal(t, 0, profile.Tokens())

	// Исчерпанный profile не блокирует feed
	v, err := r.Get(ClassFeed).Execute(context.Background(), 0, value("f1"))
	require.NoError(t, err)
	assert.Equal(t, "f1", v)
}

func TestRegistry_Close(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	r.Close()

	for _, class := range r.Classes() {
		_, err := r.Get(class).Execute(context.Background(), 0, value("late"))
		assert.ErrorIs(t, err, ErrLimiterClosed)
	}
}
