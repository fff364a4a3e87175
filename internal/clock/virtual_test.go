package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestVirtualClock_NowAndAdvance(t *testing.T) {
	c := NewVirtualClock(epoch)
	assert.Equal(t, epoch, c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, epoch.Add(90*time.Second), c.Now())
	assert.Equal(t, 90*time.Second, c.Since(epoch))
}

func TestVirtualClock_AfterFiresOnDeadline(t *testing.T) {
	c := NewVirtualClock(epoch)
	ch := c.After(time.Minute)
	require.Equal(t, 1, c.Waiters())

	c.Advance(59 * time.Second)
	select {
	case <-ch:
		t.Fatal("fired before deadline")
	default:
	}

	c.Advance(time.Second)
	select {
	case got := <-ch:
		assert.Equal(t, epoch.Add(time.Minute), got)
	default:
		t.Fatal("did not fire at deadline")
	}
	assert.Equal(t, 0, c.Waiters())
}

func TestVirtualClock_AfterNonPositiveFiresImmediately(t *testing.T) {
	c := NewVirtualClock(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("zero duration should fire immediately")
	}
	assert.Equal(t, 0, c.Waiters())
}

func TestVirtualClock_SetPastPanics(t *testing.T) {
	c := NewVirtualClock(epoch)
	assert.Panics(t, func() { c.Set(epoch.Add(-time.Second)) })
	assert.Panics(t, func() { c.Advance(-time.Second) })
}
