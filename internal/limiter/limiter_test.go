package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notifsync/internal/clock"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLimiter(t *testing.T, cfg Config) (*RateLimiter, *clock.VirtualClock) {
	t.Helper()

	clk := clock.NewVirtualClock(testStart)
	l, err := New("test", cfg, WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(l.Close)

	return l, clk
}

func value(v string) Work {
	return func(ctx context.Context) (any, error) {
		return v, nil
	}
}

// submit runs Execute in a goroutine and returns a channel with its result.
func submit(ctx context.Context, l *RateLimiter, priority int, work Work) <-chan outcome {
	out := make(chan outcome, 1)
	go func() {
		v, err := l.Execute(ctx, priority, work)
		out <- outcome{value: v, err: err}
	}()
	return out
}

func waitQueue(t *testing.T, l *RateLimiter, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return l.QueueSize() == n }, time.Second, time.Millisecond)
}

func waitParked(t *testing.T, clk *clock.VirtualClock) {
	t.Helper()
	require.Eventually(t, func() bool { return clk.Waiters() == 1 }, time.Second, time.Millisecond)
}

func receive(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(time.Second):
		t.Fatal("request was not settled")
		return outcome{}
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero capacity", cfg: Config{Capacity: 0, Window: time.Second, MaxQueueSize: 1}},
		{name: "zero window", cfg: Config{Capacity: 1, Window: 0, MaxQueueSize: 1}},
		{name: "negative queue", cfg: Config{Capacity: 1, Window: time.Second, MaxQueueSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New("bad", tt.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, l)
		})
	}
}

func TestExecute_RunsImmediatelyWithTokens(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Capacity: 3, Window: time.Second, MaxQueueSize: 10})

	for i := 0; i < 3; i++ {
		v, err := l.Execute(context.Background(), 0, value("ok"))
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	}

	assert.Equal(t, 0, l.Tokens())
	assert.Equal(t, 0, l.QueueSize())
}

func TestExecute_TokenBounds(t *testing.T) {
	l, clk := newTestLimiter(t, Config{Capacity: 2, Window: time.Second, MaxQueueSize: 10})

	assert.Equal(t, 2, l.Tokens())

	_, err := l.Execute(context.Background(), 0, value("a"))
	require.NoError(t, err)
	_, err = l.Execute(context.Background(), 0, value("b"))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Tokens())

	// Третий запрос ждёт следующего окна
	res := submit(context.Background(), l, 0, value("c"))
	waitParked(t, clk)
	assert.Equal(t, 1, l.QueueSize())

	clk.Advance(time.Second)
	out := receive(t, res)
	require.NoError(t, out.err)
	assert.Equal(t, "c", out.value)
	assert.Equal(t, 1, l.Tokens())

	// Много пустых окон не переполняют bucket
	clk.Advance(10 * time.Second)
	assert.Equal(t, 2, l.Tokens())
}

func TestExecute_PartialWindowDoesNotRefill(t *testing.T) {
	l, clk := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 10})

	_, err := l.Execute(context.Background(), 0, value("first"))
	require.NoError(t, err)

	res := submit(context.Background(), l, 0, value("second"))
	waitParked(t, clk)

	clk.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, l.Tokens())
	select {
	case <-res:
		t.Fatal("request dispatched before the window elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	clk.Advance(time.Millisecond)
	out := receive(t, res)
	require.NoError(t, out.err)
	assert.Equal(t, "second", out.value)
}

func TestExecute_PriorityOrdering(t *testing.T) {
	l, clk := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 10})

	_, err := l.Execute(context.Background(), 0, value("warmup"))
	require.NoError(t, err)

	low := submit(context.Background(), l, 0, value("low"))
	waitQueue(t, l, 1)
	high := submit(context.Background(), l, 5, value("high"))
	waitQueue(t, l, 2)

	waitParked(t, clk)
	clk.Advance(time.Second)
	out := receive(t, high)
	require.NoError(t, out.err)
	assert.Equal(t, "high", out.value)
	assert.Equal(t, 1, l.QueueSize())

	waitParked(t, clk)
	clk.Advance(time.Second)
	out = receive(t, low)
	require.NoError(t, out.err)
	assert.Equal(t, "low", out.value)
}

func TestExecute_FIFOAmongEqualPriority(t *testing.T) {
	l, clk := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 10})

	_, err := l.Execute(context.Background(), 0, value("warmup"))
	require.NoError(t, err)

	names := []string{"first", "second", "third"}
	results := make([]<-chan outcome, 0, len(names))
	for i, name := range names {
		results = append(results, submit(context.Background(), l, 1, value(name)))
		waitQueue(t, l, i+1)
	}

	for i, name := range names {
		waitParked(t, clk)
		clk.Advance(time.Second)
		out := receive(t, results[i])
		require.NoError(t, out.err)
		assert.Equal(t, name, out.value)
	}
}

func TestExecute_QueueFull(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 1})

	_, err := l.Execute(context.Background(), 0, value("warmup"))
	require.NoError(t, err)

	pending := submit(context.Background(), l, 0, value("queued"))
	waitQueue(t, l, 1)

	_, err = l.Execute(context.Background(), 10, value("rejected"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, l.QueueSize())

	l.Close()
	assert.ErrorIs(t, receive(t, pending).err, ErrQueueCleared)
}

func TestExecute_ForwardsWorkError(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 1})

	errRemote := errors.New("remote failed")
	_, err := l.Execute(context.Background(), 0, func(ctx context.Context) (any, error) {
		return nil, errRemote
	})
	assert.ErrorIs(t, err, errRemote)
}

func TestExecute_RecoversPanic(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Capacity: 2, Window: time.Second, MaxQueueSize: 1})

	_, err := l.Execute(context.Background(), 0, func(ctx context.Context) (any, error) {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// Воркер продолжает работать после паники
	v, err := l.Execute(context.Background(), 0, value("alive"))
	require.NoError(t, err)
	assert.Equal(t, "alive", v)
}

func TestExecute_NilWork(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 1})

	_, err := l.Execute(context.Background(), 0, nil)
	assert.Error(t, err)
}

func TestExecute_ContextCancelledWhileQueued(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 5})

	_, err := l.Execute(context.Background(), 0, value("warmup"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	called := make(chan struct{}, 1)
	res := submit(ctx, l, 0, func(ctx context.Context) (any, error) {
		called <- struct{}{}
		return nil, nil
	})
	waitQueue(t, l, 1)

	cancel()
	out := receive(t, res)
	assert.ErrorIs(t, out.err, context.Canceled)
	assert.Equal(t, 0, l.QueueSize())
	assert.Empty(t, called)
}

func TestExecute_ContextAlreadyCancelled(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Execute(ctx, 0, value("never"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, l.Tokens())
}

func TestClearQueue(t *testing.T) {
	l, clk := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 5})

	_, err := l.Execute(context.Background(), 0, value("warmup"))
	require.NoError(t, err)

	first := submit(context.Background(), l, 0, value("a"))
	waitQueue(t, l, 1)
	second := submit(context.Background(), l, 3, value("b"))
	waitQueue(t, l, 2)

	l.ClearQueue()

	assert.ErrorIs(t, receive(t, first).err, ErrQueueCleared)
	assert.ErrorIs(t, receive(t, second).err, ErrQueueCleared)
	assert.Equal(t, 0, l.QueueSize())

	// Лимитер остаётся рабочим после очистки
	res := submit(context.Background(), l, 0, value("after"))
	waitQueue(t, l, 1)
	waitParked(t, clk)
	clk.Advance(time.Second)
	out := receive(t, res)
	require.NoError(t, out.err)
	assert.Equal(t, "after", out.value)
}

func TestClose(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Capacity: 1, Window: time.Second, MaxQueueSize: 5})

	l.Close()
	l.Close()

	_, err := l.Execute(context.Background(), 0, value("late"))
	assert.ErrorIs(t, err, ErrLimiterClosed)
}

func TestDo(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Capacity: 3, Window: time.Second, MaxQueueSize: 5})

	n, err := Do(context.Background(), l, 0, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	errRemote := errors.New("remote failed")
	page, err := Do(context.Background(), l, 0, func(ctx context.Context) (*Config, error) {
		return nil, errRemote
	})
	assert.ErrorIs(t, err, errRemote)
	assert.Nil(t, page)
}
