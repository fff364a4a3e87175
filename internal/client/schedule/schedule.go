// Package schedule runs cancellable delayed tasks on a clock.Clock.
package schedule

import (
	"sync"
	"time"

	"github.com/iudanet/notifsync/internal/clock"
)

// Task is a function scheduled to run once after a delay.
type Task struct {
	cancel chan struct{}
	done   chan struct{}
	once   sync.Once
}

// After runs fn once d has elapsed on clk unless the task is cancelled first.
func After(clk clock.Clock, d time.Duration, fn func()) *Task {
	clk = clock.OrReal(clk)
	t := &Task{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	fire := clk.After(d)
	go func() {
		defer close(t.done)
		select {
		case <-fire:
			// Отмена могла произойти одновременно с таймером
			select {
			case <-t.cancel:
				return
			default:
			}
			fn()
		case <-t.cancel:
		}
	}()

	return t
}

// Cancel prevents fn from running if it has not started yet. It does not
// interrupt a running fn. Cancel is idempotent.
func (t *Task) Cancel() {
	t.once.Do(func() { close(t.cancel) })
}

// Done is closed once the task has either run or been cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Every runs fn every interval until the returned task is cancelled. The next
// run is scheduled only after the previous one returns, so runs never overlap.
func Every(clk clock.Clock, interval time.Duration, fn func()) *Task {
	clk = clock.OrReal(clk)
	t := &Task{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		for {
			select {
			case <-clk.After(interval):
			case <-t.cancel:
				return
			}
			select {
			case <-t.cancel:
				return
			default:
			}
			fn()
		}
	}()

	return t
}
