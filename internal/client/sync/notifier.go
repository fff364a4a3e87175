package sync

import (
	"sync"
)

// subscriberBuffer is the per-subscriber backlog; a slow subscriber misses
// events beyond it rather than blocking the controller.
const subscriberBuffer = 32

type notifier struct {
	subs map[int]chan Event
	mu   sync.Mutex
	next int
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan Event)}
}

func (n *notifier) subscribe() (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	ch := make(chan Event, subscriberBuffer)
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if sub, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(sub)
			}
		})
	}
}

// publish delivers e without blocking and reports how many subscribers missed it.
func (n *notifier) publish(e Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	dropped := 0
	for _, ch := range n.subs {
		select {
		case ch <- e:
		default:
			dropped++
		}
	}
	return dropped
}

func (n *notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
