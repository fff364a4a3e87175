package limiter

import (
	"container/heap"
	"context"
)

// outcome is the settled result of one request.
type outcome struct {
	value any
	err   error
}

// request is a queued unit of work.
type request struct {
	ctx      context.Context
	work     Work
	done     chan outcome
	seq      uint64
	priority int
	index    int // позиция в куче, -1 после извлечения
}

// settle delivers the outcome exactly once; done is buffered.
func (r *request) settle(value any, err error) {
	r.done <- outcome{value: value, err: err}
}

// requestQueue orders requests by priority (higher first), then by enqueue
// sequence (lower first). It implements heap.Interface.
type requestQueue []*request

func (q requestQueue) Len() int { return len(q) }

func (q requestQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q requestQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *requestQueue) Push(x any) {
	r := x.(*request)
	r.index = len(*q)
	*q = append(*q, r)
}

func (q *requestQueue) Pop() any {
	old := *q
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*q = old[:n-1]
	return r
}

func (q *requestQueue) push(r *request) {
	heap.Push(q, r)
}

func (q *requestQueue) pop() *request {
	return heap.Pop(q).(*request)
}

// remove drops r if it is still queued and reports whether it was.
func (q *requestQueue) remove(r *request) bool {
	if r.index < 0 || r.index >= len(*q) || (*q)[r.index] != r {
		return false
	}
	heap.Remove(q, r.index)
	return true
}

// drain empties the queue and returns the removed requests in dispatch order.
func (q *requestQueue) drain() []*request {
	out := make([]*request, 0, q.Len())
	for q.Len() > 0 {
		out = append(out, q.pop())
	}
	return out
}
