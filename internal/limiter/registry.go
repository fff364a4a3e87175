package limiter

import (
	"fmt"
	"sort"
	"time"
)

// Class names a group of remote calls that share one token budget.
type Class string

const (
	// ClassProfile covers expensive per-item lookups (profiles, posts by URI).
	ClassProfile Class = "profile"
	// ClassFeed covers bulk feed page listings.
	ClassFeed Class = "feed"
	// ClassGeneral covers everything else.
	ClassGeneral Class = "general"
)

// Priorities used by the sync pipeline. Higher runs sooner.
const (
	PriorityBackfill = 0
	PriorityPoll     = 5
	PriorityUser     = 10
)

// DefaultLimits are conservative per-class budgets. Per-item lookups get a
// stricter budget than bulk feed pages.
var DefaultLimits = map[Class]Config{
	ClassProfile: {Capacity: 3, Window: time.Second, MaxQueueSize: 50},
	ClassFeed:    {Capacity: 5, Window: time.Second, MaxQueueSize: 20},
	ClassGeneral: {Capacity: 10, Window: time.Second, MaxQueueSize: 100},
}

// Registry holds one independently configured RateLimiter per class so that
// bursts in one class never starve another.
type Registry struct {
	limiters map[Class]*RateLimiter
}

// NewRegistry builds a limiter for every class in limits. Classes missing
// from limits fall back to DefaultLimits; ClassGeneral always exists.
func NewRegistry(limits map[Class]Config, opts ...Option) (*Registry, error) {
	merged := make(map[Class]Config, len(DefaultLimits)+len(limits))
	for class, cfg := range DefaultLimits {
		merged[class] = cfg
	}
	for class, cfg := range limits {
		merged[class] = cfg
	}

	r := &Registry{limiters: make(map[Class]*RateLimiter, len(merged))}
	for class, cfg := range merged {
		l, err := New(string(class), cfg, opts...)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("create limiter for %s: %w", class, err)
		}
		r.limiters[class] = l
	}

	return r, nil
}

// Get returns the limiter of class, or the general limiter for unknown classes.
func (r *Registry) Get(class Class) *RateLimiter {
	if l, ok := r.limiters[class]; ok {
		return l
	}
	return r.limiters[ClassGeneral]
}

// Classes returns the configured classes in lexical order.
func (r *Registry) Classes() []Class {
	classes := make([]Class, 0, len(r.limiters))
	for class := range r.limiters {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

// Close stops every limiter. Pending work is rejected with ErrQueueCleared.
func (r *Registry) Close() {
	for _, l := range r.limiters {
		l.Close()
	}
}
