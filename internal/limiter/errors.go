package limiter

import "errors"

var (
	// ErrQueueFull is returned by Execute when the pending queue is at capacity.
	// Callers should back off or drop the request.
	ErrQueueFull = errors.New("rate limiter queue is full")

	// ErrQueueCleared is delivered to every pending request dropped by ClearQueue.
	ErrQueueCleared = errors.New("rate limiter queue cleared")

	// ErrLimiterClosed is returned by Execute after Close.
	ErrLimiterClosed = errors.New("rate limiter is closed")

	// ErrInvalidConfig is returned when a limiter configuration is not usable.
	ErrInvalidConfig = errors.New("invalid rate limiter configuration")
)
