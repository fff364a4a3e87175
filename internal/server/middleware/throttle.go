package middleware

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Throttle caps the request rate of the whole server with a shared token
// bucket. Requests over the rate are rejected with 429 and a Retry-After
// telling when the next token becomes available.
func Throttle(limiter *rate.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := limiter.Reserve()
			if !res.OK() {
				logger.Warn("Global throttle cannot serve request", zap.String("path", r.URL.Path))
				tooManyRequests(w, 0)
				return
			}

			if delay := res.Delay(); delay > 0 {
				// Не ждем токен, а возвращаем его и отказываем
				res.Cancel()
				logger.Warn("Global rate limit exceeded",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Duration("retry_after", delay),
				)
				tooManyRequests(w, delay)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
