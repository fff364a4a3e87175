package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestThrottle(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 2)
	handler := Throttle(limiter, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		// Разные клиенты делят общий бакет
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0." + string(rune('1'+i)) + ":1000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "1", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "rate limit exceeded")
}

func TestThrottle_RejectedRequestsDoNotConsumeTokens(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	handler := Throttle(limiter, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		return w
	}

	assert.Equal(t, http.StatusOK, serve().Code)

	first := serve()
	second := serve()
	assert.Equal(t, http.StatusTooManyRequests, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	// Отмененные резервации не отодвигают следующий токен
	assert.Equal(t, first.Header().Get("Retry-After"), second.Header().Get("Retry-After"))
}

func TestThrottle_ZeroBurstRejectsEverything(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 0)
	handler := Throttle(limiter, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("Handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
