package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func serveFrom(h http.Handler, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitPerClientIP(t *testing.T) {
	limiter := &fakeLimiter{}
	h := RateLimit(limiter, 2, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(h, "10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.2:1000"))
}

func TestRateLimitDisabledAndFailing(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serveFrom(RateLimit(nil, 1, time.Minute, nil)(ok), "10.0.0.1:1"))

	failing := &fakeLimiter{err: errors.New("redis down")}
	assert.Equal(t, http.StatusServiceUnavailable, serveFrom(RateLimit(failing, 1, time.Minute, nil)(ok), "10.0.0.1:1"))
}

func TestClientIPPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.0.0.1", clientIP(req))
}
