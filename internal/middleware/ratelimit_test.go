package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	h := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, Burst: 10}).Handler(okHandler())

	for range 5 {
		rec := serveFrom(h, "192.0.2.1:1000")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	h := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}).Handler(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, serveFrom(h, "192.0.2.1:1000").Code)
	}

	rec := serveFrom(h, "192.0.2.1:1001")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	h := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}).Handler(okHandler())

	require.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(h, "10.0.0.1:5678").Code)
	assert.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.2:1234").Code)
}

func TestRateLimiter_IgnoresForwardedFor(t *testing.T) {
	h := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}).Handler(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113."+string(rune('1'+i)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	l.now = func() time.Time { return now }
	h := l.Handler(okHandler())

	serveFrom(h, "10.0.0.1:1")
	now = now.Add(30 * time.Second)
	serveFrom(h, "10.0.0.2:1")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 0, l.Sweep())

	// The evicted client starts with a full bucket again.
	assert.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1").Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"IPv4 with port", "192.168.1.1:12345", "192.168.1.1"},
		{"IPv6 with port", "[::1]:12345", "::1"},
		{"no port", "192.168.1.1", "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
