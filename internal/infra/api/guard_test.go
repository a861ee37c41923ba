package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockdata-subscription/internal/infra/api/apiv1"
	"mockdata-subscription/internal/infra/logging"
)

func nopLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func TestTraceID(t *testing.T) {
	var seen string
	h := TraceID(nopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.TraceIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "req-123", seen)
}

func TestRecover(t *testing.T) {
	h := Recover(nopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal","detail":"an unexpected error occurred"}`, rec.Body.String())
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, _ = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
}

func TestIPLimiter(t *testing.T) {
	l := NewIPLimiter(1, 2, nopLogger())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, l.Allow("2.2.2.2"), "other clients have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"), "bucket refills over time")

	now = now.Add(idleClientTTL + time.Minute)
	l.Allow("3.3.3.3")
	l.mu.Lock()
	_, kept := l.clients["2.2.2.2"]
	l.mu.Unlock()
	assert.False(t, kept, "idle clients are swept")
}

func TestIPLimiterMiddleware(t *testing.T) {
	l := NewIPLimiter(0.001, 1, nopLogger())
	h := l.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// a fresh forwarded address from an untrusted peer shares the peer's bucket
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "8.8.8.8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestIPLimiterMiddleware_TrustedProxy(t *testing.T) {
	l := NewIPLimiter(0.001, 1, nopLogger())
	require.NoError(t, l.TrustProxies([]string{"10.0.0.0/8"}))
	h := l.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, client := range []string{"9.9.9.9", "8.8.8.8"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:5555"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, "clients behind the proxy have their own bucket")
	}

	assert.Error(t, l.TrustProxies([]string{"not-an-ip"}))
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.9:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	req.Header.Set("X-Real-IP", "203.0.113.6")
	assert.Equal(t, "198.51.100.9", ClientIP(req, trusted), "untrusted peers cannot claim another address")
	assert.Equal(t, "198.51.100.9", ClientIP(req, nil))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	assert.Equal(t, "192.0.2.1", ClientIP(req, trusted))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req, trusted))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(req, trusted), "right-most untrusted hop wins")
}

func TestRouter_Health(t *testing.T) {
	l := nopLogger()
	v1 := apiv1.NewServer(nil, nil, nil, nil, nil, apiv1.Options{}, l)

	up := NewRouter(v1, time.Second, l, map[string]HealthCheck{
		"postgres": func(ctx context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	up.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"up"`)

	down := NewRouter(v1, time.Second, l, map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("refused") },
	})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)

	rec = httptest.NewRecorder()
	up.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
