package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/eventix/ticketing/ticketing-service/cache"
	"github.com/eventix/ticketing/ticketing-service/config"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLimiter struct {
	mu    sync.Mutex
	hits  map[string]int
	err   error
	limit int
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = limit
	l.hits[key]++
	return l.hits[key] <= limit, nil
}

func rateLimited(limiter cache.RateLimiter) func(*config.Config, *Dependencies) {
	return func(cfg *config.Config, deps *Dependencies) {
		cfg.RateLimit = config.RateLimit{Enabled: true, Requests: 2, WindowSeconds: 30}
		deps.Limiter = limiter
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := &countingLimiter{hits: map[string]int{}}
	s := newTestServerWith(t, rateLimited(limiter))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/events", nil, "").Code)
	}

	w := s.do(http.MethodGet, "/api/v1/events", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RateLimitedTotal))

	// health checks are not rate limited
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", nil, "").Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &countingLimiter{hits: map[string]int{}, err: errors.New("redis down")}
	s := newTestServerWith(t, rateLimited(limiter))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/events", nil, "").Code)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	req := newRequest(http.MethodOptions, "/api/v1/events")
	req.Header.Set("Origin", "https://tickets.example.com")
	w := s.send(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://tickets.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = newRequest(http.MethodGet, "/api/v1/events")
	req.Header.Set("Origin", "https://evil.example.com")
	w = s.send(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRequireRoles(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser("Admin", model.RoleAdmin)
	_, userToken := s.seedUser("Alice", model.RoleUser)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/users", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/users", nil, userToken).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/users", nil, adminToken).Code)
}

func TestJWTServiceRejectsForeignTokens(t *testing.T) {
	user := &model.User{ID: "u-1", Email: "a@example.com", Role: model.RoleUser}

	issuer := NewJWTService("secret-a", time.Minute, time.Hour)
	other := NewJWTService("secret-b", time.Minute, time.Hour)
	expired := NewJWTService("secret-a", -time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token, tokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)

	_, err = issuer.ValidateToken(token, tokenTypeRefresh)
	assert.Error(t, err)

	_, err = other.ValidateToken(token, tokenTypeAccess)
	assert.Error(t, err)

	stale, err := expired.GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = issuer.ValidateToken(stale, tokenTypeAccess)
	assert.Error(t, err)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[model.HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Checks["store"])

	w = s.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}

type failingCache struct {
	cache.Noop
}

func (failingCache) Ping(context.Context) error { return errors.New("unreachable") }

func TestHealthDegradedWithoutCache(t *testing.T) {
	s := newTestServerWith(t, func(_ *config.Config, deps *Dependencies) {
		deps.Cache = failingCache{}
	})

	w := s.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[model.HealthResponse](t, w)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "unavailable", health.Checks["cache"])
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, activity.Message) error {
	return errors.New("broker unavailable")
}

func (failingPublisher) Close() error { return nil }

func TestActivityFailureDoesNotFailRequest(t *testing.T) {
	s := newTestServerWith(t, func(_ *config.Config, deps *Dependencies) {
		deps.Activity = failingPublisher{}
	})
	_, adminToken := s.seedUser("Admin", model.RoleAdmin)

	w := s.do(http.MethodDelete, "/api/v1/booking", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ActivityPublishFailures))
}
