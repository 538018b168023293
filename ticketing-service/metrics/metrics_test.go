package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesOwnRegistry(t *testing.T) {
	first := New("ticketing")
	second := New("ticketing")

	first.BookingsCreated.Inc()
	first.BookingsDeleted.WithLabelValues("event_cascade").Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(first.BookingsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.BookingsCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(first.BookingsDeleted.WithLabelValues("event_cascade")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New("ticketing")
	m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `ticketing_http_requests_total{method="GET",path="/health",status="200"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
