package main

import (
	"context"
	"net/http"
	"time"

	"github.com/eventix/ticketing/ticketing-service/cache"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	store repository.Store
	cache cache.CacheRepository
}

func NewHealthHandler(store repository.Store, cache cache.CacheRepository) *HealthHandler {
	return &HealthHandler{store: store, cache: cache}
}

// HealthCheck reports 503 when the store is down. A cache outage only
// degrades the service.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := map[string]string{"store": "ok", "cache": "ok"}
	status, code := "healthy", http.StatusOK

	if err := h.cache.Ping(ctx); err != nil {
		checks["cache"] = "unavailable"
		status = "degraded"
	}
	if err := h.store.Ping(ctx); err != nil {
		checks["store"] = "unavailable"
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, model.HealthResponse{
		Status:    status,
		Service:   "ticketing-service",
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
