package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/cache"
	"github.com/eventix/ticketing/ticketing-service/cache/redis"
	"github.com/eventix/ticketing/ticketing-service/metrics"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

type EventHandler struct {
	events   *service.EventService
	cache    cache.CacheRepository
	cacheTTL time.Duration
	uploads  *imageUploader
	activity *activityRecorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewEventHandler(
	events *service.EventService,
	cache cache.CacheRepository,
	cacheTTL time.Duration,
	uploads *imageUploader,
	recorder *activityRecorder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *EventHandler {
	return &EventHandler{
		events:   events,
		cache:    cache,
		cacheTTL: cacheTTL,
		uploads:  uploads,
		activity: recorder,
		metrics:  m,
		logger:   logger,
	}
}

// ListEvents handles event listing with filtering and pagination
func (h *EventHandler) ListEvents(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	filter = service.NormalizePage(filter)
	ctx := c.Request.Context()

	// Try to get cached event list first
	filterKey := redis.GenerateFilterKey(filter)
	cached, err := h.cache.GetEventList(ctx, filterKey)
	h.observeCache("event_list", cached != nil, err)
	if err == nil && cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	response, err := h.events.ListEvents(ctx, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.cache.SetEventList(ctx, filterKey, response, h.cacheTTL); err != nil {
		h.logger.Warn("failed to cache event list", zap.Error(err))
	}
	c.JSON(http.StatusOK, response)
}

// GetEvent handles retrieving a single event by ID
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	cached, err := h.cache.GetEvent(ctx, eventID)
	h.observeCache("event", cached != nil, err)
	if err == nil && cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	event, err := h.events.GetEvent(ctx, eventID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.cache.SetEvent(ctx, eventID, event, h.cacheTTL); err != nil {
		h.logger.Warn("failed to cache event", zap.String("event_id", eventID), zap.Error(err))
	}
	c.JSON(http.StatusOK, event)
}

// CreateEvent accepts JSON or a multipart form with an optional jpeg image.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req model.CreateEventRequest
	if isMultipart(c) {
		h.uploads.limitBody(c)
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			respondBindError(c, err)
			return
		}
		if err := model.Validate(req.Normalized()); err != nil {
			respondError(c, h.logger, err)
			return
		}
		image, err := h.uploads.save(c, "events")
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		req.Image = image
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), req)
	if err != nil {
		h.uploads.remove(c.Request.Context(), req.Image)
		respondError(c, h.logger, err)
		return
	}

	h.invalidateEvent(c, event.ID)
	c.JSON(http.StatusCreated, event)
}

// UpdateEvent applies a partial update; a new image replaces the old one.
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var (
		req      model.UpdateEventRequest
		oldImage string
	)
	if isMultipart(c) {
		h.uploads.limitBody(c)
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			respondBindError(c, err)
			return
		}
		if err := model.Validate(req.Normalized()); err != nil {
			respondError(c, h.logger, err)
			return
		}
		current, err := h.events.GetEvent(ctx, eventID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		image, err := h.uploads.save(c, "events")
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		if image != "" {
			req.Image = &image
			oldImage = current.Image
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.events.UpdateEvent(ctx, eventID, req)
	if err != nil {
		if req.Image != nil {
			h.uploads.remove(ctx, *req.Image)
		}
		respondError(c, h.logger, err)
		return
	}

	h.uploads.remove(ctx, oldImage)
	h.invalidateEvent(c, event.ID)
	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes the event together with its bookings.
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	current, err := h.events.GetEvent(ctx, eventID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.events.DeleteEvent(ctx, eventID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.uploads.remove(ctx, current.Image)
	h.invalidateEvent(c, eventID)
	h.metrics.BookingsDeleted.WithLabelValues("event_cascade").Add(float64(result.BookingsDeleted))
	h.activity.record(c, activity.EventDeleted, eventID, result)
	c.Status(http.StatusNoContent)
}

// DeleteEvents removes every event matching the query filters, or all
// events when none are given, together with their bookings.
func (h *EventHandler) DeleteEvents(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.events.DeleteEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.cache.InvalidateAllEvents(c.Request.Context()); err != nil {
		h.logger.Warn("failed to invalidate event cache", zap.Error(err))
	}
	h.metrics.BookingsDeleted.WithLabelValues("event_cascade").Add(float64(result.BookingsDeleted))
	h.activity.record(c, activity.EventsPurged, "events", result)
	c.Status(http.StatusNoContent)
}

func (h *EventHandler) invalidateEvent(c *gin.Context, eventID string) {
	if err := h.cache.InvalidateEventRelatedCache(c.Request.Context(), eventID); err != nil {
		h.logger.Warn("failed to invalidate event cache", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (h *EventHandler) observeCache(name string, hit bool, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
		h.logger.Warn("cache lookup failed", zap.String("cache", name), zap.Error(err))
	case hit:
		result = "hit"
	}
	h.metrics.CacheLookups.WithLabelValues(name, result).Inc()
}

// parseEventFilter reads the list filters from the query string. Dates may
// be RFC 3339 timestamps or plain YYYY-MM-DD days.
func parseEventFilter(c *gin.Context) (model.EventFilter, error) {
	var (
		filter model.EventFilter
		errs   apperror.ValidationErrors
	)

	filter.Name = strings.TrimSpace(c.Query("name"))
	filter.Venue = strings.TrimSpace(c.Query("venue"))
	filter.CategoryID = strings.TrimSpace(c.Query("category_id"))

	parseDate := func(field string) *time.Time {
		raw := c.Query(field)
		if raw == "" {
			return nil
		}
		for _, layout := range []string{time.RFC3339, time.DateOnly} {
			if t, err := time.Parse(layout, raw); err == nil {
				return &t
			}
		}
		errs = append(errs, apperror.FieldError{Field: field, Message: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"})
		return nil
	}
	parsePrice := func(field string) *float64 {
		raw := c.Query(field)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			errs = append(errs, apperror.FieldError{Field: field, Message: "must be a non-negative number"})
			return nil
		}
		return &v
	}
	parseInt := func(field string) int {
		raw := c.Query(field)
		if raw == "" {
			return 0
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			errs = append(errs, apperror.FieldError{Field: field, Message: "must be a non-negative integer"})
			return 0
		}
		return v
	}

	filter.DateFrom = parseDate("date_from")
	filter.DateTo = parseDate("date_to")
	filter.MinPrice = parsePrice("min_price")
	filter.MaxPrice = parsePrice("max_price")
	filter.Limit = parseInt("limit")
	filter.Offset = parseInt("offset")

	if len(errs) > 0 {
		return model.EventFilter{}, errs
	}
	return filter, nil
}
