package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/cache"
	"github.com/eventix/ticketing/ticketing-service/metrics"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	categories *service.CategoryService
	cache      cache.CacheRepository
	cacheTTL   time.Duration
	uploads    *imageUploader
	activity   *activityRecorder
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewCategoryHandler(
	categories *service.CategoryService,
	cache cache.CacheRepository,
	cacheTTL time.Duration,
	uploads *imageUploader,
	recorder *activityRecorder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		cache:      cache,
		cacheTTL:   cacheTTL,
		uploads:    uploads,
		activity:   recorder,
		metrics:    m,
		logger:     logger,
	}
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()

	cached, err := h.cache.GetCategories(ctx)
	switch {
	case err != nil:
		h.logger.Warn("cache lookup failed", zap.String("cache", "categories"), zap.Error(err))
		h.metrics.CacheLookups.WithLabelValues("categories", "error").Inc()
	case cached != nil:
		h.metrics.CacheLookups.WithLabelValues("categories", "hit").Inc()
		c.JSON(http.StatusOK, cached)
		return
	default:
		h.metrics.CacheLookups.WithLabelValues("categories", "miss").Inc()
	}

	categories, err := h.categories.ListCategories(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	responses := make([]model.CategoryResponse, 0, len(categories))
	for i := range categories {
		responses = append(responses, categories[i].ToCategoryResponse())
	}

	if err := h.cache.SetCategories(ctx, responses, h.cacheTTL); err != nil {
		h.logger.Warn("failed to cache categories", zap.Error(err))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	categoryID, ok := pathID(c, "categoryId")
	if !ok {
		return
	}

	category, err := h.categories.GetCategory(c.Request.Context(), categoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, category.ToCategoryResponse())
}

// GetCategoryEvents returns a category together with its events.
func (h *CategoryHandler) GetCategoryEvents(c *gin.Context) {
	categoryID, ok := pathID(c, "categoryId")
	if !ok {
		return
	}

	response, err := h.categories.GetCategoryEvents(c.Request.Context(), categoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req model.CreateCategoryRequest
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
		image, err := h.uploads.save(c, "categories")
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		req.Image = image
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), req)
	if err != nil {
		h.uploads.remove(c.Request.Context(), req.Image)
		respondError(c, h.logger, err)
		return
	}

	h.invalidate(c, false)
	c.JSON(http.StatusCreated, category.ToCategoryResponse())
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	categoryID, ok := pathID(c, "categoryId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var (
		req      model.UpdateCategoryRequest
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
		current, err := h.categories.GetCategory(ctx, categoryID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		image, err := h.uploads.save(c, "categories")
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

	category, err := h.categories.UpdateCategory(ctx, categoryID, req)
	if err != nil {
		if req.Image != nil {
			h.uploads.remove(ctx, *req.Image)
		}
		respondError(c, h.logger, err)
		return
	}

	h.uploads.remove(ctx, oldImage)
	h.invalidate(c, true)
	c.JSON(http.StatusOK, category.ToCategoryResponse())
}

// DeleteCategory removes the category and detaches its events.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	categoryID, ok := pathID(c, "categoryId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	current, err := h.categories.GetCategory(ctx, categoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.categories.DeleteCategory(ctx, categoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.uploads.remove(ctx, current.Image)
	h.invalidate(c, true)
	h.activity.record(c, activity.CategoryDeleted, categoryID, result)
	c.Status(http.StatusNoContent)
}

// DeleteCategories removes the categories listed in ?category_ids=, or every
// category when the parameter is absent.
func (h *CategoryHandler) DeleteCategories(c *gin.Context) {
	ids, err := parseIDList(c.Query("category_ids"), "category_ids")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var result *model.CascadeResult
	if ids == nil {
		result, err = h.categories.DeleteAllCategories(c.Request.Context())
	} else {
		result, err = h.categories.DeleteCategories(c.Request.Context(), ids)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.invalidate(c, true)
	h.activity.record(c, activity.CategoriesPurged, "categories", result)
	c.Status(http.StatusNoContent)
}

// invalidate drops the cached category list, and the cached events too when
// their embedded category may have changed.
func (h *CategoryHandler) invalidate(c *gin.Context, events bool) {
	ctx := c.Request.Context()
	if err := h.cache.InvalidateCategories(ctx); err != nil {
		h.logger.Warn("failed to invalidate category cache", zap.Error(err))
	}
	if !events {
		return
	}
	if err := h.cache.InvalidateAllEvents(ctx); err != nil {
		h.logger.Warn("failed to invalidate event cache", zap.Error(err))
	}
}

// parseIDList splits a comma separated list of uuids. An empty value yields
// nil.
func parseIDList(raw, field string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	ids := make([]string, 0, strings.Count(raw, ",")+1)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, apperror.Invalid(field, "must be a comma separated list of ids")
		}
		ids = append(ids, id.String())
	}
	return ids, nil
}
