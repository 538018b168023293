package cache

import (
	"context"
	"time"

	"github.com/eventix/ticketing/ticketing-service/model"
)

// CacheRepository caches read-mostly event and category responses. Getters
// return nil and no error on a miss.
type CacheRepository interface {
	// Event operations
	GetEvent(ctx context.Context, eventID string) (*model.EventResponse, error)
	SetEvent(ctx context.Context, eventID string, event *model.EventResponse, ttl time.Duration) error
	InvalidateEvent(ctx context.Context, eventID string) error

	// Event list operations
	GetEventList(ctx context.Context, filterKey string) (*model.EventListResponse, error)
	SetEventList(ctx context.Context, filterKey string, response *model.EventListResponse, ttl time.Duration) error
	InvalidateEventList(ctx context.Context, pattern string) error

	// Category operations
	GetCategories(ctx context.Context) ([]model.CategoryResponse, error)
	SetCategories(ctx context.Context, categories []model.CategoryResponse, ttl time.Duration) error
	InvalidateCategories(ctx context.Context) error

	// Health check
	Ping(ctx context.Context) error

	// Cache invalidation patterns
	InvalidateEventRelatedCache(ctx context.Context, eventID string) error
	InvalidateAllEvents(ctx context.Context) error
}

// RateLimiter counts hits per key in fixed windows.
type RateLimiter interface {
	// Allow records one hit for key and reports whether it is within limit.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
