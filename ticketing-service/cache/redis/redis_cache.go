package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eventix/ticketing/ticketing-service/cache"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

type RedisCacheRepository struct {
	client *redis.Client
}

var (
	_ cache.CacheRepository = (*RedisCacheRepository)(nil)
	_ cache.RateLimiter     = (*RedisCacheRepository)(nil)
)

func NewRedisCacheRepository(ctx context.Context, addr, password string, db int) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCacheRepository{client: client}, nil
}

func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// Cache key generators
func eventKey(eventID string) string {
	return fmt.Sprintf("event:%s:details", eventID)
}

func eventListKey(filterKey string) string {
	return fmt.Sprintf("events:list:%s", filterKey)
}

const categoriesKey = "categories:all"

func rateLimitKey(key string, window time.Duration, now time.Time) string {
	bucket := now.UnixNano() / int64(window)
	return fmt.Sprintf("ratelimit:%s:%d", key, bucket)
}

// Event details caching
func (r *RedisCacheRepository) GetEvent(ctx context.Context, eventID string) (*model.EventResponse, error) {
	var event model.EventResponse
	ok, err := r.getJSON(ctx, eventKey(eventID), &event)
	if err != nil || !ok {
		return nil, err
	}
	return &event, nil
}

func (r *RedisCacheRepository) SetEvent(ctx context.Context, eventID string, event *model.EventResponse, ttl time.Duration) error {
	return r.setJSON(ctx, eventKey(eventID), event, ttl)
}

func (r *RedisCacheRepository) InvalidateEvent(ctx context.Context, eventID string) error {
	return r.client.Del(ctx, eventKey(eventID)).Err()
}

// Event list caching
func (r *RedisCacheRepository) GetEventList(ctx context.Context, filterKey string) (*model.EventListResponse, error) {
	var list model.EventListResponse
	ok, err := r.getJSON(ctx, eventListKey(filterKey), &list)
	if err != nil || !ok {
		return nil, err
	}
	return &list, nil
}

func (r *RedisCacheRepository) SetEventList(ctx context.Context, filterKey string, response *model.EventListResponse, ttl time.Duration) error {
	return r.setJSON(ctx, eventListKey(filterKey), response, ttl)
}

func (r *RedisCacheRepository) InvalidateEventList(ctx context.Context, pattern string) error {
	return r.deletePattern(ctx, eventListKey(pattern))
}

// Category caching
func (r *RedisCacheRepository) GetCategories(ctx context.Context) ([]model.CategoryResponse, error) {
	var categories []model.CategoryResponse
	ok, err := r.getJSON(ctx, categoriesKey, &categories)
	if err != nil || !ok {
		return nil, err
	}
	return categories, nil
}

func (r *RedisCacheRepository) SetCategories(ctx context.Context, categories []model.CategoryResponse, ttl time.Duration) error {
	return r.setJSON(ctx, categoriesKey, categories, ttl)
}

func (r *RedisCacheRepository) InvalidateCategories(ctx context.Context) error {
	return r.client.Del(ctx, categoriesKey).Err()
}

// Health check
func (r *RedisCacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// InvalidateEventRelatedCache drops the event details and every cached list,
// since any list may contain the event.
func (r *RedisCacheRepository) InvalidateEventRelatedCache(ctx context.Context, eventID string) error {
	if err := r.InvalidateEvent(ctx, eventID); err != nil {
		return err
	}
	return r.InvalidateEventList(ctx, "*")
}

// InvalidateAllEvents drops every cached event and list. Category changes
// use it because event responses embed their category.
func (r *RedisCacheRepository) InvalidateAllEvents(ctx context.Context) error {
	if err := r.deletePattern(ctx, eventKey("*")); err != nil {
		return err
	}
	return r.InvalidateEventList(ctx, "*")
}

// Allow implements a fixed-window counter: INCR the window's key and set its
// expiry on the first hit.
func (r *RedisCacheRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := rateLimitKey(key, window, time.Now())

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= int64(limit), nil
}

func (r *RedisCacheRepository) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisCacheRepository) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// deletePattern removes matching keys in SCAN batches.
func (r *RedisCacheRepository) deletePattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// GenerateFilterKey builds a stable cache key for a filtered event list.
func GenerateFilterKey(filter model.EventFilter) string {
	var parts []string

	if filter.Name != "" {
		parts = append(parts, "name:"+strings.ToLower(filter.Name))
	}
	if filter.Venue != "" {
		parts = append(parts, "venue:"+strings.ToLower(filter.Venue))
	}
	if filter.CategoryID != "" {
		parts = append(parts, "cat:"+filter.CategoryID)
	}
	if filter.DateFrom != nil {
		parts = append(parts, "from:"+filter.DateFrom.UTC().Format(time.RFC3339))
	}
	if filter.DateTo != nil {
		parts = append(parts, "to:"+filter.DateTo.UTC().Format(time.RFC3339))
	}
	if filter.MinPrice != nil {
		parts = append(parts, "min:"+strconv.FormatFloat(*filter.MinPrice, 'f', -1, 64))
	}
	if filter.MaxPrice != nil {
		parts = append(parts, "max:"+strconv.FormatFloat(*filter.MaxPrice, 'f', -1, 64))
	}

	parts = append(parts, fmt.Sprintf("limit:%d", filter.Limit))
	parts = append(parts, fmt.Sprintf("offset:%d", filter.Offset))

	return strings.Join(parts, ":")
}
