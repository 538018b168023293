package cache

import (
	"context"
	"time"

	"github.com/eventix/ticketing/ticketing-service/model"
)

// Noop is used when Redis is disabled. Every lookup misses and every
// limiter check passes.
type Noop struct{}

var (
	_ CacheRepository = Noop{}
	_ RateLimiter     = Noop{}
)

func (Noop) GetEvent(context.Context, string) (*model.EventResponse, error) { return nil, nil }

func (Noop) SetEvent(context.Context, string, *model.EventResponse, time.Duration) error { return nil }

func (Noop) InvalidateEvent(context.Context, string) error { return nil }

func (Noop) GetEventList(context.Context, string) (*model.EventListResponse, error) { return nil, nil }

func (Noop) SetEventList(context.Context, string, *model.EventListResponse, time.Duration) error {
	return nil
}

func (Noop) InvalidateEventList(context.Context, string) error { return nil }

func (Noop) GetCategories(context.Context) ([]model.CategoryResponse, error) { return nil, nil }

func (Noop) SetCategories(context.Context, []model.CategoryResponse, time.Duration) error { return nil }

func (Noop) InvalidateCategories(context.Context) error { return nil }

func (Noop) Ping(context.Context) error { return nil }

func (Noop) InvalidateEventRelatedCache(context.Context, string) error { return nil }

func (Noop) InvalidateAllEvents(context.Context) error { return nil }

func (Noop) Allow(context.Context, string, int, time.Duration) (bool, error) { return true, nil }
