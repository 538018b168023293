package service

import (
	"context"
	"errors"
	"strings"

	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventService struct {
	store   repository.Store
	cascade *CascadeCoordinator
	logger  *zap.Logger
}

func NewEventService(store repository.Store, cascade *CascadeCoordinator, logger *zap.Logger) *EventService {
	return &EventService{
		store:   store,
		cascade: cascade,
		logger:  logger.With(zap.String("component", "event_service")),
	}
}

// CreateEvent stores a new event. A given category must exist.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.EventResponse, error) {
	req = req.Normalized()
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	event := &model.Event{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date.UTC(),
		Venue:       req.Venue,
		Price:       req.Price,
		Image:       req.Image,
	}

	var category *model.Category
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if category, err = resolveCategory(ctx, tx, req.CategoryID); err != nil {
			return err
		}
		if category != nil {
			event.CategoryID = &category.ID
		}
		return duplicateAs(tx.Events().CreateEvent(ctx, event), apperror.ErrEventNameTaken)
	})
	if err != nil {
		return nil, apperror.Failed(err)
	}

	s.logger.Info("event created", zap.String("event_id", event.ID), zap.String("name", event.Name))
	resp := event.ToEventResponse(category)
	return &resp, nil
}

// GetEvent returns the event with its category populated.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*model.EventResponse, error) {
	event, err := s.store.Events().GetEventByID(ctx, eventID)
	if err != nil {
		return nil, apperror.Failed(notFoundAs(err, apperror.ErrEventNotFound))
	}

	responses, err := s.withCategories(ctx, []model.Event{*event})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// ListEvents pages through events matching filter. Limit defaults to
// model.DefaultPageSize and is capped at model.MaxPageSize.
func (s *EventService) ListEvents(ctx context.Context, filter model.EventFilter) (*model.EventListResponse, error) {
	filter = NormalizePage(filter)

	events, total, err := s.store.Events().ListEvents(ctx, filter)
	if err != nil {
		return nil, apperror.Failed(err)
	}

	responses, err := s.withCategories(ctx, events)
	if err != nil {
		return nil, err
	}

	return &model.EventListResponse{
		Events: responses,
		Pagination: model.Pagination{
			Total:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	}, nil
}

// NormalizePage applies the default and maximum page sizes to filter.
func NormalizePage(filter model.EventFilter) model.EventFilter {
	if filter.Limit <= 0 {
		filter.Limit = model.DefaultPageSize
	}
	if filter.Limit > model.MaxPageSize {
		filter.Limit = model.MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}

// ListEventsByCategory returns every event of one category.
func (s *EventService) ListEventsByCategory(ctx context.Context, categoryID string) ([]model.EventResponse, error) {
	category, err := s.store.Categories().GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, apperror.Failed(notFoundAs(err, apperror.ErrCategoryNotFound))
	}

	events, _, err := s.store.Events().ListEvents(ctx, model.EventFilter{CategoryID: category.ID})
	if err != nil {
		return nil, apperror.Failed(err)
	}

	responses := make([]model.EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToEventResponse(category))
	}
	return responses, nil
}

// UpdateEvent applies a partial update. An empty CategoryID clears the
// category reference.
func (s *EventService) UpdateEvent(ctx context.Context, eventID string, patch model.UpdateEventRequest) (*model.EventResponse, error) {
	patch = patch.Normalized()
	if err := model.Validate(patch); err != nil {
		return nil, err
	}

	var (
		event    *model.Event
		category *model.Category
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		event, err = tx.Events().GetEventByID(ctx, eventID)
		if err != nil {
			return notFoundAs(err, apperror.ErrEventNotFound)
		}

		if patch.Name != nil {
			event.Name = *patch.Name
		}
		if patch.Description != nil {
			event.Description = *patch.Description
		}
		if patch.Date != nil {
			event.Date = patch.Date.UTC()
		}
		if patch.Venue != nil {
			event.Venue = *patch.Venue
		}
		if patch.Price != nil {
			event.Price = *patch.Price
		}
		if patch.Image != nil {
			event.Image = *patch.Image
		}

		switch {
		case patch.CategoryID != nil:
			if category, err = resolveCategory(ctx, tx, patch.CategoryID); err != nil {
				return err
			}
			event.CategoryID = nil
			if category != nil {
				event.CategoryID = &category.ID
			}
		case event.CategoryID != nil:
			category, err = tx.Categories().GetCategoryByID(ctx, *event.CategoryID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}

		err = tx.Events().UpdateEvent(ctx, event)
		return duplicateAs(notFoundAs(err, apperror.ErrEventNotFound), apperror.ErrEventNameTaken)
	})
	if err != nil {
		return nil, apperror.Failed(err)
	}

	s.logger.Info("event updated", zap.String("event_id", event.ID))
	resp := event.ToEventResponse(category)
	return &resp, nil
}

// SetEventImage replaces the stored image path of an event.
func (s *EventService) SetEventImage(ctx context.Context, eventID, image string) (*model.EventResponse, error) {
	return s.UpdateEvent(ctx, eventID, model.UpdateEventRequest{Image: &image})
}

// DeleteEvent removes the event together with its bookings.
func (s *EventService) DeleteEvent(ctx context.Context, eventID string) (*model.CascadeResult, error) {
	return s.cascade.OnDeleteEvent(ctx, eventID)
}

// DeleteEvents removes every event matching filter together with its bookings.
func (s *EventService) DeleteEvents(ctx context.Context, filter model.EventFilter) (*model.CascadeResult, error) {
	return s.cascade.OnDeleteEvents(ctx, filter)
}

// withCategories converts events and attaches their categories with one
// batch lookup.
func (s *EventService) withCategories(ctx context.Context, events []model.Event) ([]model.EventResponse, error) {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		if e.CategoryID != nil {
			ids = append(ids, *e.CategoryID)
		}
	}

	byID := make(map[string]*model.Category, len(ids))
	if len(ids) > 0 {
		categories, err := s.store.Categories().GetCategoriesByIDs(ctx, uniqueStrings(ids))
		if err != nil {
			return nil, apperror.Failed(err)
		}
		for i := range categories {
			byID[categories[i].ID] = &categories[i]
		}
	}

	responses := make([]model.EventResponse, 0, len(events))
	for i := range events {
		var category *model.Category
		if events[i].CategoryID != nil {
			category = byID[*events[i].CategoryID]
		}
		responses = append(responses, events[i].ToEventResponse(category))
	}
	return responses, nil
}

// resolveCategory loads the category named by id. A nil or empty id yields
// no category; an unknown one is a validation failure on category_id.
func resolveCategory(ctx context.Context, store repository.Store, id *string) (*model.Category, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil, nil
	}
	category, err := store.Categories().GetCategoryByID(ctx, strings.TrimSpace(*id))
	if err != nil {
		return nil, notFoundAs(err, apperror.Invalid("category_id", "category does not exist"))
	}
	return category, nil
}
