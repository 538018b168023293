package service

import (
	"context"

	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryService struct {
	store   repository.Store
	events  *EventService
	cascade *CascadeCoordinator
	logger  *zap.Logger
}

func NewCategoryService(store repository.Store, events *EventService, cascade *CascadeCoordinator, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		store:   store,
		events:  events,
		cascade: cascade,
		logger:  logger.With(zap.String("component", "category_service")),
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, req model.CreateCategoryRequest) (*model.Category, error) {
	req = req.Normalized()
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	category := &model.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
	}
	category.RefreshSlug()

	if err := s.store.Categories().CreateCategory(ctx, category); err != nil {
		return nil, apperror.Failed(duplicateAs(err, apperror.ErrCategoryNameTaken))
	}

	s.logger.Info("category created", zap.String("category_id", category.ID), zap.String("slug", category.Slug))
	return category, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, categoryID string) (*model.Category, error) {
	category, err := s.store.Categories().GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, apperror.Failed(notFoundAs(err, apperror.ErrCategoryNotFound))
	}
	return category, nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.store.Categories().ListCategories(ctx)
	if err != nil {
		return nil, apperror.Failed(err)
	}
	return categories, nil
}

// UpdateCategory applies a partial update and recomputes the slug.
func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID string, patch model.UpdateCategoryRequest) (*model.Category, error) {
	patch = patch.Normalized()
	if err := model.Validate(patch); err != nil {
		return nil, err
	}

	category, err := s.store.Categories().GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, apperror.Failed(notFoundAs(err, apperror.ErrCategoryNotFound))
	}

	if patch.Name != nil {
		category.Name = *patch.Name
	}
	if patch.Description != nil {
		category.Description = *patch.Description
	}
	if patch.Image != nil {
		category.Image = *patch.Image
	}
	category.RefreshSlug()

	if err := s.store.Categories().UpdateCategory(ctx, category); err != nil {
		err = notFoundAs(err, apperror.ErrCategoryNotFound)
		return nil, apperror.Failed(duplicateAs(err, apperror.ErrCategoryNameTaken))
	}

	s.logger.Info("category updated", zap.String("category_id", category.ID))
	return category, nil
}

// SetCategoryImage replaces the stored image path of a category.
func (s *CategoryService) SetCategoryImage(ctx context.Context, categoryID, image string) (*model.Category, error) {
	return s.UpdateCategory(ctx, categoryID, model.UpdateCategoryRequest{Image: &image})
}

// GetCategoryEvents returns the category and every event that references it.
func (s *CategoryService) GetCategoryEvents(ctx context.Context, categoryID string) (*model.CategoryEventsResponse, error) {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListEventsByCategory(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	return &model.CategoryEventsResponse{
		Category: category.ToCategoryResponse(),
		Events:   events,
	}, nil
}

// DeleteCategory removes the category and clears it from its events.
func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID string) (*model.CascadeResult, error) {
	return s.cascade.OnDeleteCategory(ctx, categoryID)
}

// DeleteCategories removes the given categories; unknown ids are skipped.
func (s *CategoryService) DeleteCategories(ctx context.Context, ids []string) (*model.CascadeResult, error) {
	if ids == nil {
		ids = []string{}
	}
	return s.cascade.OnDeleteCategories(ctx, ids)
}

func (s *CategoryService) DeleteAllCategories(ctx context.Context) (*model.CascadeResult, error) {
	return s.cascade.OnDeleteCategories(ctx, nil)
}
