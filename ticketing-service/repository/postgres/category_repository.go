package postgres

import (
	"context"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	return translateError(r.db.WithContext(ctx).Create(category).Error)
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, translateError(err)
	}
	return &category, nil
}

func (r *CategoryRepository) GetCategoriesByIDs(ctx context.Context, ids []string) ([]model.Category, error) {
	categories := []model.Category{}
	if len(ids) == 0 {
		return categories, nil
	}
	if err := r.db.WithContext(ctx).Where("id = ANY(?)", pq.Array(ids)).Find(&categories).Error; err != nil {
		return nil, translateError(err)
	}
	return categories, nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, translateError(err)
	}
	return categories, nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, category *model.Category) error {
	result := r.db.WithContext(ctx).
		Model(category).
		Select("*").
		Omit("id", "created_at").
		Updates(category)
	return affected(result)
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Category{}))
}

func (r *CategoryRepository) DeleteCategoriesByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id = ANY(?)", pq.Array(ids)).Delete(&model.Category{})
	return result.RowsAffected, translateError(result.Error)
}
