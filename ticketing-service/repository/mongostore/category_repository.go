package mongostore

import (
	"context"

	"github.com/eventix/ticketing/ticketing-service/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type CategoryRepository struct {
	col *mongo.Collection
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	ts := now()
	category.CreatedAt, category.UpdatedAt = ts, ts
	_, err := r.col.InsertOne(ctx, category)
	return wrapError(err)
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	return findOne[model.Category](ctx, r.col, byID(id))
}

func (r *CategoryRepository) GetCategoriesByIDs(ctx context.Context, ids []string) ([]model.Category, error) {
	if len(ids) == 0 {
		return []model.Category{}, nil
	}
	return findMany[model.Category](ctx, r.col, inIDs("_id", ids))
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	return findMany[model.Category](ctx, r.col, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, category *model.Category) error {
	category.UpdatedAt = now()
	return replaceByID(ctx, r.col, category.ID, category)
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r *CategoryRepository) DeleteCategoriesByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return deleteMany(ctx, r.col, inIDs("_id", ids))
}
