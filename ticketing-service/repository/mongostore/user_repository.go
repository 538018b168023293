package mongostore

import (
	"context"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type UserRepository struct {
	col  *mongo.Collection
	inTx bool
}

func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	ts := now()
	user.CreatedAt, user.UpdatedAt = ts, ts
	_, err := r.col.InsertOne(ctx, user)
	return wrapError(err)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, r.col, byID(id))
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, r.col, bson.D{{Key: "email", Value: email}})
}

func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	return findMany[model.User](ctx, r.col, inIDs("_id", ids))
}

func (r *UserRepository) LockUser(ctx context.Context, id string, _ repository.LockMode) (*model.User, error) {
	if !r.inTx {
		return r.GetUserByID(ctx, id)
	}
	return lockDocument[model.User](ctx, r.col, id)
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return findMany[model.User](ctx, r.col, bson.D{}, opts)
}

func (r *UserRepository) ListUserIDsByRole(ctx context.Context, role model.Role) ([]string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return distinctIDs(ctx, r.col, bson.D{{Key: "role", Value: role}}, opts)
}

func (r *UserRepository) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = now()
	return replaceByID(ctx, r.col, user.ID, user)
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r *UserRepository) DeleteUsersByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return deleteMany(ctx, r.col, inIDs("_id", ids))
}
