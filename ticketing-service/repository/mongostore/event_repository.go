package mongostore

import (
	"context"
	"regexp"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type EventRepository struct {
	col  *mongo.Collection
	inTx bool
}

func containsInsensitive(s string) bson.D {
	return bson.D{
		{Key: "$regex", Value: regexp.QuoteMeta(s)},
		{Key: "$options", Value: "i"},
	}
}

func eventFilter(f model.EventFilter) bson.D {
	filter := bson.D{}
	if f.Name != "" {
		filter = append(filter, bson.E{Key: "name", Value: containsInsensitive(f.Name)})
	}
	if f.Venue != "" {
		filter = append(filter, bson.E{Key: "venue", Value: containsInsensitive(f.Venue)})
	}
	if f.CategoryID != "" {
		filter = append(filter, bson.E{Key: "category_id", Value: f.CategoryID})
	}

	date := bson.D{}
	if f.DateFrom != nil {
		date = append(date, bson.E{Key: "$gte", Value: *f.DateFrom})
	}
	if f.DateTo != nil {
		date = append(date, bson.E{Key: "$lte", Value: *f.DateTo})
	}
	if len(date) > 0 {
		filter = append(filter, bson.E{Key: "date", Value: date})
	}

	price := bson.D{}
	if f.MinPrice != nil {
		price = append(price, bson.E{Key: "$gte", Value: *f.MinPrice})
	}
	if f.MaxPrice != nil {
		price = append(price, bson.E{Key: "$lte", Value: *f.MaxPrice})
	}
	if len(price) > 0 {
		filter = append(filter, bson.E{Key: "price", Value: price})
	}
	return filter
}

func (r *EventRepository) CreateEvent(ctx context.Context, event *model.Event) error {
	ts := now()
	event.CreatedAt, event.UpdatedAt = ts, ts
	_, err := r.col.InsertOne(ctx, event)
	return wrapError(err)
}

func (r *EventRepository) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	return findOne[model.Event](ctx, r.col, byID(id))
}

func (r *EventRepository) GetEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error) {
	if len(ids) == 0 {
		return []model.Event{}, nil
	}
	return findMany[model.Event](ctx, r.col, inIDs("_id", ids))
}

func (r *EventRepository) LockEvent(ctx context.Context, id string, _ repository.LockMode) (*model.Event, error) {
	if !r.inTx {
		return r.GetEventByID(ctx, id)
	}
	return lockDocument[model.Event](ctx, r.col, id)
}

func (r *EventRepository) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	query := eventFilter(filter)

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "name", Value: 1}}).
		SetSkip(int64(filter.Offset))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	events, err := findMany[model.Event](ctx, r.col, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *EventRepository) ListEventIDs(ctx context.Context, filter model.EventFilter) ([]string, error) {
	return distinctIDs(ctx, r.col, eventFilter(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = now()
	return replaceByID(ctx, r.col, event.ID, event)
}

func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r *EventRepository) DeleteEventsByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return deleteMany(ctx, r.col, inIDs("_id", ids))
}

func (r *EventRepository) ClearCategory(ctx context.Context, categoryIDs []string) (int64, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	update := bson.D{
		{Key: "$unset", Value: bson.D{{Key: "category_id", Value: ""}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now()}}},
	}
	res, err := r.col.UpdateMany(ctx, inIDs("category_id", categoryIDs), update)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}
