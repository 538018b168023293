package mongostore

import (
	"context"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type BookingRepository struct {
	col *mongo.Collection
}

// CreateBooking relies on the unique {event_id, user_id} index.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking *model.Booking) error {
	ts := now()
	booking.CreatedAt, booking.UpdatedAt = ts, ts
	_, err := r.col.InsertOne(ctx, booking)
	return wrapError(err)
}

func (r *BookingRepository) GetBookingByID(ctx context.Context, id string) (*model.Booking, error) {
	return findOne[model.Booking](ctx, r.col, byID(id))
}

func (r *BookingRepository) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	query := bson.D{}
	if filter.UserID != "" {
		query = append(query, bson.E{Key: "user_id", Value: filter.UserID})
	}
	if filter.EventID != "" {
		query = append(query, bson.E{Key: "event_id", Value: filter.EventID})
	}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return findMany[model.Booking](ctx, r.col, query, opts)
}

func (r *BookingRepository) UpdateBooking(ctx context.Context, booking *model.Booking) error {
	booking.UpdatedAt = now()
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "payment_method", Value: booking.PaymentMethod},
		{Key: "status", Value: booking.Status},
		{Key: "updated_at", Value: booking.UpdatedAt},
	}}}
	res, err := r.col.UpdateOne(ctx, byID(booking.ID), update)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r *BookingRepository) DeleteBookingsByUserIDs(ctx context.Context, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	return deleteMany(ctx, r.col, inIDs("user_id", userIDs))
}

func (r *BookingRepository) DeleteBookingsByEventIDs(ctx context.Context, eventIDs []string) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	return deleteMany(ctx, r.col, inIDs("event_id", eventIDs))
}

func (r *BookingRepository) DeleteAllBookings(ctx context.Context) (int64, error) {
	return deleteMany(ctx, r.col, bson.D{})
}
