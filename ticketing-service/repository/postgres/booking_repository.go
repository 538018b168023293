package postgres

import (
	"context"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

// CreateBooking relies on idx_bookings_event_user; a second booking for the
// same pair fails with repository.ErrDuplicate.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking *model.Booking) error {
	return translateError(r.db.WithContext(ctx).Create(booking).Error)
}

func (r *BookingRepository) GetBookingByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, translateError(err)
	}
	return &booking, nil
}

func (r *BookingRepository) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	bookings := []model.Booking{}

	query := r.db.WithContext(ctx).Model(&model.Booking{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.EventID != "" {
		query = query.Where("event_id = ?", filter.EventID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Order("created_at ASC, id ASC").Find(&bookings).Error; err != nil {
		return nil, translateError(err)
	}
	return bookings, nil
}

// UpdateBooking writes the mutable columns only; the (event, user) pair
// never changes.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking *model.Booking) error {
	result := r.db.WithContext(ctx).
		Model(booking).
		Select("payment_method", "status", "updated_at").
		Updates(booking)
	return affected(result)
}

func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Booking{}))
}

func (r *BookingRepository) DeleteBookingsByUserIDs(ctx context.Context, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("user_id = ANY(?)", pq.Array(userIDs)).Delete(&model.Booking{})
	return result.RowsAffected, translateError(result.Error)
}

func (r *BookingRepository) DeleteBookingsByEventIDs(ctx context.Context, eventIDs []string) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("event_id = ANY(?)", pq.Array(eventIDs)).Delete(&model.Booking{})
	return result.RowsAffected, translateError(result.Error)
}

func (r *BookingRepository) DeleteAllBookings(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.Booking{})
	return result.RowsAffected, translateError(result.Error)
}
