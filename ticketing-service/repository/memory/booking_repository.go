package memory

import (
	"context"
	"sort"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
)

type bookingRepository struct {
	s *Store
}

func (r *bookingRepository) CreateBooking(ctx context.Context, booking *model.Booking) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.bookings[booking.ID]; ok {
			return repository.ErrDuplicate
		}
		// unique (event_id, user_id)
		for _, b := range d.bookings {
			if b.EventID == booking.EventID && b.UserID == booking.UserID {
				return repository.ErrDuplicate
			}
		}
		r.s.stamp(&booking.CreatedAt, &booking.UpdatedAt)
		d.bookings[booking.ID] = *booking
		return nil
	})
}

func (r *bookingRepository) GetBookingByID(ctx context.Context, id string) (*model.Booking, error) {
	var out *model.Booking
	err := r.s.read(ctx, func(d *state) error {
		b, ok := d.bookings[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bookingRepository) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	out := []model.Booking{}
	err := r.s.read(ctx, func(d *state) error {
		for _, b := range d.bookings {
			if filter.UserID != "" && b.UserID != filter.UserID {
				continue
			}
			if filter.EventID != "" && b.EventID != filter.EventID {
				continue
			}
			if filter.Status != "" && b.Status != filter.Status {
				continue
			}
			out = append(out, b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r *bookingRepository) UpdateBooking(ctx context.Context, booking *model.Booking) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.bookings[booking.ID]
		if !ok {
			return repository.ErrNotFound
		}
		// the (event, user) pair is immutable
		booking.UserID = existing.UserID
		booking.EventID = existing.EventID
		booking.CreatedAt = existing.CreatedAt
		r.s.stamp(&booking.CreatedAt, &booking.UpdatedAt)
		d.bookings[booking.ID] = *booking
		return nil
	})
}

func (r *bookingRepository) DeleteBooking(ctx context.Context, id string) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.bookings[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.bookings, id)
		return nil
	})
}

func (r *bookingRepository) deleteWhere(ctx context.Context, match func(b model.Booking) bool) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *state) error {
		for id, b := range d.bookings {
			if match(b) {
				delete(d.bookings, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *bookingRepository) DeleteBookingsByUserIDs(ctx context.Context, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	set := idSet(userIDs)
	return r.deleteWhere(ctx, func(b model.Booking) bool {
		_, ok := set[b.UserID]
		return ok
	})
}

func (r *bookingRepository) DeleteBookingsByEventIDs(ctx context.Context, eventIDs []string) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	set := idSet(eventIDs)
	return r.deleteWhere(ctx, func(b model.Booking) bool {
		_, ok := set[b.EventID]
		return ok
	})
}

func (r *bookingRepository) DeleteAllBookings(ctx context.Context) (int64, error) {
	return r.deleteWhere(ctx, func(model.Booking) bool { return true })
}
