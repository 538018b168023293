package service

import (
	"context"

	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService struct {
	store  repository.Store
	authz  BookingAuthorizer
	logger *zap.Logger
}

func NewBookingService(store repository.Store, authz BookingAuthorizer, logger *zap.Logger) *BookingService {
	return &BookingService{
		store:  store,
		authz:  authz,
		logger: logger.With(zap.String("component", "booking_service")),
	}
}

// WithStore returns a copy of the service bound to store, typically a
// transaction-scoped store handed out by repository.Store.WithTransaction.
func (s *BookingService) WithStore(store repository.Store) *BookingService {
	clone := *s
	clone.store = store
	return &clone
}

// CreateBooking books req.EventID for req.UserID. The user and event lookups
// and the insert share one transaction. Duplicate pairs are rejected by the
// store's unique index and reported as apperror.ErrAlreadyBooked.
func (s *BookingService) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, apperror.Invalid("user_id", "is required")
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.DefaultPaymentMethod
	}

	var booking *model.Booking
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Users().LockUser(ctx, req.UserID, repository.LockShare); err != nil {
			return notFoundAs(err, apperror.ErrUserNotFound)
		}
		if _, err := tx.Events().LockEvent(ctx, req.EventID, repository.LockShare); err != nil {
			return notFoundAs(err, apperror.ErrEventNotFound)
		}

		b := &model.Booking{
			ID:            uuid.NewString(),
			UserID:        req.UserID,
			EventID:       req.EventID,
			PaymentMethod: paymentMethod,
			Status:        model.BookingActive,
		}
		if err := tx.Bookings().CreateBooking(ctx, b); err != nil {
			return duplicateAs(err, apperror.ErrAlreadyBooked)
		}
		booking = b
		return nil
	})
	if err != nil {
		s.logger.Info("booking rejected",
			zap.String("user_id", req.UserID),
			zap.String("event_id", req.EventID),
			zap.Error(err))
		return nil, apperror.Failed(err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("user_id", booking.UserID),
		zap.String("event_id", booking.EventID))
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*model.BookingDetails, error) {
	booking, err := s.store.Bookings().GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Failed(notFoundAs(err, apperror.ErrBookingNotFound))
	}

	details, err := s.enrich(ctx, []model.Booking{*booking})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// GetUserBookings never reports an unknown user; it returns an empty list.
func (s *BookingService) GetUserBookings(ctx context.Context, userID string) ([]model.BookingDetails, error) {
	bookings, err := s.store.Bookings().ListBookings(ctx, model.BookingFilter{UserID: userID})
	if err != nil {
		return nil, apperror.Failed(err)
	}
	return s.enrich(ctx, bookings)
}

func (s *BookingService) GetAllBookings(ctx context.Context) ([]model.BookingDetails, error) {
	bookings, err := s.store.Bookings().ListBookings(ctx, model.BookingFilter{})
	if err != nil {
		return nil, apperror.Failed(err)
	}
	return s.enrich(ctx, bookings)
}

// UpdateBooking applies a partial update. A cancelled booking cannot be
// reactivated.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID string, patch model.UpdateBookingRequest) (*model.Booking, error) {
	if err := model.Validate(patch); err != nil {
		return nil, err
	}

	var updated *model.Booking
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		booking, err := tx.Bookings().GetBookingByID(ctx, bookingID)
		if err != nil {
			return notFoundAs(err, apperror.ErrBookingNotFound)
		}

		if patch.Status != nil {
			if !booking.Status.CanTransitionTo(*patch.Status) {
				return apperror.ErrInvalidTransition
			}
			booking.Status = *patch.Status
		}
		if patch.PaymentMethod != nil {
			booking.PaymentMethod = *patch.PaymentMethod
		}

		if err := tx.Bookings().UpdateBooking(ctx, booking); err != nil {
			return notFoundAs(err, apperror.ErrBookingNotFound)
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, apperror.Failed(err)
	}

	s.logger.Info("booking updated",
		zap.String("booking_id", updated.ID),
		zap.String("status", string(updated.Status)))
	return updated, nil
}

// DeleteBooking removes one booking after the authorizer accepts requester.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID string, requester model.Identity) error {
	booking, err := s.store.Bookings().GetBookingByID(ctx, bookingID)
	if err != nil {
		return apperror.Failed(notFoundAs(err, apperror.ErrBookingNotFound))
	}

	if err := s.authz.CanManageBooking(requester, booking); err != nil {
		return err
	}

	if err := s.store.Bookings().DeleteBooking(ctx, bookingID); err != nil {
		return apperror.Failed(notFoundAs(err, apperror.ErrBookingNotFound))
	}

	s.logger.Info("booking deleted",
		zap.String("booking_id", bookingID),
		zap.String("requested_by", requester.UserID))
	return nil
}

// DeleteAllUserBookings is idempotent; removing nothing is not an error.
func (s *BookingService) DeleteAllUserBookings(ctx context.Context, userID string) (int64, error) {
	return s.deleteBookingsOfUsers(ctx, []string{userID})
}

func (s *BookingService) DeleteAllBookings(ctx context.Context) (int64, error) {
	n, err := s.store.Bookings().DeleteAllBookings(ctx)
	if err != nil {
		return 0, apperror.Failed(err)
	}
	s.logger.Info("all bookings deleted", zap.Int64("count", n))
	return n, nil
}

func (s *BookingService) deleteBookingsOfUsers(ctx context.Context, userIDs []string) (int64, error) {
	n, err := s.store.Bookings().DeleteBookingsByUserIDs(ctx, userIDs)
	if err != nil {
		return 0, apperror.Failed(err)
	}
	return n, nil
}

func (s *BookingService) deleteBookingsOfEvents(ctx context.Context, eventIDs []string) (int64, error) {
	n, err := s.store.Bookings().DeleteBookingsByEventIDs(ctx, eventIDs)
	if err != nil {
		return 0, apperror.Failed(err)
	}
	return n, nil
}

// enrich joins users and events onto bookings with one batch lookup each.
func (s *BookingService) enrich(ctx context.Context, bookings []model.Booking) ([]model.BookingDetails, error) {
	details := make([]model.BookingDetails, 0, len(bookings))
	if len(bookings) == 0 {
		return details, nil
	}

	userIDs := make([]string, 0, len(bookings))
	eventIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		userIDs = append(userIDs, b.UserID)
		eventIDs = append(eventIDs, b.EventID)
	}

	users, err := s.store.Users().GetUsersByIDs(ctx, uniqueStrings(userIDs))
	if err != nil {
		return nil, apperror.Failed(err)
	}
	events, err := s.store.Events().GetEventsByIDs(ctx, uniqueStrings(eventIDs))
	if err != nil {
		return nil, apperror.Failed(err)
	}

	usersByID := make(map[string]*model.UserSummary, len(users))
	for i := range users {
		usersByID[users[i].ID] = users[i].ToUserSummary()
	}
	eventsByID := make(map[string]*model.EventSummary, len(events))
	for i := range events {
		eventsByID[events[i].ID] = events[i].ToEventSummary()
	}

	for _, b := range bookings {
		details = append(details, model.BookingDetails{
			Booking: b,
			User:    usersByID[b.UserID],
			Event:   eventsByID[b.EventID],
		})
	}
	return details, nil
}
