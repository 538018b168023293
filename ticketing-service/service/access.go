package service

import (
	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/model"
)

// BookingAuthorizer decides whether a caller may act on bookings.
type BookingAuthorizer interface {
	// CanManageBooking allows reading, updating or deleting one booking.
	CanManageBooking(requester model.Identity, booking *model.Booking) error
	// CanActForUser allows booking for, or listing the bookings of, userID.
	CanActForUser(requester model.Identity, userID string) error
}

// OwnerOrAdmin lets admins act on anything and users act on their own records.
type OwnerOrAdmin struct{}

func (OwnerOrAdmin) CanManageBooking(requester model.Identity, booking *model.Booking) error {
	return OwnerOrAdmin{}.CanActForUser(requester, booking.UserID)
}

func (OwnerOrAdmin) CanActForUser(requester model.Identity, userID string) error {
	if requester.UserID == "" {
		return apperror.ErrUnauthorized
	}
	if requester.IsAdmin() || requester.UserID == userID {
		return nil
	}
	return apperror.ErrForbidden
}
