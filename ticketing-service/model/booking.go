package model

import "time"

type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "Credit Card"
	PaymentPaypal       PaymentMethod = "Paypal"
	PaymentVodafoneCash PaymentMethod = "Vodafone Cash"

	DefaultPaymentMethod = PaymentCreditCard
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCreditCard, PaymentPaypal, PaymentVodafoneCash:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	return s == BookingActive || s == BookingCancelled
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Cancelled bookings stay cancelled; repeating the current status is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	return s == BookingActive && next == BookingCancelled
}

// ===============================
// Database Entities (Internal)
// ===============================

// Booking represents the booking entity in the database. The pair
// (EventID, UserID) is unique.
type Booking struct {
	ID            string        `gorm:"type:text;primaryKey" bson:"_id"`
	UserID        string        `gorm:"type:text;not null;uniqueIndex:idx_bookings_event_user,priority:2;index" bson:"user_id"`
	EventID       string        `gorm:"type:text;not null;uniqueIndex:idx_bookings_event_user,priority:1" bson:"event_id"`
	PaymentMethod PaymentMethod `gorm:"type:text;not null" bson:"payment_method"`
	Status        BookingStatus `gorm:"type:text;not null;index" bson:"status"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

func (b *Booking) ToBookingResponse() BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		EventID:       b.EventID,
		PaymentMethod: b.PaymentMethod,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// BookingDetails is a booking joined with its user and event at read time.
// A summary is nil when the referenced record no longer exists.
type BookingDetails struct {
	Booking
	User  *UserSummary
	Event *EventSummary
}

func (d *BookingDetails) ToBookingDetailsResponse() BookingDetailsResponse {
	return BookingDetailsResponse{
		ID:            d.ID,
		User:          d.User,
		Event:         d.Event,
		PaymentMethod: d.PaymentMethod,
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// ===============================
// Repository DTOs (Internal)
// ===============================

// BookingFilter selects bookings; empty fields match everything.
type BookingFilter struct {
	UserID  string
	EventID string
	Status  BookingStatus
}

// CascadeResult reports what a cascading delete removed.
type CascadeResult struct {
	ParentsDeleted  int64 `json:"parents_deleted"`
	BookingsDeleted int64 `json:"bookings_deleted"`
	EventsDetached  int64 `json:"events_detached,omitempty"`
}

// ===============================
// API DTOs (External)
// ===============================

// CreateBookingRequest creates a booking. An empty UserID means the caller.
type CreateBookingRequest struct {
	UserID        string        `json:"user_id" validate:"omitempty,uuid"`
	EventID       string        `json:"event_id" validate:"required,uuid"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"omitempty,payment_method"`
}

// UpdateBookingRequest is a partial update of a booking.
type UpdateBookingRequest struct {
	Status        *BookingStatus `json:"status" validate:"omitempty,oneof=active cancelled"`
	PaymentMethod *PaymentMethod `json:"payment_method" validate:"omitempty,payment_method"`
}

type BookingResponse struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	EventID       string        `json:"event_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type BookingDetailsResponse struct {
	ID            string        `json:"id"`
	User          *UserSummary  `json:"user"`
	Event         *EventSummary `json:"event"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type BookingListResponse struct {
	Bookings []BookingDetailsResponse `json:"bookings"`
	Total    int                      `json:"total"`
}

type DeleteCountResponse struct {
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}
