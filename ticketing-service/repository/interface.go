package repository

import (
	"context"

	"github.com/eventix/ticketing/ticketing-service/model"
)

// LockMode controls how a parent row is held inside a transaction.
// Outside a transaction it has no effect.
type LockMode int

const (
	// LockShare lets other readers in but blocks deletion until commit.
	LockShare LockMode = iota + 1
	// LockUpdate blocks every other lock on the row until commit.
	LockUpdate
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
	LockUser(ctx context.Context, id string, mode LockMode) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListUserIDsByRole(ctx context.Context, role model.Role) ([]string, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	DeleteUsersByIDs(ctx context.Context, ids []string) (int64, error)
}

// EventRepository defines the interface for event data operations
type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEventByID(ctx context.Context, id string) (*model.Event, error)
	GetEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error)
	LockEvent(ctx context.Context, id string, mode LockMode) (*model.Event, error)
	ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error)
	ListEventIDs(ctx context.Context, filter model.EventFilter) ([]string, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteEventsByIDs(ctx context.Context, ids []string) (int64, error)
	// ClearCategory removes the category reference from every event that
	// points at one of categoryIDs.
	ClearCategory(ctx context.Context, categoryIDs []string) (int64, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	GetCategoriesByIDs(ctx context.Context, ids []string) ([]model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	DeleteCategoriesByIDs(ctx context.Context, ids []string) (int64, error)
}

// BookingRepository defines the interface for booking data operations.
// CreateBooking returns ErrDuplicate when the (event, user) pair exists.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *model.Booking) error
	GetBookingByID(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, booking *model.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	DeleteBookingsByUserIDs(ctx context.Context, userIDs []string) (int64, error)
	DeleteBookingsByEventIDs(ctx context.Context, eventIDs []string) (int64, error)
	DeleteAllBookings(ctx context.Context) (int64, error)
}

// Store groups the repositories of one storage driver.
type Store interface {
	Users() UserRepository
	Events() EventRepository
	Categories() CategoryRepository
	Bookings() BookingRepository

	// WithTransaction runs fn against a transaction-scoped Store. fn's error
	// rolls everything back; nil commits. Calling it on a transaction-scoped
	// Store runs fn inside the existing transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
