package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/eventix/ticketing/ticketing-service/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type services struct {
	store      repository.Store
	bookings   *BookingService
	cascade    *CascadeCoordinator
	users      *UserService
	events     *EventService
	categories *CategoryService
}

func newServices(store repository.Store) *services {
	logger := zap.NewNop()
	bookings := NewBookingService(store, OwnerOrAdmin{}, logger)
	cascade := NewCascadeCoordinator(store, bookings, logger)
	events := NewEventService(store, cascade, logger)
	return &services{
		store:      store,
		bookings:   bookings,
		cascade:    cascade,
		users:      NewUserService(store, cascade, logger).WithPasswordCost(bcrypt.MinCost),
		events:     events,
		categories: NewCategoryService(store, events, cascade, logger),
	}
}

func newTestServices(t *testing.T) *services {
	t.Helper()
	return newServices(memory.NewStore())
}

func seedUser(t *testing.T, store repository.Store, name string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		ID:     uuid.NewString(),
		Name:   name,
		Email:  strings.ToLower(name) + "@example.com",
		Role:   role,
		Active: true,
	}
	require.NoError(t, store.Users().CreateUser(context.Background(), user))
	return user
}

func seedEvent(t *testing.T, store repository.Store, name string, categoryID *string) *model.Event {
	t.Helper()
	event := &model.Event{
		ID:         uuid.NewString(),
		Name:       name,
		CategoryID: categoryID,
		Date:       time.Date(2030, 5, 1, 20, 0, 0, 0, time.UTC),
		Venue:      "Main Hall",
		Price:      100,
	}
	require.NoError(t, store.Events().CreateEvent(context.Background(), event))
	return event
}

func seedCategory(t *testing.T, store repository.Store, name string) *model.Category {
	t.Helper()
	category := &model.Category{ID: uuid.NewString(), Name: name}
	category.RefreshSlug()
	require.NoError(t, store.Categories().CreateCategory(context.Background(), category))
	return category
}

func book(t *testing.T, s *services, userID, eventID string) *model.Booking {
	t.Helper()
	booking, err := s.bookings.CreateBooking(context.Background(), model.CreateBookingRequest{
		UserID:  userID,
		EventID: eventID,
	})
	require.NoError(t, err)
	return booking
}

func countBookings(t *testing.T, store repository.Store, filter model.BookingFilter) int {
	t.Helper()
	bookings, err := store.Bookings().ListBookings(context.Background(), filter)
	require.NoError(t, err)
	return len(bookings)
}

var errStoreDown = errors.New("store down")

// faultyStore wraps a store and fails selected writes, including inside
// transactions.
type faultyStore struct {
	repository.Store
	failDeleteUser  bool
	failDeleteEvent bool
	failCreate      bool
}

func (f *faultyStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return f.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		wrapped := *f
		wrapped.Store = tx
		return fn(ctx, &wrapped)
	})
}

func (f *faultyStore) Users() repository.UserRepository {
	return faultyUsers{UserRepository: f.Store.Users(), fail: f.failDeleteUser}
}

func (f *faultyStore) Events() repository.EventRepository {
	return faultyEvents{EventRepository: f.Store.Events(), fail: f.failDeleteEvent}
}

func (f *faultyStore) Bookings() repository.BookingRepository {
	return faultyBookings{BookingRepository: f.Store.Bookings(), fail: f.failCreate}
}

type faultyUsers struct {
	repository.UserRepository
	fail bool
}

func (u faultyUsers) DeleteUser(ctx context.Context, id string) error {
	if u.fail {
		return errStoreDown
	}
	return u.UserRepository.DeleteUser(ctx, id)
}

type faultyEvents struct {
	repository.EventRepository
	fail bool
}

func (e faultyEvents) DeleteEvent(ctx context.Context, id string) error {
	if e.fail {
		return errStoreDown
	}
	return e.EventRepository.DeleteEvent(ctx, id)
}

type faultyBookings struct {
	repository.BookingRepository
	fail bool
}

func (b faultyBookings) CreateBooking(ctx context.Context, booking *model.Booking) error {
	if b.fail {
		return errStoreDown
	}
	return b.BookingRepository.CreateBooking(ctx, booking)
}
