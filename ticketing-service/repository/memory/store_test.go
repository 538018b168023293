package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUserAndEvent(t *testing.T, s *Store) (*model.User, *model.Event) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: model.RoleUser, Active: true}
	require.NoError(t, s.Users().CreateUser(ctx, user))

	event := &model.Event{ID: "e1", Name: "Jazz Night", Venue: "Blue Hall", Price: 50, Date: time.Now().Add(time.Hour)}
	require.NoError(t, s.Events().CreateEvent(ctx, event))

	return user, event
}

func TestBookingPairIsUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUserAndEvent(t, s)

	first := &model.Booking{ID: "b1", UserID: "u1", EventID: "e1", Status: model.BookingActive}
	require.NoError(t, s.Bookings().CreateBooking(ctx, first))
	assert.False(t, first.CreatedAt.IsZero())

	second := &model.Booking{ID: "b2", UserID: "u1", EventID: "e1", Status: model.BookingActive}
	assert.ErrorIs(t, s.Bookings().CreateBooking(ctx, second), repository.ErrDuplicate)

	bookings, err := s.Bookings().ListBookings(ctx, model.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestConcurrentBookingsForSamePair(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUserAndEvent(t, s)

	var (
		wg        sync.WaitGroup
		successes int32
		dupes     int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Bookings().CreateBooking(ctx, &model.Booking{
				ID: fmt.Sprintf("b%d", i), UserID: "u1", EventID: "e1", Status: model.BookingActive,
			})
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, repository.ErrDuplicate):
				atomic.AddInt32(&dupes, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
	assert.Equal(t, int32(19), dupes)
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUserAndEvent(t, s)

	err := s.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.Bookings().CreateBooking(ctx, &model.Booking{ID: "b1", UserID: "u1", EventID: "e1", Status: model.BookingActive})
	})
	require.NoError(t, err)

	_, err = s.Bookings().GetBookingByID(ctx, "b1")
	assert.NoError(t, err)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUserAndEvent(t, s)
	require.NoError(t, s.Bookings().CreateBooking(ctx, &model.Booking{ID: "b1", UserID: "u1", EventID: "e1", Status: model.BookingActive}))

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		n, err := tx.Bookings().DeleteBookingsByEventIDs(ctx, []string{"e1"})
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
		require.NoError(t, tx.Events().DeleteEvent(ctx, "e1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Events().GetEventByID(ctx, "e1")
	assert.NoError(t, err)
	_, err = s.Bookings().GetBookingByID(ctx, "b1")
	assert.NoError(t, err)
}

func TestNestedTransactionReusesOuter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUserAndEvent(t, s)

	err := s.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.WithTransaction(ctx, func(ctx context.Context, inner repository.Store) error {
			return inner.Users().DeleteUser(ctx, "u1")
		})
	})
	require.NoError(t, err)

	_, err = s.Users().GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListEventsFilterAndPagination(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 20, 0, 0, 0, time.UTC)
	music := "cat-music"

	for i := 0; i < 5; i++ {
		e := &model.Event{
			ID:    fmt.Sprintf("e%d", i),
			Name:  fmt.Sprintf("Concert %d", i),
			Venue: "Arena",
			Price: float64(10 * (i + 1)),
			Date:  base.Add(time.Duration(i) * 24 * time.Hour),
		}
		if i%2 == 0 {
			e.CategoryID = &music
		}
		require.NoError(t, s.Events().CreateEvent(ctx, e))
	}

	events, total, err := s.Events().ListEvents(ctx, model.EventFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)

	minPrice := 20.0
	events, total, err = s.Events().ListEvents(ctx, model.EventFilter{CategoryID: music, MinPrice: &minPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "e2", events[0].ID)
	assert.Equal(t, "e4", events[1].ID)

	events, _, err = s.Events().ListEvents(ctx, model.EventFilter{Name: "concert 3"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e3", events[0].ID)

	events, total, err = s.Events().ListEvents(ctx, model.EventFilter{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, events)
}

func TestClearCategory(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	cat := "c1"
	require.NoError(t, s.Events().CreateEvent(ctx, &model.Event{ID: "e1", Name: "A", CategoryID: &cat}))
	require.NoError(t, s.Events().CreateEvent(ctx, &model.Event{ID: "e2", Name: "B"}))

	n, err := s.Events().ClearCategory(ctx, []string{"c1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	e, err := s.Events().GetEventByID(ctx, "e1")
	require.NoError(t, err)
	assert.Nil(t, e.CategoryID)
}

func TestReturnedValuesAreDetached(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	cat := "c1"
	require.NoError(t, s.Events().CreateEvent(ctx, &model.Event{ID: "e1", Name: "A", CategoryID: &cat}))

	e, err := s.Events().GetEventByID(ctx, "e1")
	require.NoError(t, err)
	*e.CategoryID = "mutated"
	e.Name = "mutated"

	again, err := s.Events().GetEventByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name)
	assert.Equal(t, "c1", *again.CategoryID)
}

func TestUniqueEmailAndNames(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Users().CreateUser(ctx, &model.User{ID: "u1", Email: "a@example.com"}))
	assert.ErrorIs(t, s.Users().CreateUser(ctx, &model.User{ID: "u2", Email: "a@example.com"}), repository.ErrDuplicate)

	require.NoError(t, s.Users().CreateUser(ctx, &model.User{ID: "u2", Email: "b@example.com"}))
	assert.ErrorIs(t, s.Users().UpdateUser(ctx, &model.User{ID: "u2", Email: "a@example.com"}), repository.ErrDuplicate)

	require.NoError(t, s.Categories().CreateCategory(ctx, &model.Category{ID: "c1", Name: "Music"}))
	assert.ErrorIs(t, s.Categories().CreateCategory(ctx, &model.Category{ID: "c2", Name: "Music"}), repository.ErrDuplicate)
}

func TestCanceledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Users().GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}
