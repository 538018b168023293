package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/eventix/ticketing/ticketing-service/config"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// newTestStore connects to MONGO_TEST_URI (a replica set) using a throwaway database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping mongo integration tests")
	}

	dbName := "ticketing_test_" + uuid.NewString()[:8]
	store, err := NewStore(&config.Mongo{URI: uri, Database: dbName}, zap.NewNop())
	if err != nil {
		t.Skipf("mongo unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		_ = store.Close()
	})
	return store
}

func seed(t *testing.T, s *Store) (*model.User, *model.Event) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{ID: uuid.NewString(), Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: model.RoleUser, Active: true}
	require.NoError(t, s.Users().CreateUser(ctx, user))

	event := &model.Event{ID: uuid.NewString(), Name: "Jazz Night", Venue: "Hall", Price: 10, Date: time.Now().Add(time.Hour)}
	require.NoError(t, s.Events().CreateEvent(ctx, event))
	return user, event
}

func TestMongoBookingUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, event := seed(t, s)

	require.NoError(t, s.Bookings().CreateBooking(ctx, &model.Booking{ID: uuid.NewString(), UserID: user.ID, EventID: event.ID, PaymentMethod: model.PaymentCreditCard, Status: model.BookingActive}))
	err := s.Bookings().CreateBooking(ctx, &model.Booking{ID: uuid.NewString(), UserID: user.ID, EventID: event.ID, PaymentMethod: model.PaymentPaypal, Status: model.BookingActive})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestMongoTransactionRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, event := seed(t, s)

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Users().LockUser(ctx, user.ID, repository.LockUpdate); err != nil {
			return err
		}
		if err := tx.Users().DeleteUser(ctx, user.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByID(ctx, user.ID)
	assert.NoError(t, err)

	n, err := s.Events().ClearCategory(ctx, []string{"missing"})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Events().GetEventByID(ctx, event.ID)
	assert.NoError(t, err)
}

func TestMongoListEventsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cat := uuid.NewString()

	for i, name := range []string{"Rock (Live)", "Jazz Brunch", "Rock Classics"} {
		e := &model.Event{ID: uuid.NewString(), Name: name, Venue: "Arena", Price: float64(10 * (i + 1)), Date: time.Now().Add(time.Duration(i) * time.Hour)}
		if i != 1 {
			e.CategoryID = &cat
		}
		require.NoError(t, s.Events().CreateEvent(ctx, e))
	}

	events, total, err := s.Events().ListEvents(ctx, model.EventFilter{Name: "rock (", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Rock (Live)", events[0].Name)

	ids, err := s.Events().ListEventIDs(ctx, model.EventFilter{CategoryID: cat})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	count, err := s.col(ColEvents).CountDocuments(ctx, bson.D{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
