package main

import (
	"net/http"
	"testing"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingForSelf(t *testing.T) {
	s := newTestServer(t)
	user, token := s.seedUser("Alice", model.RoleUser)
	event := s.seedEvent("Jazz Night", nil)

	w := s.do(http.MethodPost, "/api/v1/booking", model.CreateBookingRequest{EventID: event.ID}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	booking := decode[model.BookingResponse](t, w)
	assert.Equal(t, user.ID, booking.UserID)
	assert.Equal(t, event.ID, booking.EventID)
	assert.Equal(t, model.BookingActive, booking.Status)
	assert.Equal(t, model.DefaultPaymentMethod, booking.PaymentMethod)

	w = s.do(http.MethodPost, "/api/v1/booking", model.CreateBookingRequest{EventID: event.ID}, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.BookingsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.BookingConflicts))
	assert.Equal(t, []activity.Type{activity.BookingCreated}, s.activity.types())
}

func TestCreateBookingErrors(t *testing.T) {
	s := newTestServer(t)
	_, token := s.seedUser("Alice", model.RoleUser)
	other, _ := s.seedUser("Bobby", model.RoleUser)
	event := s.seedEvent("Jazz Night", nil)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{
			name:   "unknown event",
			body:   model.CreateBookingRequest{EventID: uuid.NewString()},
			status: http.StatusNotFound,
		},
		{
			name:   "malformed event id",
			body:   model.CreateBookingRequest{EventID: "42"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown payment method",
			body:   model.CreateBookingRequest{EventID: event.ID, PaymentMethod: "barter"},
			status: http.StatusBadRequest,
		},
		{
			name:   "booking for someone else",
			body:   model.CreateBookingRequest{UserID: other.ID, EventID: event.ID},
			status: http.StatusForbidden,
		},
		{
			name:   "invalid json",
			body:   "not an object",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/booking", tt.body, token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/booking", model.CreateBookingRequest{EventID: event.ID}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminBooksOnBehalfOfUser(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser("Admin", model.RoleAdmin)
	user, userToken := s.seedUser("Alice", model.RoleUser)
	event := s.seedEvent("Jazz Night", nil)

	w := s.do(http.MethodPost, "/api/v1/booking", model.CreateBookingRequest{
		UserID:        user.ID,
		EventID:       event.ID,
		PaymentMethod: model.PaymentPaypal,
	}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decode[model.BookingResponse](t, w)
	assert.Equal(t, user.ID, booking.UserID)

	w = s.do(http.MethodGet, "/api/v1/booking/user/"+user.ID, nil, userToken)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[model.BookingListResponse](t, w)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, event.Name, list.Bookings[0].Event.Name)
	assert.Equal(t, user.Email, list.Bookings[0].User.Email)
}

func TestBookingAccessControl(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser("Admin", model.RoleAdmin)
	owner, ownerToken := s.seedUser("Alice", model.RoleUser)
	_, strangerToken := s.seedUser("Mallory", model.RoleUser)
	event := s.seedEvent("Jazz Night", nil)

	w := s.do(http.MethodPost, "/api/v1/booking", model.CreateBookingRequest{EventID: event.ID}, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code)
	bookingPath := "/api/v1/booking/" + decode[model.BookingResponse](t, w).ID

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, bookingPath, nil, ownerToken).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, bookingPath, nil, adminToken).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, bookingPath, nil, strangerToken).Code)

	cancel := model.UpdateBookingRequest{Status: statusPtr(model.BookingCancelled)}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPatch, bookingPath, cancel, strangerToken).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, bookingPath, nil, strangerToken).Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/booking/user/"+owner.ID, nil, strangerToken).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/booking", nil, ownerToken).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/v1/booking", nil, ownerToken).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/v1/booking/user/"+owner.ID, nil, ownerToken).Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/booking/not-a-uuid", nil, ownerToken).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/booking/"+uuid.NewString(), nil, ownerToken).Code)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, bookingPath, nil, ownerToken).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, bookingPath, nil, ownerToken).Code)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser("Admin", model.RoleAdmin)
	_, userToken := s.seedUser("Alice", model.RoleUser)
	event := s.seedEvent("Jazz Night", nil)

	w := s.do(http.MethodPost, "/api/v1/booking", model.CreateBookingRequest{EventID: event.ID}, userToken)
	require.Equal(t, http.StatusCreated, w.Code)
	bookingPath := "/api/v1/booking/" + decode[model.BookingResponse](t, w).ID

	w = s.do(http.MethodPatch, bookingPath, model.UpdateBookingRequest{Status: statusPtr(model.BookingCancelled)}, userToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.BookingCancelled, decode[model.BookingResponse](t, w).Status)

	w = s.do(http.MethodPatch, bookingPath, model.UpdateBookingRequest{Status: statusPtr(model.BookingActive)}, userToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// a cancelled booking still holds the (user, event) pair
	w = s.do(http.MethodPost, "/api/v1/booking", model.CreateBookingRequest{EventID: event.ID}, userToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/events/"+event.ID, nil, adminToken)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/booking", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[model.BookingListResponse](t, w)
	assert.Zero(t, list.Total)
	assert.NotNil(t, list.Bookings)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.BookingsDeleted.WithLabelValues("event_cascade")))
	assert.Contains(t, s.activity.types(), activity.EventDeleted)
}

func TestBulkBookingDeletes(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser("Admin", model.RoleAdmin)
	alice, aliceToken := s.seedUser("Alice", model.RoleUser)
	_, bobToken := s.seedUser("Bobby", model.RoleUser)
	first := s.seedEvent("Jazz Night", nil)
	second := s.seedEvent("Rock Night", nil)

	for _, token := range []string{aliceToken, bobToken} {
		for _, event := range []*model.Event{first, second} {
			w := s.do(http.MethodPost, "/api/v1/booking", model.CreateBookingRequest{EventID: event.ID}, token)
			require.Equal(t, http.StatusCreated, w.Code)
		}
	}

	w := s.do(http.MethodDelete, "/api/v1/booking/user/"+alice.ID, nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[model.DeleteCountResponse](t, w).Deleted)

	w = s.do(http.MethodGet, "/api/v1/booking/user/"+alice.ID, nil, aliceToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[model.BookingListResponse](t, w).Total)

	w = s.do(http.MethodDelete, "/api/v1/booking", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[model.DeleteCountResponse](t, w).Deleted)

	w = s.do(http.MethodDelete, "/api/v1/booking", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[model.DeleteCountResponse](t, w).Deleted)
}

func statusPtr(s model.BookingStatus) *model.BookingStatus {
	return &s
}
