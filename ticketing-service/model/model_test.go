package model

import (
	"errors"
	"testing"
	"time"

	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs apperror.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field] = fe.Message
	}
	return out
}

func TestValidateRegisterRequest(t *testing.T) {
	valid := RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "Sup3r$ecret", Gender: "female"}
	assert.NoError(t, Validate(valid))

	err := Validate(RegisterRequest{Name: "Al", Email: "not-an-email", Password: "weak", Gender: "other"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "gender")
}

func TestValidateCreateEventRequest(t *testing.T) {
	req := CreateEventRequest{
		Name:  "Jazz Night",
		Date:  time.Now().Add(48 * time.Hour),
		Venue: "Blue Hall",
		Price: 150,
	}
	assert.NoError(t, Validate(req))

	req.Price = 0
	fields := fieldErrors(t, Validate(req))
	assert.Equal(t, "is required", fields["price"])

	req.Price = 1_000_001
	fields = fieldErrors(t, Validate(req))
	assert.Equal(t, "must be at most 1000000", fields["price"])

	req.Price = 10
	req.Date = time.Time{}
	req.Venue = ""
	fields = fieldErrors(t, Validate(req))
	assert.Contains(t, fields, "date")
	assert.Contains(t, fields, "venue")
}

func TestValidateBlankStrings(t *testing.T) {
	fields := fieldErrors(t, Validate(CreateCategoryRequest{Name: "   "}))
	assert.Equal(t, "must not be blank", fields["name"])

	blank := "  "
	fields = fieldErrors(t, Validate(UpdateEventRequest{Name: &blank, Venue: &blank}))
	assert.Equal(t, "must not be blank", fields["name"])
	assert.Equal(t, "must not be blank", fields["venue"])

	assert.NoError(t, Validate(UpdateEventRequest{}))
}

func TestNormalizedRequests(t *testing.T) {
	reg := RegisterRequest{Name: " Alice ", Email: "  Alice@Example.COM "}.Normalized()
	assert.Equal(t, "Alice", reg.Name)
	assert.Equal(t, "alice@example.com", reg.Email)

	name, venue := "  Jazz Night", "Blue Hall  "
	patch := UpdateEventRequest{Name: &name, Venue: &venue}
	normalized := patch.Normalized()
	assert.Equal(t, "Jazz Night", *normalized.Name)
	assert.Equal(t, "Blue Hall", *normalized.Venue)
	assert.Nil(t, normalized.CategoryID)
	assert.Equal(t, "  Jazz Night", name, "caller's strings are left untouched")
}

func TestValidateBookingRequests(t *testing.T) {
	req := CreateBookingRequest{EventID: "0d9a4a1e-6c43-4d1e-9a0f-6a2b1a6f3c11"}
	assert.NoError(t, Validate(req))

	req.PaymentMethod = "Bitcoin"
	fields := fieldErrors(t, Validate(req))
	assert.Contains(t, fields["payment_method"], "Credit Card")

	req = CreateBookingRequest{EventID: "not-a-uuid", PaymentMethod: PaymentPaypal}
	fields = fieldErrors(t, Validate(req))
	assert.Equal(t, "must be a valid id", fields["event_id"])

	bad := BookingStatus("pending")
	fields = fieldErrors(t, Validate(UpdateBookingRequest{Status: &bad}))
	assert.Contains(t, fields, "status")

	cancelled := BookingCancelled
	assert.NoError(t, Validate(UpdateBookingRequest{Status: &cancelled}))
}

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Sup3r$ecret", true},
		{"short1!", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigitsHere!", false},
		{"NoSymbols123", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStrongPassword(tt.password))
		})
	}
}

func TestBookingStatusTransitions(t *testing.T) {
	assert.True(t, BookingActive.CanTransitionTo(BookingCancelled))
	assert.True(t, BookingActive.CanTransitionTo(BookingActive))
	assert.True(t, BookingCancelled.CanTransitionTo(BookingCancelled))
	assert.False(t, BookingCancelled.CanTransitionTo(BookingActive))
}

func TestCategorySlug(t *testing.T) {
	c := Category{Name: "Live Music & Concerts"}
	c.RefreshSlug()
	assert.Equal(t, "live-music-and-concerts", c.Slug)
}

func TestToEventResponseEmbedsCategory(t *testing.T) {
	categoryID := "c1"
	e := Event{ID: "e1", Name: "Expo", CategoryID: &categoryID, Price: 20}

	withoutCategory := e.ToEventResponse(nil)
	assert.Nil(t, withoutCategory.Category)
	assert.Equal(t, &categoryID, withoutCategory.CategoryID)

	withCategory := e.ToEventResponse(&Category{ID: "c1", Name: "Tech", Slug: "tech"})
	require.NotNil(t, withCategory.Category)
	assert.Equal(t, "tech", withCategory.Category.Slug)
}
