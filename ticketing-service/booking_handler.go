package main

import (
	"errors"
	"net/http"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/metrics"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	bookings *service.BookingService
	authz    service.BookingAuthorizer
	activity *activityRecorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewBookingHandler(
	bookings *service.BookingService,
	authz service.BookingAuthorizer,
	recorder *activityRecorder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		authz:    authz,
		activity: recorder,
		metrics:  m,
		logger:   logger,
	}
}

// CreateBooking books an event for the caller. Admins may book on behalf of
// another user by setting user_id.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}

	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.UserID == "" {
		req.UserID = identity.UserID
	} else if err := h.authz.CanActForUser(identity, req.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, apperror.ErrAlreadyBooked) {
			h.metrics.BookingConflicts.Inc()
		}
		respondError(c, h.logger, err)
		return
	}

	h.metrics.BookingsCreated.Inc()
	h.activity.record(c, activity.BookingCreated, booking.ID, booking.ToBookingResponse())
	c.JSON(http.StatusCreated, booking.ToBookingResponse())
}

func (h *BookingHandler) GetAllBookings(c *gin.Context) {
	details, err := h.bookings.GetAllBookings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toBookingList(details))
}

// GetUserBookings lists the bookings of one user; users may only list their own.
func (h *BookingHandler) GetUserBookings(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if err := h.authz.CanActForUser(identity, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	details, err := h.bookings.GetUserBookings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toBookingList(details))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "bookingId")
	if !ok {
		return
	}

	details, err := h.bookings.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.authz.CanManageBooking(identity, &details.Booking); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details.ToBookingDetailsResponse())
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "bookingId")
	if !ok {
		return
	}

	var req model.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	current, err := h.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.authz.CanManageBooking(identity, &current.Booking); err != nil {
		respondError(c, h.logger, err)
		return
	}

	booking, err := h.bookings.UpdateBooking(ctx, bookingID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.activity.record(c, activity.BookingUpdated, booking.ID, booking.ToBookingResponse())
	c.JSON(http.StatusOK, booking.ToBookingResponse())
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "bookingId")
	if !ok {
		return
	}

	if err := h.bookings.DeleteBooking(c.Request.Context(), bookingID, identity); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.metrics.BookingsDeleted.WithLabelValues("direct").Inc()
	h.activity.record(c, activity.BookingDeleted, bookingID, nil)
	c.Status(http.StatusNoContent)
}

// DeleteAllUserBookings removes every booking of one user.
func (h *BookingHandler) DeleteAllUserBookings(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	n, err := h.bookings.DeleteAllUserBookings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.metrics.BookingsDeleted.WithLabelValues("user_purge").Add(float64(n))
	h.activity.record(c, activity.UserBookingsPurged, userID, gin.H{"deleted": n})
	c.JSON(http.StatusOK, model.DeleteCountResponse{
		Deleted: n,
		Message: "User bookings deleted",
	})
}

func (h *BookingHandler) DeleteAllBookings(c *gin.Context) {
	n, err := h.bookings.DeleteAllBookings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.metrics.BookingsDeleted.WithLabelValues("purge").Add(float64(n))
	h.activity.record(c, activity.BookingsPurged, "bookings", gin.H{"deleted": n})
	c.JSON(http.StatusOK, model.DeleteCountResponse{
		Deleted: n,
		Message: "All bookings deleted",
	})
}

func toBookingList(details []model.BookingDetails) model.BookingListResponse {
	bookings := make([]model.BookingDetailsResponse, 0, len(details))
	for i := range details {
		bookings = append(bookings, details[i].ToBookingDetailsResponse())
	}
	return model.BookingListResponse{Bookings: bookings, Total: len(bookings)}
}
