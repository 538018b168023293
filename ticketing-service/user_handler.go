package main

import (
	"net/http"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/eventix/ticketing/ticketing-service/metrics"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler serves the admin user endpoints.
type UserHandler struct {
	users    *service.UserService
	activity *activityRecorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewUserHandler(users *service.UserService, recorder *activityRecorder, m *metrics.Metrics, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		activity: recorder,
		metrics:  m,
		logger:   logger,
	}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, user.ToUserResponse())
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := make([]model.UserResponse, 0, len(users))
	for i := range users {
		response = append(response, users[i].ToUserResponse())
	}
	c.JSON(http.StatusOK, response)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user.ToUserResponse())
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user.ToUserResponse())
}

// DeleteUser removes the user and all of their bookings.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	result, err := h.users.DeleteUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.metrics.BookingsDeleted.WithLabelValues("user_cascade").Add(float64(result.BookingsDeleted))
	h.activity.record(c, activity.UserDeleted, userID, result)
	c.Status(http.StatusNoContent)
}

// DeleteAllUsers removes every non-admin user and their bookings.
func (h *UserHandler) DeleteAllUsers(c *gin.Context) {
	result, err := h.users.DeleteAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.metrics.BookingsDeleted.WithLabelValues("user_cascade").Add(float64(result.BookingsDeleted))
	h.activity.record(c, activity.UsersPurged, string(model.RoleUser), result)
	c.Status(http.StatusNoContent)
}
