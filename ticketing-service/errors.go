package main

import (
	"errors"
	"net/http"

	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError maps a service error onto a status code and error body.
// Unexpected errors are logged and answered with a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var verrs apperror.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_failed",
			Message: "Request validation failed",
			Details: verrs,
		})
	case errors.Is(err, apperror.ErrValidation):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "validation_failed", Message: err.Error()})
	case errors.Is(err, apperror.ErrNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, apperror.ErrConflict):
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: "conflict", Message: err.Error()})
	case errors.Is(err, apperror.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized", Message: err.Error()})
	case errors.Is(err, apperror.ErrForbidden):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: "forbidden", Message: err.Error()})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong, please try again later",
		})
	}
}

// respondBindError answers a request body that could not be decoded.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
	})
}

// pathID reads a uuid path parameter and answers 400 when it is malformed.
func pathID(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + name + " format",
		})
		return "", false
	}
	return id.String(), true
}

// mustIdentity returns the caller set by AuthMiddleware.
func mustIdentity(c *gin.Context) (model.Identity, bool) {
	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
	}
	return identity, ok
}
