package main

import (
	"context"
	"time"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/eventix/ticketing/ticketing-service/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// activityRecorder publishes activity messages after successful mutations.
// A failed publish never fails the request.
type activityRecorder struct {
	publisher activity.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func (a *activityRecorder) record(c *gin.Context, t activity.Type, resourceID string, data interface{}) {
	var actorID string
	if identity, ok := currentIdentity(c); ok {
		actorID = identity.UserID
	}

	msg, err := activity.NewMessage(t, resourceID, actorID, data)
	if err != nil {
		a.failed(t, resourceID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), publishTimeout)
	defer cancel()

	if err := a.publisher.Publish(ctx, msg); err != nil {
		a.failed(t, resourceID, err)
	}
}

func (a *activityRecorder) failed(t activity.Type, resourceID string, err error) {
	a.metrics.ActivityPublishFailures.Inc()
	a.logger.Warn("failed to publish activity",
		zap.String("type", string(t)),
		zap.String("resource_id", resourceID),
		zap.Error(err))
}
