package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// queueReader hands out queued messages and then blocks until ctx ends.
type queueReader struct {
	mu    sync.Mutex
	queue []kafka.Message
	errs  []error
}

func (r *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func activityMessage(t *testing.T, typ activity.Type, resourceID string) kafka.Message {
	t.Helper()
	msg, err := activity.NewMessage(typ, resourceID, "admin-1", map[string]int{"bookings_deleted": 2})
	require.NoError(t, err)
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(resourceID), Value: raw}
}

func runProcessor(t *testing.T, reader MessageReader) (*ActivityProcessor, *Metrics, *observer.ObservedLogs, func() error) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics(prometheus.NewRegistry())
	p := NewActivityProcessor(reader, 3, 0, metrics, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("processor did not stop")
			return nil
		}
	}
	return p, metrics, logs, stop
}

func TestProcessorAuditsEveryMessage(t *testing.T) {
	reader := &queueReader{queue: []kafka.Message{
		activityMessage(t, activity.BookingCreated, "b-1"),
		activityMessage(t, activity.BookingCreated, "b-2"),
		activityMessage(t, activity.EventDeleted, "e-1"),
	}}

	p, metrics, logs, stop := runProcessor(t, reader)

	require.Eventually(t, func() bool { return p.Processed() == 3 }, 5*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, stop(), context.Canceled)

	assert.Equal(t, map[string]int64{"booking.created": 2, "event.deleted": 1}, p.ProcessedByType())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Processed.WithLabelValues("booking.created", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Processed.WithLabelValues("event.deleted", "ok")))

	audit := logs.FilterMessage("activity").All()
	require.Len(t, audit, 3)
	resources := make([]string, 0, len(audit))
	for _, entry := range audit {
		resources = append(resources, entry.ContextMap()["resource_id"].(string))
		assert.Equal(t, "admin-1", entry.ContextMap()["actor_id"])
	}
	assert.ElementsMatch(t, []string{"b-1", "b-2", "e-1"}, resources)
}

func TestProcessorSkipsMalformedMessages(t *testing.T) {
	reader := &queueReader{queue: []kafka.Message{
		{Value: []byte("{not json")},
		{Value: []byte(`{"id":"x"}`)},
		activityMessage(t, activity.UserDeleted, "u-1"),
	}}

	p, metrics, logs, stop := runProcessor(t, reader)

	require.Eventually(t, func() bool { return p.Processed() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Processed.WithLabelValues("unknown", "invalid")) == 2
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, ignoreCanceled(stop()))

	assert.Equal(t, 2, logs.FilterMessage("discarding malformed activity message").Len())
}

func TestProcessorRetriesReadErrors(t *testing.T) {
	reader := &queueReader{
		errs:  []error{errors.New("broker unavailable")},
		queue: []kafka.Message{activityMessage(t, activity.BookingsPurged, "bookings")},
	}

	p, _, logs, stop := runProcessor(t, reader)

	require.Eventually(t, func() bool { return p.Processed() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, ignoreCanceled(stop()))
	assert.Equal(t, 1, logs.FilterMessage("failed to read message").Len())
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
