package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const readRetryDelay = time.Second

// MessageReader is the part of *kafka.Reader the processor uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Metrics counts processed activity messages.
type Metrics struct {
	Processed     *prometheus.CounterVec
	ActiveWorkers prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Processed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "activity",
				Name:      "messages_processed_total",
				Help:      "Activity messages processed by type and result",
			},
			[]string{"type", "result"},
		),
		ActiveWorkers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "activity",
				Name:      "active_workers",
				Help:      "Workers currently handling a message",
			},
		),
	}
}

// ActivityProcessor reads activity messages and writes one audit entry per
// message from a fixed pool of workers.
type ActivityProcessor struct {
	reader         MessageReader
	logger         *zap.Logger
	metrics        *Metrics
	workers        int
	reportInterval time.Duration

	processedCount int64
	activeWorkers  int64

	mu     sync.Mutex
	byType map[string]int64
}

func NewActivityProcessor(reader MessageReader, workers int, reportInterval time.Duration, m *Metrics, logger *zap.Logger) *ActivityProcessor {
	if workers <= 0 {
		workers = 1
	}
	return &ActivityProcessor{
		reader:         reader,
		logger:         logger.With(zap.String("component", "activity_processor")),
		metrics:        m,
		workers:        workers,
		reportInterval: reportInterval,
		byType:         make(map[string]int64),
	}
}

// Start blocks until ctx is cancelled. Messages already handed to a worker
// are finished before it returns.
func (p *ActivityProcessor) Start(ctx context.Context) error {
	p.logger.Info("starting activity processor", zap.Int("workers", p.workers))

	jobs := make(chan kafka.Message)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for msg := range jobs {
				p.handle(id, msg)
			}
		}(i)
	}
	defer func() {
		close(jobs)
		wg.Wait()
		p.logger.Info("activity processor stopped", zap.Int64("processed", p.Processed()))
	}()

	if p.reportInterval > 0 {
		go p.reportMetrics(ctx)
	}

	for {
		msg, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("failed to read message", zap.Error(err))
			select {
			case <-time.After(readRetryDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		// Dispatch to worker pool (blocks if all workers busy)
		select {
		case jobs <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *ActivityProcessor) handle(workerID int, msg kafka.Message) {
	atomic.AddInt64(&p.activeWorkers, 1)
	p.metrics.ActiveWorkers.Inc()
	defer func() {
		atomic.AddInt64(&p.activeWorkers, -1)
		p.metrics.ActiveWorkers.Dec()
	}()

	entry, err := decode(msg)
	if err != nil {
		p.metrics.Processed.WithLabelValues("unknown", "invalid").Inc()
		p.logger.Warn("discarding malformed activity message",
			zap.Int("worker", workerID),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return
	}

	p.logger.Info("activity",
		zap.String("id", entry.ID),
		zap.String("type", string(entry.Type)),
		zap.String("resource_id", entry.ResourceID),
		zap.String("actor_id", entry.ActorID),
		zap.Time("occurred_at", entry.Timestamp),
		zap.ByteString("data", entry.Data),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset))

	atomic.AddInt64(&p.processedCount, 1)
	p.metrics.Processed.WithLabelValues(string(entry.Type), "ok").Inc()

	p.mu.Lock()
	p.byType[string(entry.Type)]++
	p.mu.Unlock()
}

func decode(msg kafka.Message) (activity.Message, error) {
	var entry activity.Message
	if err := json.Unmarshal(msg.Value, &entry); err != nil {
		return activity.Message{}, fmt.Errorf("unmarshal activity message: %w", err)
	}
	if entry.Type == "" || entry.ResourceID == "" {
		return activity.Message{}, errors.New("activity message is missing type or resource_id")
	}
	return entry, nil
}

// Processed returns how many well-formed messages were handled.
func (p *ActivityProcessor) Processed() int64 {
	return atomic.LoadInt64(&p.processedCount)
}

// ProcessedByType returns a snapshot of the per-type counts.
func (p *ActivityProcessor) ProcessedByType() map[string]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int64, len(p.byType))
	for k, v := range p.byType {
		out[k] = v
	}
	return out
}

// reportMetrics logs progress periodically
func (p *ActivityProcessor) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(p.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.logger.Info("activity processor metrics",
				zap.Int64("processed", p.Processed()),
				zap.Int64("active_workers", atomic.LoadInt64(&p.activeWorkers)))
		}
	}
}
