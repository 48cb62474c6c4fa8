package metrics

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/angeloszaimis/response-router/pkg/rest"
)

type EventType string

const (
	EventExchangeCompleted EventType = "exchange_completed"
	EventHealthChanged     EventType = "health_changed"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Endpoint   string
	Duration   time.Duration
	StatusCode int
	Route      string
	Failed     bool
	Healthy    bool
}

// Collector aggregates events on its own goroutine. It implements
// rest.Observer.
type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	dropped atomic.Int64
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues event without blocking. Events that do not fit in the buffer
// are counted as dropped.
func (c *Collector) Emit(event MetricEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
	}
}

// Observe records a finished rest exchange.
func (c *Collector) Observe(x rest.Exchange) {
	c.Emit(MetricEvent{
		Type:       EventExchangeCompleted,
		Endpoint:   x.Host,
		Duration:   x.Duration,
		StatusCode: x.Status,
		Route:      x.Route,
		Failed:     x.Err != nil,
	})
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("metrics collector started")
	defer c.logger.Info("metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventExchangeCompleted:
		c.metrics.RecordExchange(event.Endpoint, event.Duration, event.StatusCode, event.Route, event.Failed)
	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(event.Endpoint, event.Healthy)
	default:
		c.logger.Warn("unknown metric event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	snap := c.metrics.Snapshot()
	snap.DroppedEvents = c.dropped.Load()
	return snap
}

var _ rest.Observer = (*Collector)(nil)
