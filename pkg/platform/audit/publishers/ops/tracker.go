// Package ops records pipeline progress events on a best-effort basis.
// Failures never reach the caller: events are sampled, and writes stop while
// the audit store is failing.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "hub/pkg/platform/audit"
)

// Tracker persists operations-category audit events.
type Tracker struct {
	store   audit.Store
	sampler *Sampler
	breaker *CircuitBreaker
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Tracker.
type Option func(*Tracker)

func WithSampler(s *Sampler) Option {
	return func(t *Tracker) {
		t.sampler = s
	}
}

func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(t *Tracker) {
		t.breaker = cb
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// New creates a tracker that keeps every event and opens after 5 failures.
func New(store audit.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:   store,
		sampler: NewSampler(1),
		breaker: NewCircuitBreaker(5, time.Minute),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track records the event if it is sampled and the store is healthy.
func (t *Tracker) Track(ctx context.Context, event audit.Event) {
	if !t.sampler.Keep(event.Action) {
		t.metrics.IncDropped("sampled")
		return
	}
	if !t.breaker.Allow() {
		t.metrics.IncDropped("circuit_open")
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = t.now()
	}
	event.Category = audit.CategoryOperations

	err := t.store.Append(ctx, event)
	open := t.breaker.Record(err)
	t.metrics.SetCircuitBreakerState(open)
	if err != nil {
		t.metrics.IncPersistFailures()
		t.logger.WarnContext(ctx, "ops audit event dropped",
			"action", event.Action,
			"record_id", event.RecordID.String(),
			"error", err,
		)
		return
	}
	t.metrics.IncTracked()
}
