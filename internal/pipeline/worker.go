package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hub/internal/submission"
)

// Handler processes one delivered task. Returning an error asks the queue to
// redeliver it.
type Handler func(ctx context.Context, task Task) error

// Queue carries tasks between workers with at-least-once delivery.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Consume(ctx context.Context, handle Handler) error
}

// Worker consumes tasks, runs their stage and enqueues the follow-up.
type Worker struct {
	orchestrator *Orchestrator
	queue        Queue
	logger       *slog.Logger
	maxAttempts  int
	backoff      submission.RetryPolicy
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithBackoff sets the delay applied before a transiently failed task is
// re-enqueued. Its MaxAttempts is ignored.
func WithBackoff(policy submission.RetryPolicy) WorkerOption {
	return func(w *Worker) {
		w.backoff = policy
	}
}

// NewWorker builds a Worker. A task that keeps failing transiently is given
// up on after maxAttempts deliveries.
func NewWorker(o *Orchestrator, q Queue, logger *slog.Logger, maxAttempts int, opts ...WorkerOption) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	w := &Worker{
		orchestrator: o,
		queue:        q,
		logger:       logger,
		maxAttempts:  maxAttempts,
		backoff:      submission.RetryPolicy{BaseDelay: time.Second, JitterFraction: 0.25},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.queue.Consume(ctx, w.Handle)
}

// Handle runs one task. Terminal failures are logged and acknowledged;
// transient ones are re-enqueued with a higher attempt count after a backoff
// that doubles with every attempt.
func (w *Worker) Handle(ctx context.Context, task Task) error {
	log := w.logger.With("record_id", task.RecordID.String(), "kind", string(task.Kind),
		"stage", string(task.Stage), "attempt", task.Attempt)

	next, err := w.orchestrator.RunStage(ctx, task)
	switch {
	case err == nil:
	case Terminal(err):
		log.ErrorContext(ctx, "pipeline halted", "error", err)
		return nil
	case task.Attempt+1 >= w.maxAttempts:
		log.ErrorContext(ctx, "pipeline stage gave up after repeated failures", "error", err)
		return nil
	default:
		delay := w.backoff.Delay(task.Attempt)
		log.WarnContext(ctx, "pipeline stage failed, retrying", "error", err, "delay", delay)
		if serr := w.sleep(ctx, delay); serr != nil {
			return fmt.Errorf("requeue %s %s: %w", task.Stage, task.RecordID, serr)
		}
		task.Attempt++
		if qerr := w.queue.Enqueue(ctx, task); qerr != nil {
			return fmt.Errorf("requeue %s %s: %w", task.Stage, task.RecordID, qerr)
		}
		return nil
	}

	if next == nil {
		log.InfoContext(ctx, "pipeline finished")
		return nil
	}
	if err := w.queue.Enqueue(ctx, *next); err != nil {
		return fmt.Errorf("enqueue %s %s: %w", next.Stage, next.RecordID, err)
	}
	return nil
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) error {
	if w.backoff.Sleep != nil {
		return w.backoff.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
