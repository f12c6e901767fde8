// Package queue provides pipeline.Queue implementations: Kafka for
// deployments and a buffered channel for tests and single-process runs.
package queue

import (
	"context"
	"errors"
	"sync"

	"hub/internal/pipeline"
)

// ErrClosed is returned when enqueuing onto a closed queue.
var ErrClosed = errors.New("queue closed")

// Memory is an in-process queue. Failed handlers have their task put back.
// The task channel is never closed; done signals Close so blocked senders
// can bail out.
type Memory struct {
	tasks     chan pipeline.Task
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemory creates a queue holding up to size pending tasks.
func NewMemory(size int) *Memory {
	return &Memory{
		tasks: make(chan pipeline.Task, max(size, 1)),
		done:  make(chan struct{}),
	}
}

// Enqueue blocks while the queue is full until ctx is cancelled or the queue
// is closed.
func (q *Memory) Enqueue(ctx context.Context, task pipeline.Task) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.tasks <- task:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume handles tasks until ctx is cancelled or the queue is closed and drained.
func (q *Memory) Consume(ctx context.Context, handle pipeline.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-q.tasks:
			if err := q.run(ctx, handle, task); err != nil {
				return err
			}
		case <-q.done:
			for {
				select {
				case task := <-q.tasks:
					if err := q.run(ctx, handle, task); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		}
	}
}

func (q *Memory) run(ctx context.Context, handle pipeline.Handler, task pipeline.Task) error {
	if err := handle(ctx, task); err != nil {
		if qerr := q.Enqueue(ctx, task); qerr != nil {
			return errors.Join(err, qerr)
		}
	}
	return nil
}

// Drain handles tasks until none are pending, including any the handler
// enqueues along the way.
func (q *Memory) Drain(ctx context.Context, handle pipeline.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-q.tasks:
			if err := handle(ctx, task); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// Len reports the number of pending tasks.
func (q *Memory) Len() int {
	return len(q.tasks)
}

// Close stops accepting tasks and releases blocked senders; Consume returns
// once the backlog is drained.
func (q *Memory) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
