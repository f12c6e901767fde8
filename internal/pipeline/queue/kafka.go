package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"hub/internal/pipeline"
)

// Kafka carries tasks on one topic. Records are keyed by record id so every
// stage of a record lands on the same partition in order. Offsets are
// committed only after the handler returns nil.
type Kafka struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewKafka wraps a franz-go client built by platform/kafka.NewClient.
func NewKafka(client *kgo.Client, logger *slog.Logger) *Kafka {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{client: client, logger: logger}
}

func (q *Kafka) Enqueue(ctx context.Context, task pipeline.Task) error {
	value, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	rec := &kgo.Record{Key: []byte(task.RecordID.String()), Value: value}
	if err := q.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce task: %w", err)
	}
	return nil
}

// Consume polls until ctx is cancelled. A handler error stops consumption
// without committing so the task is redelivered after a restart or rebalance.
func (q *Kafka) Consume(ctx context.Context, handle pipeline.Handler) error {
	for {
		fetches := q.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		var fetchErr error
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			q.logger.ErrorContext(ctx, "kafka fetch failed", "topic", topic, "partition", partition, "error", err)
			fetchErr = errors.Join(fetchErr, err)
		})
		if fetchErr != nil {
			return fmt.Errorf("poll tasks: %w", fetchErr)
		}

		var handled []*kgo.Record
		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			var task pipeline.Task
			if err := json.Unmarshal(r.Value, &task); err != nil {
				q.logger.ErrorContext(ctx, "dropping undecodable task", "offset", r.Offset, "error", err)
				handled = append(handled, r)
				return
			}
			if err := handle(ctx, task); err != nil {
				handleErr = err
				return
			}
			handled = append(handled, r)
		})
		if len(handled) > 0 {
			if err := q.client.CommitRecords(ctx, handled...); err != nil {
				return fmt.Errorf("commit tasks: %w", err)
			}
		}
		if handleErr != nil {
			return handleErr
		}
	}
}
