package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hub/internal/pipeline"
	id "hub/pkg/domain"
)

func task(stage pipeline.Stage) pipeline.Task {
	return pipeline.Task{RecordID: id.NewRecordID(), Stage: stage}
}

func TestDrainFollowsEnqueuedTasks(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(8)
	require.NoError(t, q.Enqueue(ctx, task(pipeline.StageValidate)))

	var seen []pipeline.Stage
	err := q.Drain(ctx, func(ctx context.Context, tk pipeline.Task) error {
		seen = append(seen, tk.Stage)
		if tk.Stage == pipeline.StageValidate {
			tk.Stage = pipeline.StageExecute
			return q.Enqueue(ctx, tk)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Stage{pipeline.StageValidate, pipeline.StageExecute}, seen)
	assert.Zero(t, q.Len())
}

func TestConsumeRequeuesFailedTasks(t *testing.T) {
	q := NewMemory(4)
	require.NoError(t, q.Enqueue(context.Background(), task(pipeline.StageSubmit)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	attempts := 0
	err := q.Consume(ctx, func(context.Context, pipeline.Task) error {
		attempts++
		if attempts < 3 {
			return errors.New("jembi unavailable")
		}
		q.Close()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestClosedQueueRejectsTasks(t *testing.T) {
	q := NewMemory(1)
	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Enqueue(context.Background(), task(pipeline.StageValidate)), ErrClosed)
}

func TestConsumeStopsOnCancel(t *testing.T) {
	q := NewMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Consume(ctx, func(context.Context, pipeline.Task) error { return nil }), context.Canceled)
}

func TestCloseReleasesBlockedEnqueue(t *testing.T) {
	q := NewMemory(1)
	require.NoError(t, q.Enqueue(context.Background(), task(pipeline.StageValidate)))

	errs := make(chan error, 1)
	go func() {
		errs <- q.Enqueue(context.Background(), task(pipeline.StageExecute))
	}()

	closed := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked behind a pending Enqueue")
	}
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Enqueue still blocked after Close")
	}
	assert.Equal(t, 1, q.Len())
}

func TestConsumeDrainsBacklogAfterClose(t *testing.T) {
	q := NewMemory(4)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, task(pipeline.StageValidate)))
	require.NoError(t, q.Enqueue(ctx, task(pipeline.StageExecute)))
	q.Close()

	handled := 0
	err := q.Consume(ctx, func(context.Context, pipeline.Task) error {
		handled++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, handled)
}
