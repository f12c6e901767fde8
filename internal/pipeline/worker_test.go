package pipeline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hub/internal/actions"
	"hub/internal/clients/identity"
	"hub/internal/clients/remote"
	"hub/internal/pii"
	"hub/internal/pipeline"
	"hub/internal/pipeline/queue"
	"hub/internal/records/models"
	"hub/internal/records/store"
	"hub/internal/schedule"
	"hub/internal/submission"
	"hub/internal/validation"
	id "hub/pkg/domain"
	"hub/pkg/testutil/fakes"
)

type flakyReporter struct {
	failures int
	posts    int
}

func (r *flakyReporter) Post(context.Context, string, any) error {
	if r.failures > 0 {
		r.failures--
		return remote.FromStatus("jembi", http.StatusServiceUnavailable, "busy")
	}
	r.posts++
	return nil
}

func newWorker(t *testing.T, reporter *flakyReporter, maxAttempts int, opts ...pipeline.WorkerOption) (*pipeline.Worker, *queue.Memory, *store.InMemoryStore, *models.Record) {
	t.Helper()
	ctx := context.Background()
	records := store.NewInMemoryStore()
	identities := fakes.NewIdentities()
	subs := fakes.NewSubscriptions()
	subs.SeedCatalog()

	registrant := "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b"
	identities.Put(&identity.Identity{ID: registrant, Details: identity.NewAddressDetails(identity.AddressMSISDN, "+27825550002")})
	subs.Subscribe(registrant, "momconnect_prebirth.patient.1", "eng_ZA", 3)

	rec := &models.Record{
		ID:           id.NewRecordID(),
		Kind:         models.KindChange,
		Action:       string(models.ActionMomConnectNonlossOptout),
		RegistrantID: registrant,
		Data:         map[string]any{"reason": "not_useful"},
		Source:       models.Source{ID: 3, Name: "OPTOUT USSD APP", Authority: models.AuthorityPatient},
		CreatedAt:    time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC),
	}
	require.NoError(t, records.Create(ctx, rec))

	executor := actions.New(identities, subs, records, schedule.NewSequencer(subs))
	orchestrator := pipeline.New(records, validation.New(), executor,
		submission.New(identities, records, reporter), pii.New(identities))
	q := queue.NewMemory(16)
	opts = append([]pipeline.WorkerOption{pipeline.WithBackoff(submission.RetryPolicy{
		Sleep: func(context.Context, time.Duration) error { return nil },
	})}, opts...)
	return pipeline.NewWorker(orchestrator, q, nil, maxAttempts, opts...), q, records, rec
}

func TestWorkerChainsStagesThroughQueue(t *testing.T) {
	ctx := context.Background()
	reporter := &flakyReporter{}
	worker, q, records, rec := newWorker(t, reporter, 3)

	require.NoError(t, q.Enqueue(ctx, pipeline.Task{RecordID: rec.ID, Kind: rec.Kind, Stage: pipeline.StageValidate}))
	require.NoError(t, q.Drain(ctx, worker.Handle))

	assert.Equal(t, 1, reporter.posts)
	assert.Zero(t, q.Len())
	stored, err := records.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.Validated)
}

func TestWorkerRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	reporter := &flakyReporter{failures: 2}
	worker, q, _, rec := newWorker(t, reporter, 5)

	require.NoError(t, q.Enqueue(ctx, pipeline.Task{RecordID: rec.ID, Kind: rec.Kind, Stage: pipeline.StageValidate}))
	require.NoError(t, q.Drain(ctx, worker.Handle))

	assert.Equal(t, 1, reporter.posts)
}

func TestWorkerBacksOffBeforeRequeue(t *testing.T) {
	ctx := context.Background()
	reporter := &flakyReporter{failures: 3}
	var delays []time.Duration
	worker, q, _, rec := newWorker(t, reporter, 5, pipeline.WithBackoff(submission.RetryPolicy{
		BaseDelay: 10 * time.Millisecond,
		Rand:      func() float64 { return 0 },
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}))

	require.NoError(t, q.Enqueue(ctx, pipeline.Task{RecordID: rec.ID, Kind: rec.Kind, Stage: pipeline.StageValidate}))
	require.NoError(t, q.Drain(ctx, worker.Handle))

	assert.Equal(t, 1, reporter.posts)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}, delays)
}

func TestWorkerBackoffHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	reporter := &flakyReporter{failures: 1}
	worker, q, _, rec := newWorker(t, reporter, 5, pipeline.WithBackoff(submission.RetryPolicy{BaseDelay: time.Hour}))

	require.NoError(t, q.Enqueue(ctx, pipeline.Task{RecordID: rec.ID, Kind: rec.Kind, Stage: pipeline.StageValidate}))
	err := q.Drain(ctx, worker.Handle)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, reporter.posts)
	assert.Zero(t, q.Len())
}

func TestWorkerGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	reporter := &flakyReporter{failures: 10}
	worker, q, _, rec := newWorker(t, reporter, 2)

	require.NoError(t, q.Enqueue(ctx, pipeline.Task{RecordID: rec.ID, Kind: rec.Kind, Stage: pipeline.StageValidate}))
	require.NoError(t, q.Drain(ctx, worker.Handle))

	assert.Zero(t, reporter.posts)
	assert.Equal(t, 8, reporter.failures)
}

func TestTaskJSONRoundTrip(t *testing.T) {
	task := pipeline.Task{RecordID: id.NewRecordID(), Kind: models.KindChange, Stage: pipeline.StageSubmit, Family: submission.FamilyOptout, Attempt: 2}
	raw, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"stage":"submit"`)

	var decoded pipeline.Task
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, task, decoded)
}
