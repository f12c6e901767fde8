package ops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "hub/pkg/domain"
	audit "hub/pkg/platform/audit"
	"hub/pkg/platform/audit/store/memory"
)

type countingStore struct {
	calls int
	err   error
}

func (s *countingStore) Append(context.Context, audit.Event) error {
	s.calls++
	return s.err
}

func (s *countingStore) ListByRecord(context.Context, id.RecordID) ([]audit.Event, error) {
	return nil, nil
}

func TestTrackPersistsOperationsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	tracker := New(store)
	rec := id.NewRecordID()

	tracker.Track(context.Background(), audit.Event{RecordID: rec, Action: string(audit.EventRecordValidated)})

	events, err := store.ListByRecord(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestTrackHonoursSampleRate(t *testing.T) {
	store := &countingStore{}
	sampler := NewSampler(1)
	sampler.SetRate(string(audit.EventRecordValidated), 0)
	tracker := New(store, WithSampler(sampler))

	tracker.Track(context.Background(), audit.Event{Action: string(audit.EventRecordValidated)})
	tracker.Track(context.Background(), audit.Event{Action: string(audit.EventRecordExecuted)})

	assert.Equal(t, 1, store.calls)
}

func TestTrackStopsWritingWhileStoreFails(t *testing.T) {
	store := &countingStore{err: errors.New("connection refused")}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }
	tracker := New(store, WithCircuitBreaker(cb))

	for range 5 {
		tracker.Track(context.Background(), audit.Event{Action: string(audit.EventRecordExecuted)})
	}
	assert.Equal(t, 2, store.calls)
	assert.True(t, cb.IsOpen())

	now = now.Add(2 * time.Minute)
	store.err = nil
	tracker.Track(context.Background(), audit.Event{Action: string(audit.EventRecordExecuted)})
	assert.Equal(t, 3, store.calls)
	assert.False(t, cb.IsOpen())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(3, time.Second)
	cb.now = func() time.Time { return now }
	fail := errors.New("boom")

	for range 3 {
		require.True(t, cb.Allow())
		cb.Record(fail)
	}
	assert.False(t, cb.Allow())

	now = now.Add(2 * time.Second)
	require.True(t, cb.Allow())
	assert.True(t, cb.Record(fail))
	assert.False(t, cb.Allow())
}

func TestSamplerClampsRates(t *testing.T) {
	s := NewSampler(4)
	s.float = func() float64 { return 0.99 }
	assert.True(t, s.Keep("anything"))

	s.SetRate("noisy", -1)
	assert.False(t, s.Keep("noisy"))

	s.SetRate("half", 0.5)
	assert.False(t, s.Keep("half"))
	s.float = func() float64 { return 0.1 }
	assert.True(t, s.Keep("half"))
}
