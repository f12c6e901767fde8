package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"hub/internal/records/models"
	id "hub/pkg/domain"
	"hub/pkg/platform/datamap"
	"hub/pkg/platform/sentinel"
)

// InMemoryStore keeps records and subscription requests in process memory.
// Used by tests and single-process runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  map[id.RecordID]*models.Record
	requests []*models.SubscriptionRequest
	now      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[id.RecordID]*models.Record),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return sentinel.ErrConflict
	}
	c := rec.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.UpdatedAt = c.CreatedAt
	s.records[rec.ID] = c
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[rec.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c := rec.Clone()
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	s.records[rec.ID] = c
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.RecordFilter) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, rec := range s.records {
		if matches(rec, filter) {
			out = append(out, rec.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Record) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func matches(rec *models.Record, f models.RecordFilter) bool {
	if f.Kind != "" && rec.Kind != f.Kind {
		return false
	}
	if len(f.Actions) > 0 && !slices.Contains(f.Actions, rec.Action) {
		return false
	}
	if f.RegistrantID != "" && rec.RegistrantID != f.RegistrantID {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, rec.ID) {
		return false
	}
	if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && rec.CreatedAt.After(f.Until) {
		return false
	}
	if f.SourceID != nil && rec.Source.ID != *f.SourceID {
		return false
	}
	if f.Validated != nil && rec.Validated != *f.Validated {
		return false
	}
	return true
}

func (s *InMemoryStore) CreateRequest(_ context.Context, req *models.SubscriptionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *req
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.Metadata = datamap.Clone(req.Metadata)
	s.requests = append(s.requests, &c)
	req.ID = c.ID
	return nil
}

func (s *InMemoryStore) HasRequest(_ context.Context, identityID string, messageset int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.Identity == identityID && r.Messageset == messageset {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ListRequests(_ context.Context, identityID string) ([]*models.SubscriptionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SubscriptionRequest
	for _, r := range s.requests {
		if identityID == "" || r.Identity == identityID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}
