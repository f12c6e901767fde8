package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hub/internal/records/models"
	id "hub/pkg/domain"
	"hub/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) record(action string, created time.Time) *models.Record {
	return &models.Record{
		ID:           id.NewRecordID(),
		Kind:         models.KindChange,
		Action:       action,
		RegistrantID: "reg-1",
		Data:         map[string]any{"nested": map[string]any{"k": "v"}},
		CreatedAt:    created,
	}
}

func (s *InMemoryStoreSuite) TestGetReturnsIsolatedCopy() {
	rec := s.record("baby_switch", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, rec))

	got, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	got.Data["nested"].(map[string]any)["k"] = "changed"

	again, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("v", again.Data["nested"].(map[string]any)["k"])
}

func (s *InMemoryStoreSuite) TestCreateAndSave() {
	s.Run("duplicate id conflicts", func() {
		rec := s.record("baby_switch", time.Now())
		s.Require().NoError(s.store.Create(s.ctx, rec))
		s.ErrorIs(s.store.Create(s.ctx, rec), sentinel.ErrConflict)
	})

	s.Run("save unknown record is not found", func() {
		s.ErrorIs(s.store.Save(s.ctx, s.record("baby_switch", time.Now())), sentinel.ErrNotFound)
	})

	s.Run("save keeps created_at", func() {
		created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		rec := s.record("nurse_optout", created)
		s.Require().NoError(s.store.Create(s.ctx, rec))
		rec.Validated = true
		rec.CreatedAt = time.Time{}
		s.Require().NoError(s.store.Save(s.ctx, rec))

		got, err := s.store.Get(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.True(got.Validated)
		s.Equal(created, got.CreatedAt)
	})
}

func (s *InMemoryStoreSuite) TestListFiltersAndOrders() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := s.record("momconnect_nonloss_optout", base.Add(2*time.Hour))
	early := s.record("momconnect_nonloss_optout", base.Add(time.Hour))
	other := s.record("baby_switch", base.Add(3*time.Hour))
	for _, r := range []*models.Record{late, early, other} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}

	got, err := s.store.List(s.ctx, models.RecordFilter{
		Kind:    models.KindChange,
		Actions: []string{"momconnect_nonloss_optout"},
		Since:   base,
	})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(early.ID, got[0].ID)
	s.Equal(late.ID, got[1].ID)

	got, err = s.store.List(s.ctx, models.RecordFilter{Until: base.Add(90 * time.Minute)})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(early.ID, got[0].ID)
}

func (s *InMemoryStoreSuite) TestSubscriptionRequests() {
	req := &models.SubscriptionRequest{Identity: "identity-1", Messageset: 7, NextSequenceNumber: 1, Lang: "eng_ZA", Schedule: 3}
	s.Require().NoError(s.store.CreateRequest(s.ctx, req))
	s.NotEmpty(req.ID)

	ok, err := s.store.HasRequest(s.ctx, "identity-1", 7)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.HasRequest(s.ctx, "identity-1", 8)
	s.Require().NoError(err)
	s.False(ok)

	reqs, err := s.store.ListRequests(s.ctx, "identity-1")
	s.Require().NoError(err)
	s.Len(reqs, 1)
}
