//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hub/internal/records/models"
	"hub/internal/records/store"
	id "hub/pkg/domain"
	"hub/pkg/platform/sentinel"
	"hub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.pg.DB)
	s.Require().NoError(s.store.Migrate(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresStoreSuite) record(action string, created time.Time) *models.Record {
	return &models.Record{
		ID:           id.NewRecordID(),
		Kind:         models.KindChange,
		Action:       action,
		RegistrantID: "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6e",
		Data:         map[string]any{"reason": "miscarriage", "msisdn_device": "+27825550003"},
		Source:       models.Source{ID: 4, Name: "OPTOUT USSD APP", Authority: models.AuthorityPatient},
		CreatedAt:    created,
	}
}

func (s *PostgresStoreSuite) TestCreateGetSave() {
	rec := s.record("momconnect_loss_switch", time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(s.ctx, rec))
	s.ErrorIs(s.store.Create(s.ctx, rec), sentinel.ErrConflict)

	got, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("miscarriage", got.Data["reason"])
	s.False(got.Validated)

	got.Validated = true
	delete(got.Data, "msisdn_device")
	got.Data["uuid_device"] = "7c6b5a4f-3e2d-4c1b-8a9f-0e1d2c3b4a59"
	s.Require().NoError(s.store.Save(s.ctx, got))

	again, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.True(again.Validated)
	s.NotContains(again.Data, "msisdn_device")
}

func (s *PostgresStoreSuite) TestListFiltersByActionAndWindow() {
	inside := s.record("momconnect_loss_switch", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	edge := s.record("pmtct_loss_switch", time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))
	outside := s.record("momconnect_loss_switch", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	other := s.record("baby_switch", time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC))
	for _, r := range []*models.Record{inside, edge, outside, other} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}

	got, err := s.store.List(s.ctx, models.RecordFilter{
		Kind:    models.KindChange,
		Actions: []string{"momconnect_loss_switch", "pmtct_loss_switch"},
		Since:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Until:   time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	var ids []id.RecordID
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	s.ElementsMatch([]id.RecordID{inside.ID, edge.ID}, ids)
}

func (s *PostgresStoreSuite) TestSubscriptionRequests() {
	req := &models.SubscriptionRequest{
		Identity: "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6e", Messageset: 7, NextSequenceNumber: 12,
		Lang: "eng_ZA", Schedule: 3,
	}
	s.Require().NoError(s.store.CreateRequest(s.ctx, req))

	has, err := s.store.HasRequest(s.ctx, req.Identity, 7)
	s.Require().NoError(err)
	s.True(has)
	has, err = s.store.HasRequest(s.ctx, req.Identity, 8)
	s.Require().NoError(err)
	s.False(has)

	reqs, err := s.store.ListRequests(s.ctx, req.Identity)
	s.Require().NoError(err)
	s.Require().Len(reqs, 1)
	s.Equal(12, reqs[0].NextSequenceNumber)
}
