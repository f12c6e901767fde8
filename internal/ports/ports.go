// Package ports declares the collaborators the pipeline depends on so that the
// executor, PII manager, submitter and orchestrator can be wired with real
// clients in cmd/ and with fakes or gomock mocks in tests.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks IdentityService,SubscriptionService,Catalog,Reporter,RecordStore,RequestSink

import (
	"context"

	"hub/internal/clients/identity"
	"hub/internal/clients/stagebased"
	"hub/internal/records/models"
	id "hub/pkg/domain"
)

// IdentityService is the subset of the Identity Service the hub uses.
type IdentityService interface {
	Get(ctx context.Context, id string) (*identity.Identity, error)
	Create(ctx context.Context, details map[string]any) (*identity.Identity, error)
	Update(ctx context.Context, id string, details map[string]any) (*identity.Identity, error)
	FindByAddress(ctx context.Context, addrType, addr string) ([]identity.Identity, error)
}

// Catalog resolves messagesets and schedules.
type Catalog interface {
	ListMessagesets(ctx context.Context, shortName string) ([]stagebased.Messageset, error)
	GetMessageset(ctx context.Context, id int) (*stagebased.Messageset, error)
	GetSchedule(ctx context.Context, id int) (*stagebased.Schedule, error)
}

// SubscriptionService reads and mutates active subscriptions.
type SubscriptionService interface {
	Catalog
	ListSubscriptions(ctx context.Context, filter stagebased.SubscriptionFilter) ([]stagebased.Subscription, error)
	UpdateSubscription(ctx context.Context, id string, patch stagebased.SubscriptionPatch) error
}

// Reporter posts a compliance payload to one Jembi endpoint.
type Reporter interface {
	Post(ctx context.Context, endpoint string, payload any) error
}

// RecordStore loads and persists Registrations and Changes.
type RecordStore interface {
	Get(ctx context.Context, id id.RecordID) (*models.Record, error)
	Save(ctx context.Context, rec *models.Record) error
	List(ctx context.Context, filter models.RecordFilter) ([]*models.Record, error)
}

// RequestSink stores SubscriptionRequests for the Subscription Service to ingest.
type RequestSink interface {
	CreateRequest(ctx context.Context, req *models.SubscriptionRequest) error
	HasRequest(ctx context.Context, identity string, messageset int) (bool, error)
}
