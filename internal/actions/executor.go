// Package actions applies validated Registrations and Changes to the
// Subscription and Identity services.
//
// Every handler creates new SubscriptionRequests before deactivating anything
// and skips requests that already exist, so a redelivered record converges on
// the same state instead of doubling it.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"hub/internal/clients/identity"
	"hub/internal/clients/stagebased"
	"hub/internal/ports"
	"hub/internal/records/models"
	"hub/internal/schedule"
	"hub/internal/submission"
)

var (
	// ErrUnknownAction is returned for a change action with no handler.
	ErrUnknownAction = errors.New("unknown change action")
	// ErrUnsupportedRegistration is returned for registration types the hub
	// validates but cannot subscribe yet.
	ErrUnsupportedRegistration = errors.New("registration type not supported")
	// ErrNoRegistrant is returned when a record reaches execution without a
	// resolved registrant.
	ErrNoRegistrant = errors.New("record has no registrant")
)

const defaultLookupConcurrency = 4

// Outcome is what execution decided. Submit names the report to send next,
// empty for none. Aborted marks a legitimate no-op.
type Outcome struct {
	Submit  submission.Family
	Aborted bool
	Message string
}

// Executor runs the handler for a record's action.
type Executor struct {
	identities ports.IdentityService
	subs       ports.SubscriptionService
	catalog    ports.Catalog
	sink       ports.RequestSink
	sequencer  *schedule.Sequencer
	logger     *slog.Logger
	now        func() time.Time
	lookups    int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock pins "today" for gestational and baby age calculations.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithCatalog routes messageset name lookups through catalog, typically a
// cached one, instead of the Subscription Service.
func WithCatalog(catalog ports.Catalog) Option {
	return func(e *Executor) {
		if catalog != nil {
			e.catalog = catalog
		}
	}
}

// WithLookupConcurrency bounds concurrent messageset lookups.
func WithLookupConcurrency(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.lookups = n
		}
	}
}

// New builds an Executor.
func New(identities ports.IdentityService, subs ports.SubscriptionService, sink ports.RequestSink, sequencer *schedule.Sequencer, opts ...Option) *Executor {
	e := &Executor{
		identities: identities,
		subs:       subs,
		catalog:    subs,
		sink:       sink,
		sequencer:  sequencer,
		logger:     slog.Default(),
		now:        time.Now,
		lookups:    defaultLookupConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type handlerFunc func(e *Executor, ctx context.Context, rec *models.Record) (*Outcome, error)

var handlers = map[models.ChangeAction]handlerFunc{
	models.ActionBabySwitch:                     (*Executor).babySwitch,
	models.ActionPMTCTLossSwitch:                (*Executor).lossSwitch,
	models.ActionMomConnectLossSwitch:           (*Executor).lossSwitch,
	models.ActionPMTCTLossOptout:                (*Executor).lossOptout,
	models.ActionMomConnectLossOptout:           (*Executor).lossOptout,
	models.ActionPMTCTNonlossOptout:             (*Executor).nonlossOptout,
	models.ActionMomConnectNonlossOptout:        (*Executor).nonlossOptout,
	models.ActionNurseOptout:                    (*Executor).nurseOptout,
	models.ActionMomConnectChangeLanguage:       (*Executor).changeLanguage,
	models.ActionMomConnectChangeMSISDN:         (*Executor).changeMSISDN,
	models.ActionNurseChangeMSISDN:              (*Executor).changeMSISDN,
	models.ActionMomConnectChangeIdentification: (*Executor).changeIdentification,
	models.ActionNurseUpdateDetail:              (*Executor).nurseUpdateDetail,
	models.ActionSwitchChannel:                  (*Executor).switchChannel,
}

// Execute applies rec. The record must already be validated.
func (e *Executor) Execute(ctx context.Context, rec *models.Record) (*Outcome, error) {
	if rec.RegistrantID == "" {
		return nil, fmt.Errorf("execute %s: %w", rec.ID, ErrNoRegistrant)
	}
	if rec.Kind == models.KindRegistration {
		return e.executeRegistration(ctx, rec)
	}
	h, ok := handlers[rec.ChangeAction()]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, rec.Action)
	}
	out, err := h(e, ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("execute %s %s: %w", rec.Action, rec.ID, err)
	}
	return out, nil
}

// activeSub is an active subscription with its messageset short name.
type activeSub struct {
	stagebased.Subscription
	ShortName string
}

func (s activeSub) contains(part string) bool { return strings.Contains(s.ShortName, part) }

func (s activeSub) whatsapp() bool { return strings.HasPrefix(s.ShortName, "whatsapp_") }

// activeSubs lists identityID's active subscriptions and names their
// messagesets.
func (e *Executor) activeSubs(ctx context.Context, identityID string) ([]activeSub, error) {
	active := true
	subs, err := e.subs.ListSubscriptions(ctx, stagebased.SubscriptionFilter{Identity: identityID, Active: &active})
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}

	out := make([]activeSub, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.lookups)
	for i, sub := range subs {
		g.Go(func() error {
			ms, err := e.catalog.GetMessageset(gctx, sub.Messageset)
			if err != nil {
				return fmt.Errorf("messageset %d: %w", sub.Messageset, err)
			}
			out[i] = activeSub{Subscription: sub, ShortName: ms.ShortName}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// deactivate turns off every sub for which drop holds and returns how many.
func (e *Executor) deactivate(ctx context.Context, subs []activeSub, drop func(activeSub) bool) (int, error) {
	off := false
	n := 0
	for _, sub := range subs {
		if !drop(sub) {
			continue
		}
		if err := e.subs.UpdateSubscription(ctx, sub.ID, stagebased.SubscriptionPatch{Active: &off}); err != nil {
			return n, fmt.Errorf("deactivate subscription %s: %w", sub.ID, err)
		}
		n++
	}
	return n, nil
}

func all(activeSub) bool { return true }

func exceptNurse(s activeSub) bool { return !s.contains("nurseconnect") }

// subscribe resolves shortName at position and requests it for identityID.
func (e *Executor) subscribe(ctx context.Context, identityID, shortName string, position int, lang string, active []activeSub) (bool, error) {
	res, err := e.sequencer.Resolve(ctx, shortName, position)
	if err != nil {
		return false, err
	}
	return e.request(ctx, &models.SubscriptionRequest{
		Identity:           identityID,
		Messageset:         res.MessagesetID,
		NextSequenceNumber: res.Sequence,
		Lang:               lang,
		Schedule:           res.ScheduleID,
	}, active)
}

// request stores req unless identity is already on that messageset or an
// equivalent request is pending. It reports whether req was stored.
func (e *Executor) request(ctx context.Context, req *models.SubscriptionRequest, active []activeSub) (bool, error) {
	for _, sub := range active {
		if sub.Messageset == req.Messageset {
			return false, nil
		}
	}
	exists, err := e.sink.HasRequest(ctx, req.Identity, req.Messageset)
	if err != nil {
		return false, fmt.Errorf("check subscription request: %w", err)
	}
	if exists {
		return false, nil
	}
	if err := e.sink.CreateRequest(ctx, req); err != nil {
		return false, fmt.Errorf("create subscription request: %w", err)
	}
	e.logger.InfoContext(ctx, "subscription request created",
		"identity_id", req.Identity, "messageset", req.Messageset, "next_sequence_number", req.NextSequenceNumber)
	return true, nil
}

// updateIdentity loads id, applies mutate and saves it when mutate reports
// a change.
func (e *Executor) updateIdentity(ctx context.Context, id string, mutate func(*identity.Identity) bool) error {
	ident, err := e.identities.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load identity %s: %w", id, err)
	}
	if ident.Details == nil {
		ident.Details = map[string]any{}
	}
	if !mutate(ident) {
		return nil
	}
	if _, err := e.identities.Update(ctx, ident.ID, ident.Details); err != nil {
		return fmt.Errorf("update identity %s: %w", id, err)
	}
	return nil
}

// setWithHistory sets section[key] to value and appends the prior value to
// historyKey on ident. Unchanged values are not recorded.
func setWithHistory(ident *identity.Identity, section map[string]any, key string, value any, historyKey string, at time.Time) bool {
	prior, had := section[key]
	if had && prior == value {
		return false
	}
	section[key] = value
	ident.AppendHistory(historyKey, identity.HistoryEntry(at, map[string]any{
		"field": key, "old": prior, "new": value,
	}))
	return true
}
