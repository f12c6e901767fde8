package fakes

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"hub/internal/clients/remote"
	"hub/internal/clients/stagebased"
	"hub/internal/records/models"
)

const sbmService = "stage-based-messaging"

// Subscriptions is an in-memory Subscription Service with its catalog.
type Subscriptions struct {
	mu          sync.Mutex
	messagesets map[int]stagebased.Messageset
	schedules   map[int]stagebased.Schedule
	subs        map[string]*stagebased.Subscription
	order       []string
	nextSet     int
	Patches     int
}

// NewSubscriptions returns an empty service.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{
		messagesets: map[int]stagebased.Messageset{},
		schedules:   map[int]stagebased.Schedule{},
		subs:        map[string]*stagebased.Subscription{},
		nextSet:     1,
	}
}

// AddMessageset registers shortName on a schedule delivering on days
// (e.g. "1,4") and returns its id.
func (f *Subscriptions) AddMessageset(shortName, days string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSet
	f.nextSet++
	f.schedules[id] = stagebased.Schedule{ID: id, DayOfWeek: days}
	f.messagesets[id] = stagebased.Messageset{ID: id, ShortName: shortName, DefaultSchedule: id}
	return id
}

// MessagesetID returns the id registered for shortName, or 0.
func (f *Subscriptions) MessagesetID(shortName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ms := range f.messagesets {
		if ms.ShortName == shortName {
			return id
		}
	}
	return 0
}

// Subscribe adds an active subscription for identity on shortName.
func (f *Subscriptions) Subscribe(identityID, shortName, lang string, next int) string {
	setID := f.MessagesetID(shortName)
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &stagebased.Subscription{
		ID:                 uuid.NewString(),
		Identity:           identityID,
		Messageset:         setID,
		NextSequenceNumber: next,
		Lang:               lang,
		Active:             true,
		Schedule:           f.messagesets[setID].DefaultSchedule,
	}
	f.subs[sub.ID] = sub
	f.order = append(f.order, sub.ID)
	return sub.ID
}

// Ingest turns SubscriptionRequests into active subscriptions, the way the
// real service does when it polls the hub.
func (f *Subscriptions) Ingest(reqs []*models.SubscriptionRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range reqs {
		sub := &stagebased.Subscription{
			ID:                 uuid.NewString(),
			Identity:           req.Identity,
			Messageset:         req.Messageset,
			NextSequenceNumber: req.NextSequenceNumber,
			Lang:               req.Lang,
			Active:             true,
			Schedule:           req.Schedule,
			Metadata:           req.Metadata,
		}
		f.subs[sub.ID] = sub
		f.order = append(f.order, sub.ID)
	}
}

// Active returns the short names of identity's active subscriptions with
// their languages, in creation order.
func (f *Subscriptions) Active(identityID string) []ActiveSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ActiveSub
	for _, id := range f.order {
		sub := f.subs[id]
		if sub.Identity == identityID && sub.Active {
			out = append(out, ActiveSub{ShortName: f.messagesets[sub.Messageset].ShortName, Lang: sub.Lang, Next: sub.NextSequenceNumber})
		}
	}
	return out
}

// ActiveSub summarises one active subscription.
type ActiveSub struct {
	ShortName string
	Lang      string
	Next      int
}

func (f *Subscriptions) ListSubscriptions(_ context.Context, filter stagebased.SubscriptionFilter) ([]stagebased.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []stagebased.Subscription
	for _, id := range f.order {
		sub := f.subs[id]
		if filter.Identity != "" && sub.Identity != filter.Identity {
			continue
		}
		if filter.Active != nil && sub.Active != *filter.Active {
			continue
		}
		if filter.Messageset != nil && sub.Messageset != *filter.Messageset {
			continue
		}
		out = append(out, *sub)
	}
	return out, nil
}

func (f *Subscriptions) UpdateSubscription(_ context.Context, id string, patch stagebased.SubscriptionPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok {
		return remote.FromStatus(sbmService, 404, "not found")
	}
	if patch.Active != nil {
		sub.Active = *patch.Active
	}
	if patch.Lang != nil {
		sub.Lang = *patch.Lang
	}
	f.Patches++
	return nil
}

func (f *Subscriptions) ListMessagesets(_ context.Context, shortName string) ([]stagebased.Messageset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []stagebased.Messageset
	for _, ms := range f.messagesets {
		if shortName == "" || ms.ShortName == shortName {
			out = append(out, ms)
		}
	}
	slices.SortFunc(out, func(a, b stagebased.Messageset) int { return a.ID - b.ID })
	return out, nil
}

func (f *Subscriptions) GetMessageset(_ context.Context, id int) (*stagebased.Messageset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ms, ok := f.messagesets[id]
	if !ok {
		return nil, remote.FromStatus(sbmService, 404, "not found")
	}
	return &ms, nil
}

func (f *Subscriptions) GetSchedule(_ context.Context, id int) (*stagebased.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sched, ok := f.schedules[id]
	if !ok {
		return nil, remote.FromStatus(sbmService, 404, "not found")
	}
	return &sched, nil
}

// SeedCatalog registers every messageset the pipeline resolves, all on a
// twice weekly schedule except the once weekly loss and popi sets.
func (f *Subscriptions) SeedCatalog() {
	names := []string{
		"popi.hw_partial.1", "popi.hw_full.1",
		"nurseconnect.hw_full.1", "whatsapp_nurseconnect.hw_full.1",
		"momconnect_prebirth.patient.1", "momconnect_prebirth.hw_partial.1",
		"whatsapp_momconnect_prebirth.patient.1", "whatsapp_momconnect_prebirth.hw_partial.1",
		"loss_miscarriage.patient.1", "loss_stillbirth.patient.1", "loss_babydeath.patient.1",
		"whatsapp_loss_miscarriage.patient.1", "whatsapp_loss_stillbirth.patient.1", "whatsapp_loss_babydeath.patient.1",
	}
	for _, kind := range []string{"momconnect_prebirth", "whatsapp_momconnect_prebirth"} {
		for b := 1; b <= 6; b++ {
			names = append(names, kind+".hw_full."+strconv.Itoa(b))
		}
	}
	for _, kind := range []string{"momconnect_postbirth", "whatsapp_momconnect_postbirth"} {
		for b := 1; b <= 2; b++ {
			names = append(names, kind+".hw_full."+strconv.Itoa(b))
		}
	}
	for _, kind := range []string{"pmtct_prebirth", "whatsapp_pmtct_prebirth"} {
		for _, auth := range []string{"patient", "hw_full"} {
			for b := 1; b <= 3; b++ {
				names = append(names, kind+"."+auth+"."+strconv.Itoa(b))
			}
		}
	}
	for _, kind := range []string{"pmtct_postbirth", "whatsapp_pmtct_postbirth"} {
		for _, auth := range []string{"patient", "hw_full"} {
			for b := 1; b <= 2; b++ {
				names = append(names, kind+"."+auth+"."+strconv.Itoa(b))
			}
		}
	}
	for _, name := range names {
		days := "1,4"
		if strings.HasPrefix(name, "popi") || strings.Contains(name, "loss_") {
			days = "1"
		}
		f.AddMessageset(name, days)
	}
}
