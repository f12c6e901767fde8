// Package fakes holds in-memory stand-ins for the Identity, Subscription and
// Jembi services, for tests that run the pipeline end to end.
package fakes

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"hub/internal/clients/identity"
	"hub/internal/clients/remote"
	"hub/pkg/platform/datamap"
)

// Identities is an in-memory Identity Service.
type Identities struct {
	mu      sync.Mutex
	items   map[string]*identity.Identity
	Creates int
	Updates int
}

// NewIdentities returns an empty store.
func NewIdentities() *Identities {
	return &Identities{items: map[string]*identity.Identity{}}
}

// Put stores ident as-is, replacing any identity with the same id.
func (f *Identities) Put(ident *identity.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[ident.ID] = ident.Clone()
}

// Snapshot returns a copy of the stored identity, or nil.
func (f *Identities) Snapshot(id string) *identity.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].Clone()
}

func (f *Identities) Get(_ context.Context, id string) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.items[id]
	if !ok {
		return nil, remote.FromStatus("identity-store", 404, "not found")
	}
	return ident.Clone(), nil
}

func (f *Identities) Create(_ context.Context, details map[string]any) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident := &identity.Identity{ID: uuid.NewString(), Details: datamap.Clone(details)}
	f.items[ident.ID] = ident
	f.Creates++
	return ident.Clone(), nil
}

func (f *Identities) Update(_ context.Context, id string, details map[string]any) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.items[id]
	if !ok {
		return nil, remote.FromStatus("identity-store", 404, "not found")
	}
	ident.Details = datamap.Clone(details)
	f.Updates++
	return ident.Clone(), nil
}

func (f *Identities) FindByAddress(_ context.Context, addrType, addr string) ([]identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var out []identity.Identity
	for _, id := range ids {
		ident := f.items[id]
		if _, ok := ident.Addresses(addrType)[addr]; ok {
			out = append(out, *ident.Clone())
		}
	}
	return out, nil
}
