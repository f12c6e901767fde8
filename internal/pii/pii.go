// Package pii moves personally identifying fields off pipeline records onto
// the registrant's Identity once they are no longer needed, and puts them
// back when a record has to be reprocessed.
package pii

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hub/internal/clients/identity"
	"hub/internal/clients/remote"
	"hub/internal/ports"
	"hub/internal/records/models"
)

const (
	langField  = "language"
	langDetail = "lang_code"
)

// FieldSet lists the PII keys held for one record kind. Detail fields are
// copied onto the Identity; Address fields are swapped for identity ids.
type FieldSet struct {
	Detail  []string
	Address []string
}

var (
	registrationFields = FieldSet{
		Detail: []string{
			"id_type", "mom_dob", "passport_no", "passport_origin", "sa_id_no",
			"language", "consent", "mom_given_name", "mom_family_name", "mom_email",
		},
		Address: []string{"msisdn_device", "msisdn_registrant"},
	}
	changeFields = FieldSet{
		Detail: []string{
			"id_type", "dob", "passport_no", "passport_origin", "sa_id_no",
			"persal_no", "sanc_no", "language",
		},
		Address: []string{"msisdn_device", "msisdn_new", "msisdn_old"},
	}
)

// FieldsFor returns the PII keys for kind.
func FieldsFor(kind models.Kind) FieldSet {
	if kind == models.KindChange {
		return changeFields
	}
	return registrationFields
}

// DetailKey is the Identity details key a record field is stored under.
func DetailKey(field string) string {
	if field == langField {
		return langDetail
	}
	return field
}

// UUIDKey is the record key that replaces an msisdn_* field after anonymizing.
func UUIDKey(field string) string {
	return "uuid_" + strings.TrimPrefix(field, "msisdn_")
}

// Manager runs the PII lifecycle against the Identity Service.
type Manager struct {
	identities ports.IdentityService
	logger     *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New builds a Manager.
func New(identities ports.IdentityService, opts ...Option) *Manager {
	m := &Manager{identities: identities, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Anonymize moves rec's PII onto the registrant Identity and replaces each
// MSISDN with the id of the identity owning it. rec is modified in place and
// must be persisted by the caller. Running it again is a no-op.
func (m *Manager) Anonymize(ctx context.Context, rec *models.Record) error {
	fields := FieldsFor(rec.Kind)

	var present []string
	for _, f := range fields.Detail {
		if rec.Has(f) {
			present = append(present, f)
		}
	}
	if len(present) > 0 {
		ident, err := m.identities.Get(ctx, rec.RegistrantID)
		if err != nil {
			return fmt.Errorf("anonymize %s: load registrant: %w", rec.ID, err)
		}
		for _, f := range present {
			ident.SetDetail(DetailKey(f), rec.Data[f])
		}
		if _, err := m.identities.Update(ctx, ident.ID, ident.Details); err != nil {
			return fmt.Errorf("anonymize %s: update registrant: %w", rec.ID, err)
		}
		for _, f := range present {
			delete(rec.Data, f)
		}
	}

	for _, f := range fields.Address {
		addr, ok := rec.String(f)
		if !ok {
			continue
		}
		owner, err := m.ResolveOrCreateIdentityByAddress(ctx, identity.AddressMSISDN, addr)
		if err != nil {
			return fmt.Errorf("anonymize %s: %s: %w", rec.ID, f, err)
		}
		// Rehydrate reads the owner's default address back.
		if owner.ClaimDefaultAddress(identity.AddressMSISDN, addr) {
			if _, err := m.identities.Update(ctx, owner.ID, owner.Details); err != nil {
				return fmt.Errorf("anonymize %s: %s: mark default address: %w", rec.ID, f, err)
			}
		}
		delete(rec.Data, f)
		rec.Data[UUIDKey(f)] = owner.ID
	}
	return nil
}

// Rehydrate returns a copy of rec with PII restored from the Identity Service.
// Fields already on the record are left alone. rec itself is not modified.
func (m *Manager) Rehydrate(ctx context.Context, rec *models.Record) (*models.Record, error) {
	out := rec.Clone()
	fields := FieldsFor(rec.Kind)

	if rec.RegistrantID != "" {
		ident, err := m.identities.Get(ctx, rec.RegistrantID)
		switch {
		case remote.IsNotFound(err):
			m.logger.WarnContext(ctx, "registrant identity missing, nothing to rehydrate",
				"record_id", rec.ID.String(), "registrant_id", rec.RegistrantID)
		case err != nil:
			return nil, fmt.Errorf("rehydrate %s: load registrant: %w", rec.ID, err)
		default:
			for _, f := range fields.Detail {
				if out.Has(f) {
					continue
				}
				if v, ok := ident.Detail(DetailKey(f)); ok {
					out.Data[f] = v
				}
			}
		}
	}

	for _, f := range fields.Address {
		if out.Has(f) {
			continue
		}
		ownerID, ok := out.String(UUIDKey(f))
		if !ok || ownerID == "" {
			continue
		}
		owner, err := m.identities.Get(ctx, ownerID)
		if err != nil {
			if remote.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("rehydrate %s: %s: %w", rec.ID, f, err)
		}
		if addr := owner.DefaultAddress(identity.AddressMSISDN); addr != "" {
			out.Data[f] = addr
		}
	}
	return out, nil
}

// ResolveOrCreateIdentityByAddress returns the first identity for which addr
// is the primary address of addrType, creating a minimal identity when there
// is none. Concurrent callers for a new address may each create one.
func (m *Manager) ResolveOrCreateIdentityByAddress(ctx context.Context, addrType, addr string) (*identity.Identity, error) {
	candidates, err := m.identities.FindByAddress(ctx, addrType, addr)
	if err != nil {
		return nil, fmt.Errorf("find identity by %s: %w", addrType, err)
	}
	for i := range candidates {
		if candidates[i].IsPrimaryAddress(addrType, addr) {
			return &candidates[i], nil
		}
	}
	created, err := m.identities.Create(ctx, identity.NewAddressDetails(addrType, addr))
	if err != nil {
		return nil, fmt.Errorf("create identity for %s: %w", addrType, err)
	}
	m.logger.InfoContext(ctx, "created identity for address", "identity_id", created.ID, "address_type", addrType)
	return created, nil
}

// ResolveRegistrant fills rec.RegistrantID from msisdn_registrant when the
// intake source did not supply one. It reports whether the record changed.
func (m *Manager) ResolveRegistrant(ctx context.Context, rec *models.Record) (bool, error) {
	if rec.RegistrantID != "" {
		return false, nil
	}
	addr, ok := rec.String("msisdn_registrant")
	if !ok || addr == "" {
		return false, nil
	}
	owner, err := m.ResolveOrCreateIdentityByAddress(ctx, identity.AddressMSISDN, addr)
	if err != nil {
		return false, fmt.Errorf("resolve registrant for %s: %w", rec.ID, err)
	}
	rec.RegistrantID = owner.ID
	return true, nil
}
