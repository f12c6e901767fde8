// Package validation checks that a Registration or Change carries every field
// its action requires, in a fixed order, returning human-readable errors.
// Validation never fails with an error: bad input is reported in the result.
package validation

import (
	"fmt"
	"strings"
	"time"

	"hub/internal/records/models"
	"hub/pkg/platform/datamap"
)

// FieldSet is the set of keys present in a record's data.
type FieldSet map[string]struct{}

// Has reports whether key is present.
func (f FieldSet) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Equals reports whether f holds exactly keys.
func (f FieldSet) Equals(keys ...string) bool {
	if len(f) != len(keys) {
		return false
	}
	for _, k := range keys {
		if !f.Has(k) {
			return false
		}
	}
	return true
}

// Check inspects one concern of a record and returns zero or more errors.
type Check func(fields FieldSet, rec *models.Record) []string

// Validator runs the ordered checks for a record's kind and action.
type Validator struct {
	now func() time.Time
}

// Option customises a Validator.
type Option func(*Validator)

// WithClock pins "today" for date window checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// New builds a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns ok when every required field is present and well formed,
// otherwise the ordered list of problems.
func (v *Validator) Validate(rec *models.Record) (bool, []string) {
	var errs []string
	if !IsValidUUID(rec.RegistrantID) {
		errs = append(errs, "Invalid UUID registrant_id")
	}

	fields := FieldSet(datamap.Keys(rec.Data))
	var checks []Check
	switch rec.Kind {
	case models.KindRegistration:
		checks = v.registrationChecks(rec)
	case models.KindChange:
		checks = v.changeChecks(rec)
	default:
		errs = append(errs, fmt.Sprintf("Unknown record kind %q", rec.Kind))
	}
	for _, check := range checks {
		errs = append(errs, check(fields, rec)...)
	}
	return len(errs) == 0, errs
}

func (v *Validator) registrationChecks(rec *models.Record) []Check {
	regType := string(rec.RegType())
	switch {
	case strings.Contains(regType, "pmtct_prebirth"):
		return []Check{checkLang, v.checkMomDOB, v.checkEDD, checkOperatorID}
	case strings.Contains(regType, "pmtct_postbirth"):
		return []Check{checkLang, v.checkMomDOB, v.checkBabyDOB, checkOperatorID}
	case strings.Contains(regType, "nurseconnect"):
		return []Check{checkFaccode, checkOperatorID, checkMSISDNRegistrant, checkMSISDNDevice, checkLang}
	case rec.RegType() == models.RegMomConnectPrebirth || rec.RegType() == models.RegWhatsAppPrebirth:
		checks := []Check{checkOperatorID, checkMSISDNRegistrant, checkMSISDNDevice, checkLang, checkConsent}
		switch rec.Source.Authority {
		case models.AuthorityHWFull:
			checks = append(checks, v.checkID, v.checkEDD, checkFaccode)
		case models.AuthorityHWPartial:
			checks = append(checks, v.checkID)
		}
		return checks
	case rec.RegType() == models.RegMomConnectPostbirth:
		return []Check{fixed("Momconnect postbirth not yet supported")}
	case rec.RegType() == models.RegLossGeneral:
		return []Check{fixed("Loss general not yet supported")}
	default:
		return []Check{fixed(fmt.Sprintf("Unknown registration type %q", rec.Action))}
	}
}

func (v *Validator) changeChecks(rec *models.Record) []Check {
	switch action := rec.ChangeAction(); action {
	case models.ActionPMTCTLossSwitch, models.ActionPMTCTLossOptout,
		models.ActionMomConnectLossSwitch, models.ActionMomConnectLossOptout:
		return []Check{reasonIn(LossReasons, "Not a valid loss reason")}
	case models.ActionPMTCTNonlossOptout:
		return []Check{reasonIn(PMTCTNonlossReasons, "Not a valid nonloss reason")}
	case models.ActionMomConnectNonlossOptout:
		return []Check{reasonIn(MomConnectNonlossReasons, "Not a valid nonloss reason")}
	case models.ActionNurseOptout:
		return []Check{reasonIn(NurseOptoutReasons, "Not a valid optout reason")}
	case models.ActionNurseUpdateDetail:
		return []Check{checkNurseUpdateDetail}
	case models.ActionMomConnectChangeIdentification:
		return []Check{checkIdentificationUpdate}
	case models.ActionMomConnectChangeMSISDN:
		return []Check{checkMSISDNNew}
	case models.ActionNurseChangeMSISDN:
		return []Check{checkMSISDNNew, checkMSISDNOld}
	case models.ActionMomConnectChangeLanguage:
		return []Check{checkLang}
	case models.ActionSwitchChannel:
		return []Check{checkChannel}
	case models.ActionBabySwitch:
		return nil
	default:
		return []Check{fixed(fmt.Sprintf("Unknown change action %q", action))}
	}
}

func fixed(msg string) Check {
	return func(FieldSet, *models.Record) []string { return []string{msg} }
}
