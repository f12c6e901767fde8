package actions

import (
	"context"
	"fmt"

	"hub/internal/clients/identity"
	"hub/internal/records/models"
	"hub/internal/schedule"
	"hub/internal/submission"
	"hub/internal/validation"
)

// messagesetKind is the catalog kind a registration type subscribes to.
func messagesetKind(t models.RegType) string {
	if t == models.RegWhatsAppPrebirth {
		return "whatsapp_momconnect_prebirth"
	}
	return string(t)
}

// position is the week the new subscriber starts at. Registrations that are
// not timed against a pregnancy or a birth start at 0.
func (e *Executor) position(rec *models.Record) (int, error) {
	today := e.now()
	t := rec.RegType()
	switch {
	case t == models.RegMomConnectPrebirth || t == models.RegWhatsAppPrebirth:
		if rec.Source.Authority != models.AuthorityHWFull {
			return 0, nil
		}
		return weeksFrom(rec, "edd", func(d any) (int, bool) {
			edd, ok := validation.ParseDate(d)
			return schedule.PregnancyWeek(today, edd), ok
		})
	case t == models.RegPMTCTPrebirth || t == models.RegWhatsAppPMTCTPrebirth:
		return weeksFrom(rec, "edd", func(d any) (int, bool) {
			edd, ok := validation.ParseDate(d)
			return schedule.PregnancyWeek(today, edd), ok
		})
	case t == models.RegPMTCTPostbirth || t == models.RegWhatsAppPMTCTPostbirth:
		return weeksFrom(rec, "baby_dob", func(d any) (int, bool) {
			dob, ok := validation.ParseDate(d)
			return schedule.BabyAgeWeeks(today, dob), ok
		})
	default:
		return 0, nil
	}
}

func weeksFrom(rec *models.Record, key string, weeks func(any) (int, bool)) (int, error) {
	w, ok := weeks(rec.Data[key])
	if !ok {
		return 0, fmt.Errorf("registration %s has no usable %s", rec.ID, key)
	}
	return w, nil
}

func (e *Executor) executeRegistration(ctx context.Context, rec *models.Record) (*Outcome, error) {
	t := rec.RegType()
	if t == models.RegMomConnectPostbirth || t == models.RegLossGeneral || !t.IsValid() {
		return nil, fmt.Errorf("execute %s: %w: %q", rec.ID, ErrUnsupportedRegistration, rec.Action)
	}
	log := e.logger.With("record_id", rec.ID.String(), "reg_type", rec.Action)

	pos, err := e.position(rec)
	if err != nil {
		return nil, err
	}
	active, err := e.activeSubs(ctx, rec.RegistrantID)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", rec.ID, err)
	}

	lang := rec.StringOr(models.FieldLanguage, "")
	authority := string(rec.Source.Authority)
	name := schedule.ShortName(messagesetKind(t), authority, pos)
	if _, err := e.subscribe(ctx, rec.RegistrantID, name, pos, lang, active); err != nil {
		return nil, fmt.Errorf("execute %s: %w", rec.ID, err)
	}
	log.InfoContext(ctx, "registration subscribed", "messageset", name, "position", pos)

	if t.IsPrebirth() && (rec.Source.Authority == models.AuthorityHWPartial || rec.Source.Authority == models.AuthorityHWFull) {
		popi := schedule.ShortName("popi", authority, 0)
		if _, err := e.subscribe(ctx, rec.RegistrantID, popi, 0, lang, active); err != nil {
			return nil, fmt.Errorf("execute %s popi: %w", rec.ID, err)
		}
	}

	if t.IsPMTCT() {
		if err := e.setRiskStatus(ctx, rec); err != nil {
			return nil, fmt.Errorf("execute %s: %w", rec.ID, err)
		}
	}
	return &Outcome{Submit: submission.RegistrationFamily(t)}, nil
}

// setRiskStatus stores the mother's PMTCT risk on her Identity.
func (e *Executor) setRiskStatus(ctx context.Context, rec *models.Record) error {
	momDOB, _ := validation.ParseDate(rec.Data["mom_dob"])
	edd, _ := validation.ParseDate(rec.Data["edd"])
	postbirth := !rec.RegType().IsPrebirth()
	risk := schedule.RiskStatus(e.now(), postbirth, momDOB, edd)

	return e.updateIdentity(ctx, rec.RegistrantID, func(ident *identity.Identity) bool {
		pmtct := ident.Section("pmtct", true)
		if pmtct["risk_status"] == risk {
			return false
		}
		pmtct["risk_status"] = risk
		return true
	})
}
