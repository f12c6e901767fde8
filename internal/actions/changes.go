package actions

import (
	"context"
	"fmt"
	"strings"

	"hub/internal/clients/identity"
	"hub/internal/clients/stagebased"
	"hub/internal/records/models"
	"hub/internal/schedule"
	"hub/internal/submission"
	"hub/pkg/domain"
)

// lossMessagesets maps a loss reason to the messageset kind that supports it.
var lossMessagesets = map[string]string{
	"miscarriage": "loss_miscarriage",
	"stillbirth":  "loss_stillbirth",
	"babyloss":    "loss_babydeath",
}

// babySwitch moves every prebirth programme the mother is on to its
// postbirth counterpart on the same channel and language.
func (e *Executor) babySwitch(ctx context.Context, rec *models.Record) (*Outcome, error) {
	active, err := e.activeSubs(ctx, rec.RegistrantID)
	if err != nil {
		return nil, err
	}

	prebirth := func(s activeSub) bool { return s.contains("prebirth") }
	seen := map[string]bool{}
	for _, sub := range active {
		if !prebirth(sub) {
			continue
		}
		program := "momconnect"
		if sub.contains("pmtct") {
			program = "pmtct"
		}
		kind := program + "_postbirth"
		if sub.whatsapp() {
			kind = "whatsapp_" + kind
		}
		name := schedule.ShortName(kind, string(models.AuthorityHWFull), 0)
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, err := e.subscribe(ctx, rec.RegistrantID, name, 0, sub.Lang, active); err != nil {
			return nil, err
		}
	}
	if _, err := e.deactivate(ctx, active, prebirth); err != nil {
		return nil, err
	}

	birth := e.now().UTC().Format("2006-01-02")
	if dob, ok := rec.String("baby_dob"); ok && dob != "" {
		birth = dob
	}
	err = e.updateIdentity(ctx, rec.RegistrantID, func(ident *identity.Identity) bool {
		return setWithHistory(ident, ident.Details, "last_baby_dob", birth, "baby_dob_history", e.now())
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Submit: submission.FamilyBabySwitch}, nil
}

// lossSwitch moves the mother onto loss support messaging. Without any
// active subscription there is nothing to switch. A PMTCT loss switch with
// no MomConnect subscription is handled by the legacy system.
func (e *Executor) lossSwitch(ctx context.Context, rec *models.Record) (*Outcome, error) {
	active, err := e.activeSubs(ctx, rec.RegistrantID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		e.logger.InfoContext(ctx, "no active subscriptions, loss switch aborted", "record_id", rec.ID.String())
		return &Outcome{Aborted: true, Message: "no active subscriptions"}, nil
	}

	var source *activeSub
	for i := range active {
		if active[i].contains("momconnect") {
			source = &active[i]
			break
		}
	}
	if source == nil {
		if rec.ChangeAction() == models.ActionPMTCTLossSwitch {
			e.logger.InfoContext(ctx, "no momconnect subscription, loss switch left to legacy system", "record_id", rec.ID.String())
			return &Outcome{Aborted: true, Message: "no momconnect subscription"}, nil
		}
		source = &active[0]
	}

	reason := rec.StringOr(models.FieldReason, "")
	kind, ok := lossMessagesets[reason]
	if !ok {
		return nil, fmt.Errorf("no loss messageset for reason %q", reason)
	}
	if source.whatsapp() {
		kind = "whatsapp_" + kind
	}
	name := schedule.ShortName(kind, string(models.AuthorityPatient), 0)
	res, err := e.sequencer.Resolve(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	_, err = e.request(ctx, &models.SubscriptionRequest{
		Identity:           rec.RegistrantID,
		Messageset:         res.MessagesetID,
		NextSequenceNumber: res.Sequence,
		Lang:               source.Lang,
		Schedule:           res.ScheduleID,
	}, active)
	if err != nil {
		return nil, err
	}

	_, err = e.deactivate(ctx, active, func(s activeSub) bool {
		return exceptNurse(s) && s.Messageset != res.MessagesetID
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Submit: submission.FamilyBabyLoss}, nil
}

func (e *Executor) lossOptout(ctx context.Context, rec *models.Record) (*Outcome, error) {
	return e.optout(ctx, rec, exceptNurse, submission.FamilyOptout)
}

// nonlossOptout stops everything, NurseConnect included, when the reason
// suggests the number no longer reaches the mother.
func (e *Executor) nonlossOptout(ctx context.Context, rec *models.Record) (*Outcome, error) {
	switch rec.StringOr(models.FieldReason, "") {
	case "unknown", "sms_failure":
		return e.optout(ctx, rec, all, submission.FamilyOptout)
	default:
		return e.optout(ctx, rec, exceptNurse, submission.FamilyOptout)
	}
}

func (e *Executor) nurseOptout(ctx context.Context, rec *models.Record) (*Outcome, error) {
	return e.optout(ctx, rec, func(s activeSub) bool { return s.contains("nurseconnect") }, submission.FamilyNurseOptout)
}

func (e *Executor) optout(ctx context.Context, rec *models.Record, drop func(activeSub) bool, family submission.Family) (*Outcome, error) {
	active, err := e.activeSubs(ctx, rec.RegistrantID)
	if err != nil {
		return nil, err
	}
	n, err := e.deactivate(ctx, active, drop)
	if err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "subscriptions deactivated", "record_id", rec.ID.String(), "count", n)
	return &Outcome{Submit: family}, nil
}

// changeLanguage re-targets MomConnect subscriptions and the Identity.
func (e *Executor) changeLanguage(ctx context.Context, rec *models.Record) (*Outcome, error) {
	lang := rec.StringOr(models.FieldLanguage, "")
	active, err := e.activeSubs(ctx, rec.RegistrantID)
	if err != nil {
		return nil, err
	}
	for _, sub := range active {
		if !sub.contains("momconnect") || sub.Lang == lang {
			continue
		}
		if err := e.subs.UpdateSubscription(ctx, sub.ID, stagebased.SubscriptionPatch{Lang: &lang}); err != nil {
			return nil, fmt.Errorf("update subscription %s language: %w", sub.ID, err)
		}
	}
	err = e.updateIdentity(ctx, rec.RegistrantID, func(ident *identity.Identity) bool {
		return setWithHistory(ident, ident.Details, "lang_code", lang, "lang_code_history", e.now())
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{}, nil
}

// changeMSISDN makes msisdn_new the default address. Earlier addresses stay
// on the Identity as non-default.
func (e *Executor) changeMSISDN(ctx context.Context, rec *models.Record) (*Outcome, error) {
	msisdn := rec.StringOr("msisdn_new", "")
	if msisdn == "" {
		return nil, fmt.Errorf("change %s has no msisdn_new", rec.ID)
	}
	err := e.updateIdentity(ctx, rec.RegistrantID, func(ident *identity.Identity) bool {
		prior := ident.DefaultAddress(identity.AddressMSISDN)
		if prior == msisdn && ident.IsPrimaryAddress(identity.AddressMSISDN, msisdn) {
			return false
		}
		ident.SetDefaultAddress(identity.AddressMSISDN, msisdn)
		ident.AppendHistory("msisdn_history", identity.HistoryEntry(e.now(), map[string]any{
			"old": prior, "new": msisdn, "change": rec.ID.String(),
		}))
		return true
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{}, nil
}

// fieldMapping pairs a change field with the details key it updates.
type fieldMapping struct{ field, key string }

var identificationFields = []fieldMapping{
	{"id_type", "id_type"},
	{"sa_id_no", "sa_id_no"},
	{"passport_no", "passport_no"},
	{"passport_origin", "passport_origin"},
	{"dob", "mom_dob"},
}

func (e *Executor) changeIdentification(ctx context.Context, rec *models.Record) (*Outcome, error) {
	err := e.updateIdentity(ctx, rec.RegistrantID, func(ident *identity.Identity) bool {
		return e.applyIdentification(ident, rec)
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{}, nil
}

func (e *Executor) applyIdentification(ident *identity.Identity, rec *models.Record) bool {
	changed := false
	for _, m := range identificationFields {
		if v, ok := rec.String(m.field); ok {
			changed = setWithHistory(ident, ident.Details, m.key, v, "identification_history", e.now()) || changed
		}
	}
	return changed
}

// nurseFields land in the nurseconnect section.
var nurseFields = []fieldMapping{
	{"faccode", "faccode"},
	{"sanc_no", "sanc_reg_no"},
	{"persal_no", "persal_no"},
}

func (e *Executor) nurseUpdateDetail(ctx context.Context, rec *models.Record) (*Outcome, error) {
	err := e.updateIdentity(ctx, rec.RegistrantID, func(ident *identity.Identity) bool {
		changed := false
		for _, m := range nurseFields {
			v, ok := rec.String(m.field)
			if !ok {
				continue
			}
			nc := ident.Section("nurseconnect", true)
			changed = setWithHistory(ident, nc, m.key, v, "nurseconnect_history", e.now()) || changed
		}
		return e.applyIdentification(ident, rec) || changed
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{}, nil
}

// switchChannel mirrors every subscription not already on the target channel
// onto it at the same position, then stops the original.
func (e *Executor) switchChannel(ctx context.Context, rec *models.Record) (*Outcome, error) {
	target, err := domain.ParseChannel(rec.StringOr(models.FieldChannel, ""))
	if err != nil {
		return nil, err
	}
	active, err := e.activeSubs(ctx, rec.RegistrantID)
	if err != nil {
		return nil, err
	}

	onTarget := func(s activeSub) bool { return s.whatsapp() == (target == domain.ChannelWhatsApp) }
	for _, sub := range active {
		if onTarget(sub) {
			continue
		}
		name := target.MessagesetPrefix() + strings.TrimPrefix(sub.ShortName, "whatsapp_")
		sets, err := e.catalog.ListMessagesets(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", name, err)
		}
		if len(sets) == 0 {
			return nil, fmt.Errorf("%w: %s", schedule.ErrUnknownMessageset, name)
		}
		_, err = e.request(ctx, &models.SubscriptionRequest{
			Identity:           rec.RegistrantID,
			Messageset:         sets[0].ID,
			NextSequenceNumber: sub.NextSequenceNumber,
			Lang:               sub.Lang,
			Schedule:           sub.Schedule,
		}, active)
		if err != nil {
			return nil, err
		}
	}
	if _, err := e.deactivate(ctx, active, func(s activeSub) bool { return !onTarget(s) }); err != nil {
		return nil, err
	}
	return &Outcome{Submit: submission.FamilyChannelSwitch}, nil
}
