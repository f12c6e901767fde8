package models

import (
	"strings"
	"time"

	id "hub/pkg/domain"
	"hub/pkg/platform/datamap"
)

// Kind distinguishes the two record families that drive the pipeline.
type Kind string

const (
	KindRegistration Kind = "registration"
	KindChange       Kind = "change"
)

// IsValid reports whether k is a known record kind.
func (k Kind) IsValid() bool {
	return k == KindRegistration || k == KindChange
}

// Authority is how much the source is trusted to have verified the registrant.
type Authority string

const (
	AuthorityPatient   Authority = "patient"
	AuthorityAdvisor   Authority = "advisor"
	AuthorityHWPartial Authority = "hw_partial"
	AuthorityHWFull    Authority = "hw_full"
)

// Source is the intake application a record came from.
type Source struct {
	ID        int
	Name      string
	Authority Authority
}

// Well-known data keys shared across stages.
const (
	FieldInvalidFields = "invalid_fields"
	FieldLanguage      = "language"
	FieldReason        = "reason"
	FieldChannel       = "channel"
	FieldSWT           = "swt"
)

// Record is a Registration or a Change. Data is the open payload that the
// pipeline progressively mutates; everything else is fixed at intake except
// RegistrantID (resolved late for some sources) and Validated.
type Record struct {
	ID           id.RecordID
	Kind         Kind
	Action       string
	RegistrantID string
	Data         map[string]any
	Validated    bool
	Source       Source
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy whose Data can be mutated independently.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Data = datamap.Clone(r.Data)
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	return &c
}

// RegType returns the Action as a registration type.
func (r *Record) RegType() RegType { return RegType(r.Action) }

// ChangeAction returns the Action as a change action.
func (r *Record) ChangeAction() ChangeAction { return ChangeAction(r.Action) }

// String returns the data value for key when it is a string.
func (r *Record) String(key string) (string, bool) {
	v, ok := r.Data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringOr returns the string value for key or def.
func (r *Record) StringOr(key, def string) string {
	if s, ok := r.String(key); ok {
		return s
	}
	return def
}

// Has reports whether key is present in Data, regardless of value.
func (r *Record) Has(key string) bool {
	_, ok := r.Data[key]
	return ok
}

// InvalidFields returns the validation errors recorded on the record, if any.
func (r *Record) InvalidFields() []string {
	switch v := r.Data[FieldInvalidFields].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// RegType is the closed set of registration types.
type RegType string

const (
	RegMomConnectPrebirth     RegType = "momconnect_prebirth"
	RegMomConnectPostbirth    RegType = "momconnect_postbirth"
	RegWhatsAppPrebirth       RegType = "whatsapp_prebirth"
	RegNurseConnect           RegType = "nurseconnect"
	RegWhatsAppNurseConnect   RegType = "whatsapp_nurseconnect"
	RegPMTCTPrebirth          RegType = "pmtct_prebirth"
	RegWhatsAppPMTCTPrebirth  RegType = "whatsapp_pmtct_prebirth"
	RegPMTCTPostbirth         RegType = "pmtct_postbirth"
	RegWhatsAppPMTCTPostbirth RegType = "whatsapp_pmtct_postbirth"
	RegLossGeneral            RegType = "loss_general"
)

// AllRegTypes lists every registration type.
func AllRegTypes() []RegType {
	return []RegType{
		RegMomConnectPrebirth, RegMomConnectPostbirth, RegWhatsAppPrebirth,
		RegNurseConnect, RegWhatsAppNurseConnect,
		RegPMTCTPrebirth, RegWhatsAppPMTCTPrebirth,
		RegPMTCTPostbirth, RegWhatsAppPMTCTPostbirth,
		RegLossGeneral,
	}
}

// IsValid reports whether t is a known registration type.
func (t RegType) IsValid() bool {
	for _, known := range AllRegTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// IsWhatsApp reports whether the registration is for the WhatsApp channel.
func (t RegType) IsWhatsApp() bool { return strings.HasPrefix(string(t), "whatsapp_") }

// IsPMTCT reports whether the registration belongs to the PMTCT programme.
func (t RegType) IsPMTCT() bool { return strings.Contains(string(t), "pmtct") }

// IsNurse reports whether the registration belongs to NurseConnect.
func (t RegType) IsNurse() bool { return strings.Contains(string(t), "nurseconnect") }

// IsPrebirth reports whether the registration is a pregnancy registration.
func (t RegType) IsPrebirth() bool { return strings.Contains(string(t), "prebirth") }

// ChangeAction is the closed set of lifecycle events on a registered person.
type ChangeAction string

const (
	ActionBabySwitch                     ChangeAction = "baby_switch"
	ActionPMTCTLossSwitch                ChangeAction = "pmtct_loss_switch"
	ActionPMTCTLossOptout                ChangeAction = "pmtct_loss_optout"
	ActionPMTCTNonlossOptout             ChangeAction = "pmtct_nonloss_optout"
	ActionMomConnectLossSwitch           ChangeAction = "momconnect_loss_switch"
	ActionMomConnectLossOptout           ChangeAction = "momconnect_loss_optout"
	ActionMomConnectNonlossOptout        ChangeAction = "momconnect_nonloss_optout"
	ActionMomConnectChangeLanguage       ChangeAction = "momconnect_change_language"
	ActionMomConnectChangeMSISDN         ChangeAction = "momconnect_change_msisdn"
	ActionMomConnectChangeIdentification ChangeAction = "momconnect_change_identification"
	ActionNurseUpdateDetail              ChangeAction = "nurse_update_detail"
	ActionNurseChangeMSISDN              ChangeAction = "nurse_change_msisdn"
	ActionNurseOptout                    ChangeAction = "nurse_optout"
	ActionSwitchChannel                  ChangeAction = "switch_channel"
)

// AllChangeActions lists every change action. Dispatch tables are tested
// against this list so adding an action without a handler fails the build's tests.
func AllChangeActions() []ChangeAction {
	return []ChangeAction{
		ActionBabySwitch,
		ActionPMTCTLossSwitch, ActionPMTCTLossOptout, ActionPMTCTNonlossOptout,
		ActionMomConnectLossSwitch, ActionMomConnectLossOptout, ActionMomConnectNonlossOptout,
		ActionMomConnectChangeLanguage, ActionMomConnectChangeMSISDN, ActionMomConnectChangeIdentification,
		ActionNurseUpdateDetail, ActionNurseChangeMSISDN, ActionNurseOptout,
		ActionSwitchChannel,
	}
}

// IsValid reports whether a is a known change action.
func (a ChangeAction) IsValid() bool {
	for _, known := range AllChangeActions() {
		if a == known {
			return true
		}
	}
	return false
}

// SubscriptionRequest asks the Subscription Service to start a subscriber on a
// messageset at a given position. The hub creates them; ingestion is external.
type SubscriptionRequest struct {
	ID                 string
	Identity           string
	Messageset         int
	NextSequenceNumber int
	Lang               string
	Schedule           int
	Metadata           map[string]any
	CreatedAt          time.Time
}

// RecordFilter selects records for lookups and operator resubmission.
// Zero-valued fields do not constrain the result.
type RecordFilter struct {
	Kind         Kind
	Actions      []string
	RegistrantID string
	IDs          []id.RecordID
	Since        time.Time
	Until        time.Time
	SourceID     *int
	Validated    *bool
}
