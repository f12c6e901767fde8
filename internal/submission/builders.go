package submission

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"hub/internal/clients/identity"
	"hub/internal/ports"
	"hub/internal/records/models"
	"hub/internal/schedule"
	"hub/internal/validation"
)

var (
	// ErrDataConsistency means an upstream entity the report needs does not
	// exist. The report is skipped rather than failed.
	ErrDataConsistency = errors.New("data consistency")

	// ErrNoAuthority means the record's source maps to no Jembi authority.
	ErrNoAuthority = errors.New("no compliance authority for source")
)

const (
	encdateLayout = "20060102150405"
	dobLayout     = "20060102"

	swtDefault  = 1
	swtNurse    = 3
	swtWhatsApp = 7
)

var jembiLanguages = map[string]string{
	"zul_ZA": "zu",
	"xho_ZA": "xh",
	"afr_ZA": "af",
	"eng_ZA": "en",
	"nso_ZA": "nso",
	"tsn_ZA": "tn",
	"sot_ZA": "st",
	"tso_ZA": "ts",
	"ssw_ZA": "ss",
	"ven_ZA": "ve",
	"nbl_ZA": "nr",
}

var sourceAuthorities = map[string]string{
	"PUBLIC USSD APP": "personal",
	"OPTOUT USSD APP": "optout",
	"CLINIC USSD APP": "clinic",
	"CHW USSD APP":    "chw",
	"NURSE USSD APP":  "nurse",
	"PMTCT USSD APP":  "pmtct",
}

// AuthorityFromSource maps an intake source name to the authority Jembi
// knows it by. "" means the source is not reportable.
func AuthorityFromSource(name string) string {
	upper := strings.ToUpper(name)
	switch {
	case strings.HasPrefix(upper, "EXTERNAL CHW"):
		return "chw"
	case strings.HasPrefix(upper, "EXTERNAL CLINIC"):
		return "clinic"
	default:
		return sourceAuthorities[upper]
	}
}

// PatientID renders the Jembi patient identifier for the identification on
// hand, falling back to the MSISDN. nil when nothing identifies the patient.
func PatientID(idType, idNo, origin, msisdn string) *string {
	var s string
	switch {
	case idType == "sa_id":
		s = idNo + "^^^ZAF^NI"
	case idType == "passport":
		s = idNo + "^^^" + strings.ToUpper(origin) + "^PPN"
	case msisdn != "":
		s = strings.ReplaceAll(msisdn, "+", "") + "^^^ZAF^TEL"
	default:
		return nil
	}
	return &s
}

// RegistrationPayload is posted for MomConnect and PMTCT registrations.
type RegistrationPayload struct {
	MHA        int     `json:"mha"`
	SWT        int     `json:"swt"`
	DMSISDN    *string `json:"dmsisdn"`
	CMSISDN    *string `json:"cmsisdn"`
	ID         *string `json:"id"`
	Type       int     `json:"type"`
	Lang       string  `json:"lang"`
	EncDate    string  `json:"encdate"`
	FacCode    *string `json:"faccode"`
	DOB        *string `json:"dob"`
	EDD        string  `json:"edd,omitempty"`
	RiskStatus string  `json:"risk_status,omitempty"`
}

// NurseRegistrationPayload is posted for NurseConnect registrations.
type NurseRegistrationPayload struct {
	MHA     int     `json:"mha"`
	SWT     int     `json:"swt"`
	Type    int     `json:"type"`
	DMSISDN string  `json:"dmsisdn"`
	CMSISDN string  `json:"cmsisdn"`
	RMSISDN *string `json:"rmsisdn"`
	FacCode string  `json:"faccode"`
	ID      *string `json:"id"`
	DOB     *string `json:"dob"`
	Persal  *string `json:"persal"`
	SANC    *string `json:"sanc"`
	EncDate string  `json:"encdate"`
}

// ChangePayload is the common shape of every change report.
type ChangePayload struct {
	EncDate string  `json:"encdate"`
	MHA     int     `json:"mha"`
	SWT     int     `json:"swt"`
	CMSISDN string  `json:"cmsisdn"`
	DMSISDN string  `json:"dmsisdn"`
	ID      *string `json:"id"`
	Type    int     `json:"type"`
}

// OptoutPayload reports a MomConnect or PMTCT optout.
type OptoutPayload struct {
	ChangePayload
	OptoutReason int `json:"optoutreason"`
}

// BabyLossPayload reports a switch to loss messaging.
type BabyLossPayload struct {
	ChangePayload
	Lang    string  `json:"lang"`
	FacCode *string `json:"faccode"`
	DOB     *string `json:"dob"`
}

// ChannelSwitchPayload reports a move between SMS and WhatsApp.
type ChannelSwitchPayload struct {
	ChangePayload
	ChannelCurrent string `json:"channel_current"`
	ChannelNew     string `json:"channel_new"`
}

// NurseOptoutPayload reports a NurseConnect optout using the nurse's latest
// registration for identification.
type NurseOptoutPayload struct {
	EncDate      string  `json:"encdate"`
	MHA          int     `json:"mha"`
	SWT          int     `json:"swt"`
	Type         int     `json:"type"`
	CMSISDN      string  `json:"cmsisdn"`
	DMSISDN      string  `json:"dmsisdn"`
	RMSISDN      *string `json:"rmsisdn"`
	FacCode      *string `json:"faccode"`
	ID           *string `json:"id"`
	DOB          *string `json:"dob"`
	OptoutReason int     `json:"optoutreason"`
	Persal       *string `json:"persal"`
	SANC         *string `json:"sanc"`
}

// Builder turns a record into the payload for one report family.
type Builder struct {
	identities ports.IdentityService
	records    ports.RecordStore
	now        func() time.Time
}

// NewBuilder builds a Builder. now supplies "today" for PMTCT risk.
func NewBuilder(identities ports.IdentityService, records ports.RecordStore, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{identities: identities, records: records, now: now}
}

// Build returns the payload for family. Missing upstream data yields
// ErrDataConsistency; an unreportable source yields ErrNoAuthority.
func (b *Builder) Build(ctx context.Context, family Family, rec *models.Record) (any, error) {
	switch family {
	case FamilyRegistration:
		return payload(b.registration(ctx, rec, false))
	case FamilyPMTCTRegistration:
		return payload(b.registration(ctx, rec, true))
	case FamilyNurseRegistration:
		return payload(b.nurseRegistration(ctx, rec))
	case FamilyOptout:
		return payload(b.optout(ctx, rec))
	case FamilyBabyLoss:
		return payload(b.babyLoss(ctx, rec))
	case FamilyNurseOptout:
		return payload(b.nurseOptout(ctx, rec))
	case FamilyBabySwitch:
		return payload(b.changeBase(ctx, rec, TypeBabySwitch))
	case FamilyChannelSwitch:
		return payload(b.channelSwitch(ctx, rec))
	default:
		return nil, fmt.Errorf("no builder for report family %q", family)
	}
}

// payload drops the typed nil a failed builder returns.
func payload[T any](p *T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Builder) registration(ctx context.Context, rec *models.Record, pmtct bool) (*RegistrationPayload, error) {
	authority := AuthorityFromSource(rec.Source.Name)
	if authority == "" {
		return nil, fmt.Errorf("%w %q", ErrNoAuthority, rec.Source.Name)
	}
	typeCode, ok := authorityTypes[authority]
	if !ok {
		return nil, fmt.Errorf("%w: authority %q has no registration type", ErrNoAuthority, authority)
	}

	cmsisdn := optString(rec, "msisdn_registrant")
	if cmsisdn == nil {
		addr, err := b.registrantMSISDN(ctx, rec)
		if err != nil {
			return nil, err
		}
		cmsisdn = &addr
	}
	dmsisdn := optString(rec, "msisdn_device")
	if dmsisdn == nil {
		dmsisdn = cmsisdn
	}
	lang, ok := jembiLanguages[rec.StringOr(models.FieldLanguage, "")]
	if !ok {
		return nil, fmt.Errorf("%w: record %s has no reportable language", ErrDataConsistency, rec.ID)
	}

	p := &RegistrationPayload{
		MHA:     intField(rec, "mha", 1),
		SWT:     softwareType(rec, swtDefault),
		DMSISDN: dmsisdn,
		CMSISDN: cmsisdn,
		ID:      recordPatientID(rec, *cmsisdn),
		Type:    typeCode,
		Lang:    lang,
		EncDate: rec.StringOr("encdate", rec.CreatedAt.UTC().Format(encdateLayout)),
		FacCode: optString(rec, "faccode"),
		DOB:     dobField(rec, "mom_dob"),
	}
	if authority == "clinic" {
		if edd, ok := validation.ParseDate(rec.Data["edd"]); ok {
			p.EDD = edd.Format(dobLayout)
		}
	}
	if pmtct {
		p.RiskStatus = b.riskStatus(rec)
		if p.FacCode == nil {
			faccode, err := b.latestFaccode(ctx, rec.RegistrantID)
			if err != nil {
				return nil, err
			}
			p.FacCode = faccode
		}
	}
	return p, nil
}

func (b *Builder) riskStatus(rec *models.Record) string {
	momDOB, _ := validation.ParseDate(rec.Data["mom_dob"])
	edd, _ := validation.ParseDate(rec.Data["edd"])
	postbirth := strings.Contains(rec.Action, "postbirth")
	return schedule.RiskStatus(b.now(), postbirth, momDOB, edd)
}

// latestFaccode finds the clinic code on the registrant's most recent
// validated non-PMTCT registration.
func (b *Builder) latestFaccode(ctx context.Context, registrantID string) (*string, error) {
	validated := true
	regs, err := b.records.List(ctx, models.RecordFilter{
		Kind:         models.KindRegistration,
		RegistrantID: registrantID,
		Validated:    &validated,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup prior registrations: %w", err)
	}
	for _, r := range slices.Backward(regs) {
		if r.RegType().IsPMTCT() {
			continue
		}
		if faccode := optString(r, "faccode"); faccode != nil {
			return faccode, nil
		}
	}
	return nil, nil
}

func (b *Builder) nurseRegistration(ctx context.Context, rec *models.Record) (*NurseRegistrationPayload, error) {
	if AuthorityFromSource(rec.Source.Name) == "" {
		return nil, fmt.Errorf("%w %q", ErrNoAuthority, rec.Source.Name)
	}
	ident, err := b.identities.Get(ctx, rec.RegistrantID)
	if err != nil {
		return nil, fmt.Errorf("load nurse identity: %w", err)
	}
	nc := ident.Section("nurseconnect", false)
	msisdn := rec.StringOr("msisdn_registrant", "")

	p := &NurseRegistrationPayload{
		MHA:     1,
		SWT:     softwareType(rec, swtNurse),
		Type:    TypeNurse,
		DMSISDN: rec.StringOr("msisdn_device", ""),
		CMSISDN: msisdn,
		FacCode: rec.StringOr("faccode", ""),
		ID:      recordPatientID(rec, msisdn),
		Persal:  mapString(nc, "persal_no"),
		SANC:    mapString(nc, "sanc_reg_no"),
		EncDate: rec.CreatedAt.UTC().Format(encdateLayout),
	}
	// Gated on mom_db, not mom_dob, so dob is normally null. Known defect.
	if rec.Has("mom_db") {
		p.DOB = dobField(rec, "mom_dob")
	}
	return p, nil
}

func (b *Builder) registrant(ctx context.Context, rec *models.Record) (*identity.Identity, error) {
	ident, err := b.identities.Get(ctx, rec.RegistrantID)
	if err != nil {
		return nil, fmt.Errorf("load registrant: %w", err)
	}
	return ident, nil
}

func (b *Builder) changeBase(ctx context.Context, rec *models.Record, typeCode int) (*ChangePayload, error) {
	ident, err := b.registrant(ctx, rec)
	if err != nil {
		return nil, err
	}
	return changePayload(rec, ident, typeCode)
}

func changePayload(rec *models.Record, ident *identity.Identity, typeCode int) (*ChangePayload, error) {
	msisdn := ident.DefaultAddress(identity.AddressMSISDN)
	if msisdn == "" {
		return nil, fmt.Errorf("%w: registrant %s has no msisdn", ErrDataConsistency, rec.RegistrantID)
	}
	return &ChangePayload{
		EncDate: rec.CreatedAt.UTC().Format(encdateLayout),
		MHA:     1,
		SWT:     softwareType(rec, swtDefault),
		CMSISDN: msisdn,
		DMSISDN: msisdn,
		ID: PatientID(ident.DetailString("id_type"), identityIDNo(ident),
			ident.DetailString("passport_origin"), msisdn),
		Type: typeCode,
	}, nil
}

func (b *Builder) optout(ctx context.Context, rec *models.Record) (*OptoutPayload, error) {
	base, err := b.changeBase(ctx, rec, TypeOptout)
	if err != nil {
		return nil, err
	}
	return &OptoutPayload{ChangePayload: *base, OptoutReason: OptoutReasons[rec.StringOr(models.FieldReason, "")]}, nil
}

func (b *Builder) babyLoss(ctx context.Context, rec *models.Record) (*BabyLossPayload, error) {
	ident, err := b.registrant(ctx, rec)
	if err != nil {
		return nil, err
	}
	base, err := changePayload(rec, ident, TypeBabyLoss)
	if err != nil {
		return nil, err
	}
	return &BabyLossPayload{
		ChangePayload: *base,
		Lang:          jembiLanguages[ident.DetailString("lang_code")],
	}, nil
}

func (b *Builder) channelSwitch(ctx context.Context, rec *models.Record) (*ChannelSwitchPayload, error) {
	base, err := b.changeBase(ctx, rec, TypeChannelSwitch)
	if err != nil {
		return nil, err
	}
	target := rec.StringOr(models.FieldChannel, "")
	current := "sms"
	if target == "sms" {
		current = "whatsapp"
	}
	if target == "whatsapp" {
		base.SWT = swtWhatsApp
	}
	return &ChannelSwitchPayload{ChangePayload: *base, ChannelCurrent: current, ChannelNew: target}, nil
}

func (b *Builder) nurseOptout(ctx context.Context, rec *models.Record) (*NurseOptoutPayload, error) {
	validated := true
	regs, err := b.records.List(ctx, models.RecordFilter{
		Kind:         models.KindRegistration,
		Actions:      []string{string(models.RegNurseConnect), string(models.RegWhatsAppNurseConnect)},
		RegistrantID: rec.RegistrantID,
		Validated:    &validated,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup nurse registration: %w", err)
	}
	if len(regs) == 0 {
		return nil, fmt.Errorf("%w: no nurse registration for %s", ErrDataConsistency, rec.RegistrantID)
	}
	reg := regs[len(regs)-1]

	ident, err := b.identities.Get(ctx, rec.RegistrantID)
	if err != nil {
		return nil, fmt.Errorf("load nurse identity: %w", err)
	}
	nc := ident.Section("nurseconnect", false)
	msisdn := reg.StringOr("msisdn_registrant", ident.DefaultAddress(identity.AddressMSISDN))

	return &NurseOptoutPayload{
		EncDate:      rec.CreatedAt.UTC().Format(encdateLayout),
		MHA:          1,
		SWT:          softwareType(reg, swtNurse),
		Type:         TypeNurseOptout,
		CMSISDN:      msisdn,
		DMSISDN:      reg.StringOr("msisdn_device", msisdn),
		FacCode:      optString(reg, "faccode"),
		ID:           recordPatientID(reg, msisdn),
		DOB:          dobField(reg, "mom_dob"),
		OptoutReason: OptoutReasons[rec.StringOr(models.FieldReason, "")],
		Persal:       mapString(nc, "persal_no"),
		SANC:         mapString(nc, "sanc_reg_no"),
	}, nil
}

func (b *Builder) registrantMSISDN(ctx context.Context, rec *models.Record) (string, error) {
	ident, err := b.registrant(ctx, rec)
	if err != nil {
		return "", err
	}
	addr := ident.DefaultAddress(identity.AddressMSISDN)
	if addr == "" {
		return "", fmt.Errorf("%w: registrant %s has no msisdn", ErrDataConsistency, rec.RegistrantID)
	}
	return addr, nil
}

func recordPatientID(rec *models.Record, msisdn string) *string {
	idType := rec.StringOr("id_type", "")
	idNo := rec.StringOr("passport_no", "")
	if idType == "sa_id" {
		idNo = rec.StringOr("sa_id_no", "")
	}
	return PatientID(idType, idNo, rec.StringOr("passport_origin", ""), msisdn)
}

func identityIDNo(ident *identity.Identity) string {
	if ident.DetailString("id_type") == "sa_id" {
		return ident.DetailString("sa_id_no")
	}
	return ident.DetailString("passport_no")
}

// softwareType honours an explicit swt on the record, then the WhatsApp
// channel, then def.
func softwareType(rec *models.Record, def int) int {
	if swt := intField(rec, models.FieldSWT, 0); swt != 0 {
		return swt
	}
	if strings.Contains(rec.Action, "whatsapp") {
		return swtWhatsApp
	}
	return def
}

func intField(rec *models.Record, key string, def int) int {
	switch v := rec.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func optString(rec *models.Record, key string) *string {
	s, ok := rec.String(key)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func mapString(m map[string]any, key string) *string {
	s, ok := m[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func dobField(rec *models.Record, key string) *string {
	t, ok := validation.ParseDate(rec.Data[key])
	if !ok {
		return nil
	}
	s := t.Format(dobLayout)
	return &s
}
