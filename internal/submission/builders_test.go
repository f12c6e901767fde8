package submission

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"hub/internal/clients/identity"
	"hub/internal/records/models"
	"hub/internal/records/store"
	id "hub/pkg/domain"
	"hub/pkg/testutil/fakes"
)

const (
	registrantID = "8b4f5a52-3c1b-4e0f-9b5a-2f1c7d9e6a01"
	momMSISDN    = "+27821234567"
	deviceMSISDN = "+27831234567"
)

var today = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
var created = time.Date(2026, 2, 27, 14, 5, 9, 0, time.UTC)

type BuilderSuite struct {
	suite.Suite
	ctx        context.Context
	identities *fakes.Identities
	records    *store.InMemoryStore
	builder    *Builder
}

func TestBuilderSuite(t *testing.T) {
	suite.Run(t, new(BuilderSuite))
}

func (s *BuilderSuite) SetupTest() {
	s.ctx = context.Background()
	s.identities = fakes.NewIdentities()
	s.records = store.NewInMemoryStore()
	s.builder = NewBuilder(s.identities, s.records, func() time.Time { return today })

	ident := &identity.Identity{ID: registrantID, Details: identity.NewAddressDetails(identity.AddressMSISDN, momMSISDN)}
	ident.SetDetail("lang_code", "xho_ZA")
	ident.SetDetail("nurseconnect", map[string]any{"persal_no": "11114444", "sanc_reg_no": "22223333"})
	s.identities.Put(ident)
}

func (s *BuilderSuite) record(kind models.Kind, action, source string, data map[string]any) *models.Record {
	return &models.Record{
		ID:           id.NewRecordID(),
		Kind:         kind,
		Action:       action,
		RegistrantID: registrantID,
		Data:         data,
		Validated:    true,
		Source:       models.Source{ID: 1, Name: source},
		CreatedAt:    created,
	}
}

func (s *BuilderSuite) build(family Family, rec *models.Record) map[string]any {
	p, err := s.builder.Build(s.ctx, family, rec)
	s.Require().NoError(err)
	raw, err := json.Marshal(p)
	s.Require().NoError(err)
	var out map[string]any
	s.Require().NoError(json.Unmarshal(raw, &out))
	return out
}

func (s *BuilderSuite) TestClinicRegistration() {
	rec := s.record(models.KindRegistration, "momconnect_prebirth", "CLINIC USSD APP", map[string]any{
		"msisdn_registrant": momMSISDN, "msisdn_device": deviceMSISDN, "id_type": "sa_id",
		"sa_id_no": "8606045069081", "mom_dob": "1986-06-04", "language": "eng_ZA",
		"edd": "2026-06-01", "faccode": "123456",
	})

	s.Equal(map[string]any{
		"mha": 1.0, "swt": 1.0, "type": 3.0,
		"dmsisdn": deviceMSISDN, "cmsisdn": momMSISDN,
		"id": "8606045069081^^^ZAF^NI", "lang": "en",
		"encdate": "20260227140509", "faccode": "123456",
		"dob": "19860604", "edd": "20260601",
	}, s.build(FamilyRegistration, rec))
}

func (s *BuilderSuite) TestPublicRegistrationFallsBackToIdentityMSISDN() {
	rec := s.record(models.KindRegistration, "whatsapp_prebirth", "PUBLIC USSD APP", map[string]any{
		"language": "zul_ZA", "id_type": "passport", "passport_no": "A1234567", "passport_origin": "zw",
	})

	got := s.build(FamilyRegistration, rec)
	s.Equal(momMSISDN, got["cmsisdn"])
	s.Equal(momMSISDN, got["dmsisdn"])
	s.Equal("A1234567^^^ZW^PPN", got["id"])
	s.Equal(7.0, got["swt"])
	s.Equal(1.0, got["type"])
	s.Nil(got["faccode"])
	s.NotContains(got, "edd")
}

func (s *BuilderSuite) TestPMTCTRegistrationRiskAndFaccodeFallback() {
	clinic := s.record(models.KindRegistration, "momconnect_prebirth", "CLINIC USSD APP", map[string]any{"faccode": "654321"})
	clinic.CreatedAt = created.Add(-48 * time.Hour)
	s.Require().NoError(s.records.Create(s.ctx, clinic))
	older := s.record(models.KindRegistration, "momconnect_prebirth", "CLINIC USSD APP", map[string]any{"faccode": "111111"})
	older.CreatedAt = created.Add(-96 * time.Hour)
	s.Require().NoError(s.records.Create(s.ctx, older))
	pmtctPrior := s.record(models.KindRegistration, "pmtct_prebirth", "PMTCT USSD APP", map[string]any{"faccode": "999999"})
	pmtctPrior.CreatedAt = created.Add(-time.Hour)
	s.Require().NoError(s.records.Create(s.ctx, pmtctPrior))

	rec := s.record(models.KindRegistration, "pmtct_prebirth", "PMTCT USSD APP", map[string]any{
		"language": "eng_ZA", "mom_dob": "1990-05-05", "edd": "2026-07-20",
	})
	got := s.build(FamilyPMTCTRegistration, rec)

	s.Equal(9.0, got["type"])
	s.Equal("654321", got["faccode"])
	s.Equal("high", got["risk_status"], "week 20 on the clock date")
	s.Equal("27821234567^^^ZAF^TEL", got["id"])
}

func (s *BuilderSuite) TestNurseRegistrationIgnoresMomDOB() {
	rec := s.record(models.KindRegistration, "nurseconnect", "NURSE USSD APP", map[string]any{
		"msisdn_registrant": momMSISDN, "msisdn_device": deviceMSISDN, "faccode": "123456",
		"mom_dob": "1980-01-01", "language": "eng_ZA",
	})

	got := s.build(FamilyNurseRegistration, rec)
	s.Equal(7.0, got["type"])
	s.Equal(3.0, got["swt"])
	s.Nil(got["dob"])
	s.Nil(got["rmsisdn"])
	s.Equal("11114444", got["persal"])
	s.Equal("22223333", got["sanc"])
}

func (s *BuilderSuite) TestUnreportableSourceIsNoAuthority() {
	rec := s.record(models.KindRegistration, "momconnect_prebirth", "SOME PARTNER", map[string]any{"language": "eng_ZA"})
	_, err := s.builder.Build(s.ctx, FamilyRegistration, rec)
	s.ErrorIs(err, ErrNoAuthority)
}

func (s *BuilderSuite) TestChangeReports() {
	s.Run("optout carries the reason code", func() {
		rec := s.record(models.KindChange, "momconnect_nonloss_optout", "OPTOUT USSD APP", map[string]any{"reason": "sms_failure"})
		got := s.build(FamilyOptout, rec)
		s.Equal(4.0, got["type"])
		s.Equal(10.0, got["optoutreason"])
		s.Equal(momMSISDN, got["cmsisdn"])
		s.Equal(momMSISDN, got["dmsisdn"])
	})

	s.Run("baby loss reports the identity language", func() {
		rec := s.record(models.KindChange, "momconnect_loss_switch", "OPTOUT USSD APP", map[string]any{"reason": "miscarriage"})
		got := s.build(FamilyBabyLoss, rec)
		s.Equal(5.0, got["type"])
		s.Equal("xh", got["lang"])
		s.Contains(got, "faccode")
	})

	s.Run("baby switch", func() {
		got := s.build(FamilyBabySwitch, s.record(models.KindChange, "baby_switch", "PUBLIC USSD APP", map[string]any{}))
		s.Equal(11.0, got["type"])
		s.Equal("20260227140509", got["encdate"])
	})

	s.Run("channel switch", func() {
		rec := s.record(models.KindChange, "switch_channel", "PUBLIC USSD APP", map[string]any{"channel": "whatsapp"})
		got := s.build(FamilyChannelSwitch, rec)
		s.Equal(12.0, got["type"])
		s.Equal("sms", got["channel_current"])
		s.Equal("whatsapp", got["channel_new"])
		s.Equal(7.0, got["swt"])
	})
}

func (s *BuilderSuite) TestNurseOptoutUsesLatestNurseRegistration() {
	rec := s.record(models.KindChange, "nurse_optout", "NURSE USSD APP", map[string]any{"reason": "job_change"})
	_, err := s.builder.Build(s.ctx, FamilyNurseOptout, rec)
	s.ErrorIs(err, ErrDataConsistency)

	reg := s.record(models.KindRegistration, "nurseconnect", "NURSE USSD APP", map[string]any{
		"msisdn_registrant": momMSISDN, "msisdn_device": deviceMSISDN, "faccode": "123456",
		"id_type": "sa_id", "sa_id_no": "8606045069081", "mom_dob": "1986-06-04",
	})
	reg.CreatedAt = created.Add(-time.Hour)
	s.Require().NoError(s.records.Create(s.ctx, reg))

	got := s.build(FamilyNurseOptout, rec)
	s.Equal(8.0, got["type"])
	s.Equal(7.0, got["optoutreason"])
	s.Equal("123456", got["faccode"])
	s.Equal(deviceMSISDN, got["dmsisdn"])
	s.Equal("19860604", got["dob"])
	s.Equal("8606045069081^^^ZAF^NI", got["id"])
}

func TestFamilyRoutes(t *testing.T) {
	want := map[Family]struct {
		endpoint string
		code     int
	}{
		FamilyRegistration:      {"subscription", 0},
		FamilyPMTCTRegistration: {"pmtctSubscription", 9},
		FamilyNurseRegistration: {"nc/subscription", 7},
		FamilyOptout:            {"optout", 4},
		FamilyBabyLoss:          {"subscription", 5},
		FamilyNurseOptout:       {"nc/optout", 8},
		FamilyBabySwitch:        {"subscription", 11},
		FamilyChannelSwitch:     {"messageChange", 12},
	}
	assert.Len(t, AllFamilies(), len(want))
	for _, f := range AllFamilies() {
		assert.Equal(t, want[f].endpoint, f.Endpoint(), f)
		assert.Equal(t, want[f].code, f.TypeCode(), f)
	}
	_, err := ParseFamily("sms")
	assert.Error(t, err)
}

func TestAuthorityFromSource(t *testing.T) {
	cases := map[string]string{
		"External CHW partner":  "chw",
		"EXTERNAL CLINIC APP 2": "clinic",
		"PUBLIC USSD APP":       "personal",
		"optout ussd app":       "optout",
		"CLINIC USSD APP":       "clinic",
		"CHW USSD APP":          "chw",
		"NURSE USSD APP":        "nurse",
		"PMTCT USSD APP":        "pmtct",
		"HELPDESK":              "",
	}
	for name, want := range cases {
		assert.Equal(t, want, AuthorityFromSource(name), name)
	}
}

func TestPatientID(t *testing.T) {
	assert.Equal(t, "8606045069081^^^ZAF^NI", *PatientID("sa_id", "8606045069081", "", momMSISDN))
	assert.Equal(t, "A1^^^MZ^PPN", *PatientID("passport", "A1", "mz", momMSISDN))
	assert.Equal(t, "27821234567^^^ZAF^TEL", *PatientID("none", "", "", momMSISDN))
	assert.Nil(t, PatientID("", "", "", ""))
}
