package validation

import (
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"hub/internal/records/models"
	id "hub/pkg/domain"
)

const (
	registrant = "8b4f5a52-3c1b-4e0f-9b5a-2f1c7d9e6a01"
	operator   = "4c2e9d7a-1b3f-4a5e-8c6d-0e9f1a2b3c4d"
	saIDNo     = "8606045069081"
	msisdn     = "+27821234567"
	msisdnAlt  = "+27831234567"
)

var today = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type ValidatorSuite struct {
	suite.Suite
	v *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.v = New(WithClock(func() time.Time { return today }))
}

type fixture struct {
	name      string
	kind      models.Kind
	action    string
	authority models.Authority
	data      map[string]any
}

func (f fixture) record() *models.Record {
	return &models.Record{
		ID:           id.NewRecordID(),
		Kind:         f.kind,
		Action:       f.action,
		RegistrantID: registrant,
		Data:         maps.Clone(f.data),
		Source:       models.Source{ID: 1, Name: "test", Authority: f.authority},
	}
}

func validFixtures() []fixture {
	reg := models.KindRegistration
	chg := models.KindChange
	return []fixture{
		{"pmtct prebirth", reg, "pmtct_prebirth", models.AuthorityPatient, map[string]any{
			"language": "eng_ZA", "mom_dob": "1990-05-05", "edd": "2026-06-01", "operator_id": operator}},
		{"whatsapp pmtct postbirth", reg, "whatsapp_pmtct_postbirth", models.AuthorityPatient, map[string]any{
			"language": "zul_ZA", "mom_dob": "1990-05-05", "baby_dob": "2026-01-15", "operator_id": operator}},
		{"nurseconnect", reg, "nurseconnect", models.AuthorityHWFull, map[string]any{
			"faccode": "123456", "operator_id": operator, "msisdn_registrant": msisdn, "msisdn_device": msisdn, "language": "eng_ZA"}},
		{"momconnect prebirth public", reg, "momconnect_prebirth", models.AuthorityPatient, map[string]any{
			"operator_id": operator, "msisdn_registrant": msisdn, "msisdn_device": msisdn, "language": "eng_ZA", "consent": true}},
		{"momconnect prebirth chw passport", reg, "momconnect_prebirth", models.AuthorityHWPartial, map[string]any{
			"operator_id": operator, "msisdn_registrant": msisdn, "msisdn_device": msisdnAlt, "language": "xho_ZA", "consent": true,
			"id_type": "passport", "passport_no": "A1234567", "passport_origin": "zw"}},
		{"whatsapp prebirth clinic sa id", reg, "whatsapp_prebirth", models.AuthorityHWFull, map[string]any{
			"operator_id": operator, "msisdn_registrant": msisdn, "msisdn_device": msisdn, "language": "afr_ZA", "consent": true,
			"id_type": "sa_id", "sa_id_no": saIDNo, "mom_dob": "1986-06-04", "edd": "2026-06-01", "faccode": "123456"}},
		{"baby switch", chg, "baby_switch", "", map[string]any{}},
		{"pmtct loss switch", chg, "pmtct_loss_switch", "", map[string]any{"reason": "miscarriage"}},
		{"momconnect loss optout", chg, "momconnect_loss_optout", "", map[string]any{"reason": "stillbirth"}},
		{"pmtct nonloss optout", chg, "pmtct_nonloss_optout", "", map[string]any{"reason": "not_hiv_pos"}},
		{"momconnect nonloss optout", chg, "momconnect_nonloss_optout", "", map[string]any{"reason": "sms_failure"}},
		{"nurse optout", chg, "nurse_optout", "", map[string]any{"reason": "job_change"}},
		{"nurse update faccode", chg, "nurse_update_detail", "", map[string]any{"faccode": "234567"}},
		{"nurse update sa id", chg, "nurse_update_detail", "", map[string]any{"id_type": "sa_id", "sa_id_no": saIDNo, "dob": "1986-06-04"}},
		{"change identification passport", chg, "momconnect_change_identification", "", map[string]any{
			"id_type": "passport", "passport_no": "A1234567", "passport_origin": "mz", "dob": "1986-06-04"}},
		{"momconnect change msisdn", chg, "momconnect_change_msisdn", "", map[string]any{"msisdn_new": msisdnAlt}},
		{"nurse change msisdn", chg, "nurse_change_msisdn", "", map[string]any{"msisdn_new": msisdnAlt, "msisdn_old": msisdn}},
		{"change language", chg, "momconnect_change_language", "", map[string]any{"language": "sot_ZA"}},
		{"switch channel", chg, "switch_channel", "", map[string]any{"channel": "whatsapp"}},
	}
}

func (s *ValidatorSuite) TestValidRecordsPass() {
	for _, f := range validFixtures() {
		s.Run(f.name, func() {
			ok, errs := s.v.Validate(f.record())
			s.True(ok)
			s.Empty(errs)
		})
	}
}

func (s *ValidatorSuite) TestMissingFieldReportsOnlyThatField() {
	for _, f := range validFixtures() {
		keys := slices.Sorted(maps.Keys(f.data))
		for _, key := range keys {
			s.Run(f.name+" without "+key, func() {
				rec := f.record()
				delete(rec.Data, key)
				ok, errs := s.v.Validate(rec)
				s.False(ok)
				s.Len(errs, 1, "errors: %v", errs)
			})
		}
	}
}

func (s *ValidatorSuite) TestRegistrationErrorOrder() {
	s.Run("pmtct prebirth reports every failure in check order", func() {
		rec := &models.Record{Kind: models.KindRegistration, Action: "pmtct_prebirth", RegistrantID: "nope",
			Data: map[string]any{"mom_dob": "1990-13-01", "edd": "2025-01-01"}}
		_, errs := s.v.Validate(rec)
		s.Equal([]string{
			"Invalid UUID registrant_id",
			"Language is missing from data",
			"Mother DOB invalid",
			"Estimated Due Date invalid",
			"Operator ID missing",
		}, errs)
	})

	s.Run("clinic registration checks id then edd then faccode", func() {
		rec := &models.Record{Kind: models.KindRegistration, Action: "momconnect_prebirth", RegistrantID: registrant,
			Source: models.Source{Authority: models.AuthorityHWFull},
			Data: map[string]any{"operator_id": operator, "msisdn_registrant": "0821234567", "msisdn_device": msisdn,
				"language": "eng_ZA", "consent": false, "id_type": "drivers"}}
		_, errs := s.v.Validate(rec)
		s.Equal([]string{
			"MSISDN of Registrant invalid",
			"Cannot continue without consent",
			"ID type should be one of ['sa_id', 'passport', 'none']",
			"Estimated Due Date missing",
			"Facility (clinic) code missing",
		}, errs)
	})

	s.Run("baby born in the future", func() {
		rec := validFixtures()[1].record()
		rec.Data["baby_dob"] = "2026-03-02"
		_, errs := s.v.Validate(rec)
		s.Equal([]string{"Baby Date of Birth cannot be in the future"}, errs)
	})

	s.Run("unsupported registration types", func() {
		for action, msg := range map[string]string{
			"momconnect_postbirth": "Momconnect postbirth not yet supported",
			"loss_general":         "Loss general not yet supported",
		} {
			_, errs := s.v.Validate(&models.Record{Kind: models.KindRegistration, Action: action, RegistrantID: registrant, Data: map[string]any{}})
			s.Equal([]string{msg}, errs)
		}
	})
}

func (s *ValidatorSuite) TestChangeErrors() {
	cases := []struct {
		name   string
		action string
		data   map[string]any
		want   []string
	}{
		{"loss reason missing", "momconnect_loss_switch", map[string]any{}, []string{"Optout reason is missing"}},
		{"loss reason wrong", "pmtct_loss_optout", map[string]any{"reason": "not_useful"}, []string{"Not a valid loss reason"}},
		{"nonloss reason wrong", "pmtct_nonloss_optout", map[string]any{"reason": "sms_failure"}, []string{"Not a valid nonloss reason"}},
		{"nurse detail empty", "nurse_update_detail", map[string]any{}, []string{"No details to update"}},
		{"nurse detail two fields", "nurse_update_detail", map[string]any{"faccode": "123456", "sanc_no": "12345678"}, []string{onlyOneDetail}},
		{"nurse detail bad persal", "nurse_update_detail", map[string]any{"persal_no": "123"}, []string{"persal_no invalid"}},
		{"nurse detail wrong id type", "nurse_update_detail", map[string]any{"id_type": "none"}, []string{"ID type should be passport or sa_id"}},
		{"sa id extra field", "nurse_update_detail", map[string]any{"id_type": "sa_id", "sa_id_no": saIDNo, "dob": "1986-06-04", "passport_no": "A1234"},
			[]string{"SA ID update requires fields id_type, sa_id_no, dob"}},
		{"sa id bad checksum", "momconnect_change_identification", map[string]any{"id_type": "sa_id", "sa_id_no": "8606045069082", "dob": "1986-06-04"},
			[]string{"SA ID number is invalid"}},
		{"passport bad origin", "nurse_update_detail", map[string]any{"id_type": "passport", "passport_no": "A1234567", "passport_origin": "xx", "dob": "1986-06-04"},
			[]string{"Passport origin is invalid"}},
		{"unparseable detail", "nurse_update_detail", map[string]any{"name": "x"}, []string{"Could not parse detail update request"}},
		{"nurse msisdn old invalid", "nurse_change_msisdn", map[string]any{"msisdn_new": msisdn, "msisdn_old": "123"}, []string{"Old MSISDN invalid"}},
		{"channel invalid", "switch_channel", map[string]any{"channel": "email"}, []string{"Channel invalid"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rec := &models.Record{Kind: models.KindChange, Action: tc.action, RegistrantID: registrant, Data: tc.data}
			ok, errs := s.v.Validate(rec)
			s.False(ok)
			s.Equal(tc.want, errs)
		})
	}
}

func TestFormats(t *testing.T) {
	t.Run("sa id number", func(t *testing.T) {
		assert.True(t, IsValidSAIDNo(saIDNo))
		assert.True(t, IsValidSAIDNo("9001015000085"))
		assert.False(t, IsValidSAIDNo("8606045069082"), "luhn")
		assert.False(t, IsValidSAIDNo("8613045069081"), "month 13")
		assert.False(t, IsValidSAIDNo(8606045069081))
	})

	t.Run("msisdn must be e164", func(t *testing.T) {
		assert.True(t, IsValidMSISDN(msisdn))
		assert.False(t, IsValidMSISDN("0821234567"))
		assert.False(t, IsValidMSISDN("+2782123"))
	})

	t.Run("edd window", func(t *testing.T) {
		assert.False(t, IsValidEDD("2026-03-01", today), "today")
		assert.True(t, IsValidEDD("2026-03-02", today))
		assert.True(t, IsValidEDD(today.AddDate(0, 0, 43*7).Format(DateLayout), today))
		assert.False(t, IsValidEDD(today.AddDate(0, 0, 43*7+1).Format(DateLayout), today))
	})

	t.Run("dates", func(t *testing.T) {
		assert.True(t, IsValidDate("1990-02-28"))
		assert.False(t, IsValidDate("1990-02-30"))
		assert.False(t, IsValidDate("1899-01-01"))
		assert.False(t, IsValidDate(19900228))
	})

	t.Run("codes", func(t *testing.T) {
		assert.True(t, IsValidFaccode("123456"))
		assert.False(t, IsValidFaccode("12345"))
		assert.True(t, IsValidSANCNo("12345678"))
		assert.False(t, IsValidPersalNo("1234567a"))
		require.Len(t, Languages, 11)
	})
}
