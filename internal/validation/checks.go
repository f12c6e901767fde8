package validation

import (
	"fmt"
	"slices"
	"strings"

	"hub/internal/records/models"
	"hub/pkg/domain"
)

// Optout reasons accepted per action family.
var (
	LossReasons              = []string{"miscarriage", "stillbirth", "babyloss"}
	PMTCTNonlossReasons      = []string{"not_hiv_pos", "not_useful", "other", "unknown"}
	MomConnectNonlossReasons = []string{"not_useful", "other", "unknown", "sms_failure"}
	NurseOptoutReasons       = []string{"job_change", "number_owner_change", "not_useful", "other", "unknown"}
)

// present builds a missing/invalid check for a single field.
func present(key, missing, invalid string, valid func(any) bool) Check {
	return func(fields FieldSet, rec *models.Record) []string {
		if !fields.Has(key) {
			return []string{missing}
		}
		if !valid(rec.Data[key]) {
			return []string{invalid}
		}
		return nil
	}
}

var (
	checkLang             = present("language", "Language is missing from data", "Language not a valid option", IsValidLang)
	checkOperatorID       = present("operator_id", "Operator ID missing", "Operator ID invalid", IsValidUUID)
	checkMSISDNRegistrant = present("msisdn_registrant", "MSISDN of Registrant missing", "MSISDN of Registrant invalid", IsValidMSISDN)
	checkMSISDNDevice     = present("msisdn_device", "MSISDN of device missing", "MSISDN of device invalid", IsValidMSISDN)
	checkFaccode          = present("faccode", "Facility (clinic) code missing", "Facility code invalid", IsValidFaccode)
	checkSAIDNo           = present("sa_id_no", "SA ID number missing", "SA ID number invalid", IsValidSAIDNo)
	checkPassportNo       = present("passport_no", "Passport number missing", "Passport number invalid", IsValidPassportNo)
	checkPassportOrigin   = present("passport_origin", "Passport origin missing", "Passport origin invalid", IsValidPassportOrigin)
	checkMSISDNNew        = present("msisdn_new", "New MSISDN missing", "New MSISDN invalid", IsValidMSISDN)
	checkMSISDNOld        = present("msisdn_old", "Old MSISDN missing", "Old MSISDN invalid", IsValidMSISDN)
	checkChannel          = present("channel", "Channel missing", "Channel invalid", func(v any) bool {
		s, ok := v.(string)
		return ok && domain.Channel(s).IsValid()
	})
	checkConsent = present("consent", "Consent is missing", "Cannot continue without consent", func(v any) bool {
		b, ok := v.(bool)
		return ok && b
	})
)

func (v *Validator) checkMomDOB(fields FieldSet, rec *models.Record) []string {
	return present("mom_dob", "Mother DOB missing", "Mother DOB invalid", IsValidDate)(fields, rec)
}

func (v *Validator) checkEDD(fields FieldSet, rec *models.Record) []string {
	today := v.now()
	return present("edd", "Estimated Due Date missing", "Estimated Due Date invalid", func(val any) bool {
		return IsValidEDD(val, today)
	})(fields, rec)
}

func (v *Validator) checkBabyDOB(fields FieldSet, rec *models.Record) []string {
	if !fields.Has("baby_dob") {
		return []string{"Baby Date of Birth missing"}
	}
	if !IsValidDate(rec.Data["baby_dob"]) {
		return []string{"Baby Date of Birth invalid"}
	}
	dob, _ := ParseDate(rec.Data["baby_dob"])
	if dob.After(truncateDay(v.now())) {
		return []string{"Baby Date of Birth cannot be in the future"}
	}
	return nil
}

// checkID gates the identification fields on id_type.
func (v *Validator) checkID(fields FieldSet, rec *models.Record) []string {
	if !fields.Has("id_type") {
		return []string{"ID type missing"}
	}
	if !IsValidIDType(rec.Data["id_type"]) {
		return []string{fmt.Sprintf("ID type should be one of %s", pyList(IDTypes))}
	}
	var errs []string
	switch rec.Data["id_type"] {
	case "sa_id":
		errs = append(errs, checkSAIDNo(fields, rec)...)
		errs = append(errs, v.checkMomDOB(fields, rec)...)
	case "passport":
		errs = append(errs, checkPassportNo(fields, rec)...)
		errs = append(errs, checkPassportOrigin(fields, rec)...)
	case "none":
		errs = append(errs, v.checkMomDOB(fields, rec)...)
	}
	return errs
}

func reasonIn(allowed []string, invalid string) Check {
	return func(fields FieldSet, rec *models.Record) []string {
		if !fields.Has(models.FieldReason) {
			return []string{"Optout reason is missing"}
		}
		s, _ := rec.Data[models.FieldReason].(string)
		if !slices.Contains(allowed, s) {
			return []string{invalid}
		}
		return nil
	}
}

const onlyOneDetail = "Only one detail update can be submitted per Change"

// checkNurseUpdateDetail accepts exactly one single-field update (faccode,
// sanc_no, persal_no) or one complete identification update.
func checkNurseUpdateDetail(fields FieldSet, rec *models.Record) []string {
	if len(fields) == 0 {
		return []string{"No details to update"}
	}
	single := []struct {
		key     string
		invalid string
		valid   func(any) bool
	}{
		{"faccode", "Faccode invalid", IsValidFaccode},
		{"sanc_no", "sanc_no invalid", IsValidSANCNo},
		{"persal_no", "persal_no invalid", IsValidPersalNo},
	}
	for _, s := range single {
		if !fields.Has(s.key) {
			continue
		}
		if len(fields) != 1 {
			return []string{onlyOneDetail}
		}
		if !s.valid(rec.Data[s.key]) {
			return []string{s.invalid}
		}
		return nil
	}
	return checkIdentificationUpdate(fields, rec)
}

// checkIdentificationUpdate requires the field set to match the chosen
// id_type branch exactly; any deviation is a single error.
func checkIdentificationUpdate(fields FieldSet, rec *models.Record) []string {
	if !fields.Has("id_type") {
		return []string{"Could not parse detail update request"}
	}
	switch rec.Data["id_type"] {
	case "sa_id":
		if !fields.Equals("id_type", "sa_id_no", "dob") {
			return []string{"SA ID update requires fields id_type, sa_id_no, dob"}
		}
		if !IsValidDate(rec.Data["dob"]) {
			return []string{"Date of birth is invalid"}
		}
		if !IsValidSAIDNo(rec.Data["sa_id_no"]) {
			return []string{"SA ID number is invalid"}
		}
		return nil
	case "passport":
		if !fields.Equals("id_type", "passport_no", "passport_origin", "dob") {
			return []string{"Passport update requires fields id_type, passport_no, passport_origin, dob"}
		}
		if !IsValidDate(rec.Data["dob"]) {
			return []string{"Date of birth is invalid"}
		}
		if !IsValidPassportNo(rec.Data["passport_no"]) {
			return []string{"Passport number is invalid"}
		}
		if !IsValidPassportOrigin(rec.Data["passport_origin"]) {
			return []string{"Passport origin is invalid"}
		}
		return nil
	default:
		return []string{"ID type should be passport or sa_id"}
	}
}

// pyList renders values the way operators have always seen them in
// invalid_fields, e.g. ['sa_id', 'passport', 'none'].
func pyList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
