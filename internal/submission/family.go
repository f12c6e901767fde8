// Package submission builds compliance reports for processed records and
// posts them to Jembi, retrying transient failures.
package submission

import (
	"fmt"

	"hub/internal/records/models"
)

// Family names a kind of compliance report. Each family has its own
// endpoint and builder.
type Family string

const (
	FamilyRegistration      Family = "registration"
	FamilyPMTCTRegistration Family = "pmtct-registration"
	FamilyNurseRegistration Family = "nurse-registration"
	FamilyOptout            Family = "optout"
	FamilyBabyLoss          Family = "baby-loss"
	FamilyNurseOptout       Family = "nurse-optout"
	FamilyBabySwitch        Family = "baby-switch"
	FamilyChannelSwitch     Family = "channel-switch"
)

// Report type codes understood by Jembi.
const (
	TypePersonal      = 1
	TypeCHW           = 2
	TypeClinic        = 3
	TypeOptout        = 4
	TypeBabyLoss      = 5
	TypeNurse         = 7
	TypeNurseOptout   = 8
	TypePMTCT         = 9
	TypeBabySwitch    = 11
	TypeChannelSwitch = 12
)

type route struct {
	endpoint string
	typeCode int
}

// routes maps each family to its endpoint and fixed type code. Registration
// type codes depend on the source authority, so they carry 0 here.
var routes = map[Family]route{
	FamilyRegistration:      {endpoint: "subscription"},
	FamilyPMTCTRegistration: {endpoint: "pmtctSubscription", typeCode: TypePMTCT},
	FamilyNurseRegistration: {endpoint: "nc/subscription", typeCode: TypeNurse},
	FamilyOptout:            {endpoint: "optout", typeCode: TypeOptout},
	FamilyBabyLoss:          {endpoint: "subscription", typeCode: TypeBabyLoss},
	FamilyNurseOptout:       {endpoint: "nc/optout", typeCode: TypeNurseOptout},
	FamilyBabySwitch:        {endpoint: "subscription", typeCode: TypeBabySwitch},
	FamilyChannelSwitch:     {endpoint: "messageChange", typeCode: TypeChannelSwitch},
}

// AllFamilies lists every report family.
func AllFamilies() []Family {
	return []Family{
		FamilyRegistration, FamilyPMTCTRegistration, FamilyNurseRegistration,
		FamilyOptout, FamilyBabyLoss, FamilyNurseOptout,
		FamilyBabySwitch, FamilyChannelSwitch,
	}
}

// ParseFamily validates s as a Family.
func ParseFamily(s string) (Family, error) {
	f := Family(s)
	if _, ok := routes[f]; !ok {
		return "", fmt.Errorf("unknown report family %q", s)
	}
	return f, nil
}

// RegistrationFamily is the report family a registration of type t submits.
func RegistrationFamily(t models.RegType) Family {
	switch {
	case t.IsNurse():
		return FamilyNurseRegistration
	case t.IsPMTCT():
		return FamilyPMTCTRegistration
	default:
		return FamilyRegistration
	}
}

// Endpoint is the Jembi path the family posts to.
func (f Family) Endpoint() string { return routes[f].endpoint }

// TypeCode is the fixed report type, or 0 when it depends on the authority.
func (f Family) TypeCode() int { return routes[f].typeCode }

// OptoutReasons maps change reasons to Jembi's numeric optout codes.
var OptoutReasons = map[string]int{
	"miscarriage":         1,
	"stillbirth":          2,
	"babyloss":            3,
	"not_useful":          4,
	"other":               5,
	"unknown":             6,
	"job_change":          7,
	"number_owner_change": 8,
	"not_hiv_pos":         9,
	"sms_failure":         10,
}

// authorityTypes maps a compliance authority to the registration type code.
var authorityTypes = map[string]int{
	"personal": TypePersonal,
	"chw":      TypeCHW,
	"clinic":   TypeClinic,
	"optout":   TypeOptout,
	"pmtct":    TypePMTCT,
}
