package schedule

import "time"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// PregnancyWeek is the gestational week on today for a pregnancy due on edd.
// The result is never below 2.
func PregnancyWeek(today, edd time.Time) int {
	weeks := 40 - floorDiv(daysBetween(today, edd), 7)
	if weeks < 2 {
		return 2
	}
	return weeks
}

// BabyAgeWeeks is the completed weeks since dob. Negative when dob is after today.
func BabyAgeWeeks(today, dob time.Time) int {
	return floorDiv(daysBetween(dob, today), 7)
}

// MotherAge is the age in whole years on today.
func MotherAge(today, dob time.Time) int {
	today, dob = Day(today), Day(dob)
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

// PMTCT risk levels stored on the Identity and reported to Jembi.
const (
	RiskHigh   = "high"
	RiskNormal = "normal"
)

// RiskStatus rates a PMTCT mother: postbirth registrations, mothers under 18
// and pregnancies registered at 20 weeks or later are high risk.
func RiskStatus(today time.Time, postbirth bool, momDOB, edd time.Time) string {
	if postbirth {
		return RiskHigh
	}
	if MotherAge(today, momDOB) < 18 {
		return RiskHigh
	}
	if PregnancyWeek(today, edd) >= 20 {
		return RiskHigh
	}
	return RiskNormal
}
