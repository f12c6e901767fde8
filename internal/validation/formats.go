package validation

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	id "hub/pkg/domain"
)

// DateLayout is the wire format of every date field on a record.
const DateLayout = "2006-01-02"

// Languages are the supported xxx_ZA language codes.
var Languages = []string{
	"zul_ZA", "xho_ZA", "afr_ZA", "eng_ZA", "nso_ZA", "tsn_ZA",
	"sot_ZA", "tso_ZA", "ssw_ZA", "ven_ZA", "nbl_ZA",
}

// IDTypes are the accepted identification types on a registration.
var IDTypes = []string{"sa_id", "passport", "none"}

// PassportOrigins are the accepted passport issuing countries.
var PassportOrigins = []string{"na", "bw", "mz", "sz", "ls", "cu", "zw", "mw", "ng", "cd", "so", "other"}

var (
	faccodeRe  = regexp.MustCompile(`^\d{6}$`)
	saIDRe     = regexp.MustCompile(`^\d{13}$`)
	passportRe = regexp.MustCompile(`^[A-Za-z0-9]{4,20}$`)
	eightDigit = regexp.MustCompile(`^\d{8}$`)
)

// maxEDDWindow bounds how far in the future an estimated due date may be.
const maxEDDWindow = 43 * 7 * 24 * time.Hour

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// IsValidLang reports whether v is one of the supported language codes.
func IsValidLang(v any) bool {
	s, ok := asString(v)
	return ok && slices.Contains(Languages, s)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(v any) (time.Time, bool) {
	s, ok := asString(v)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsValidDate reports whether v is a YYYY-MM-DD date after 1900.
func IsValidDate(v any) bool {
	t, ok := ParseDate(v)
	return ok && t.Year() > 1900
}

// IsValidEDD reports whether v is a date after today and at most 43 weeks out.
func IsValidEDD(v any, today time.Time) bool {
	edd, ok := ParseDate(v)
	if !ok {
		return false
	}
	day := truncateDay(today)
	return edd.After(day) && !edd.After(day.Add(maxEDDWindow))
}

// IsValidUUID reports whether v is a non-nil UUID string.
func IsValidUUID(v any) bool {
	s, ok := asString(v)
	return ok && id.IsValidUUID(s)
}

// IsValidMSISDN reports whether v is a valid number written in E.164 form.
func IsValidMSISDN(v any) bool {
	s, ok := asString(v)
	if !ok || !strings.HasPrefix(s, "+") {
		return false
	}
	num, err := phonenumbers.Parse(s, "ZA")
	if err != nil {
		return false
	}
	if !phonenumbers.IsValidNumber(num) {
		return false
	}
	return phonenumbers.Format(num, phonenumbers.E164) == s
}

// IsValidFaccode reports whether v is a six digit facility code.
func IsValidFaccode(v any) bool {
	s, ok := asString(v)
	return ok && faccodeRe.MatchString(s)
}

// IsValidSAIDNo reports whether v is a 13 digit South African ID number with
// a real embedded birth date and a valid Luhn check digit.
func IsValidSAIDNo(v any) bool {
	s, ok := asString(v)
	if !ok || !saIDRe.MatchString(s) {
		return false
	}
	if _, err := time.Parse("060102", s[:6]); err != nil {
		return false
	}
	return luhn(s)
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// IsValidPassportNo reports whether v is a plausible passport number.
func IsValidPassportNo(v any) bool {
	s, ok := asString(v)
	return ok && passportRe.MatchString(s)
}

// IsValidPassportOrigin reports whether v is an accepted origin code.
func IsValidPassportOrigin(v any) bool {
	s, ok := asString(v)
	return ok && slices.Contains(PassportOrigins, s)
}

// IsValidIDType reports whether v is an accepted registration id type.
func IsValidIDType(v any) bool {
	s, ok := asString(v)
	return ok && slices.Contains(IDTypes, s)
}

// IsValidSANCNo reports whether v is an eight digit nursing council number.
func IsValidSANCNo(v any) bool {
	s, ok := asString(v)
	return ok && eightDigit.MatchString(s)
}

// IsValidPersalNo reports whether v is an eight digit PERSAL number.
func IsValidPersalNo(v any) bool {
	s, ok := asString(v)
	return ok && eightDigit.MatchString(s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
