// Package phone normalizes contact numbers entered on lead forms.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number has no country prefix and no region is given.
const DefaultRegion = "US"

// ErrInvalid is returned for numbers that parse but are not dialable
var ErrInvalid = errors.New("invalid phone number")

func region(r string) string {
	r = strings.ToUpper(strings.TrimSpace(r))
	if r == "" {
		return DefaultRegion
	}
	return r
}

// Normalize returns raw in E.164 form (+16502530000).
func Normalize(raw, countryCode string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("phone number cannot be empty")
	}

	parsed, err := phonenumbers.Parse(raw, region(countryCode))
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", ErrInvalid
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// NormalizeOrKeep returns the E.164 form when raw parses and the trimmed
// input otherwise.
func NormalizeOrKeep(raw, countryCode string) string {
	if e164, err := Normalize(raw, countryCode); err == nil {
		return e164
	}
	return strings.TrimSpace(raw)
}

// Display formats a stored number for people: national format for numbers
// in the default region, international otherwise. Unparseable input is
// returned unchanged.
func Display(stored string) string {
	if stored == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse(stored, DefaultRegion)
	if err != nil {
		return stored
	}
	if phonenumbers.GetRegionCodeForNumber(parsed) == DefaultRegion {
		return phonenumbers.Format(parsed, phonenumbers.NATIONAL)
	}
	return phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL)
}

// Region returns the ISO region of an E.164 number, or "" if unknown
func Region(stored string) string {
	parsed, err := phonenumbers.Parse(stored, "ZZ")
	if err != nil {
		return ""
	}
	r := phonenumbers.GetRegionCodeForNumber(parsed)
	if r == "ZZ" {
		return ""
	}
	return r
}
