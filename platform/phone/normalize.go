// Package phone cleans and formats Swedish phone numbers as they appear in
// lead e-mails.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "SE"
	countryCode   = "46"
	// nationalDigits is the length of a Swedish mobile number without its
	// trunk zero, e.g. 70 123 45 67.
	nationalDigits = 9
)

var separators = strings.NewReplacer(" ", "", "\t", "", "\u00a0", "", "-", "", ".", "", "/", "", "(", "", ")", "")

// Clean strips separators and restores the Swedish prefix forms lead forms
// mangle: 0046 and a bare 46 become +46, "+46 (0)70" loses its trunk zero
// and a national number missing its leading zero gets it back. Input
// without digits yields "".
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	// "+46 (0)70..." keeps the trunk zero in parentheses.
	s = strings.Replace(s, "(0)", "", 1)
	s = separators.Replace(s)
	if !strings.ContainsAny(s, "0123456789") {
		return ""
	}

	switch {
	case strings.HasPrefix(s, "+"):
		return s
	case strings.HasPrefix(s, "00"):
		return "+" + s[2:]
	case strings.HasPrefix(s, countryCode) && len(s) == len(countryCode)+nationalDigits:
		return "+" + s
	case strings.HasPrefix(s, "0"):
		return s
	default:
		return "0" + s
	}
}

// NormalizeE164 formats a phone number to E.164 after Clean. If the result
// is not a valid number the trimmed input is returned.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	cleaned := Clean(trimmed)
	if cleaned == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(cleaned, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
