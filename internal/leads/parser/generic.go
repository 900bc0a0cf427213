package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// genericExtractor reads "key: value" lines from unrecognised lead texts.
// Keys are matched case- and punctuation-insensitively against small
// Swedish and English label tables.
type genericExtractor struct{}

var (
	genericNamePatterns     = []string{"namn", "name", "kund", "kontaktperson", "fullname", "fullständigt namn"}
	genericEmailPatterns    = []string{"email", "e-mail", "e-post", "epost", "mail"}
	genericPhonePatterns    = []string{"telefon", "telefonnummer", "tel", "mobil", "mobilnummer", "phone", "phone number"}
	genericFromPatterns     = []string{"från", "flyttar från", "från adress", "nuvarande adress", "from", "from address"}
	genericToPatterns       = []string{"till", "flyttar till", "till adress", "ny adress", "to", "to address"}
	genericDatePatterns     = []string{"datum", "flyttdatum", "önskat flyttdatum", "move date", "date"}
	genericSqmPatterns      = []string{"kvm", "boyta", "boarea", "bostadsstorlek", "kvadratmeter", "area", "size", "square meters"}
	genericRoomsPatterns    = []string{"rum", "antal rum", "rooms"}
	genericVolumePatterns   = []string{"volym", "kubik", "m3", "volume"}
	genericMessagePatterns  = []string{"meddelande", "övrigt", "kommentar", "message", "comment", "notes"}
	genericPackingPatterns  = []string{"packning", "packhjälp", "packing"}
	genericCleaningPatterns = []string{"städning", "flyttstädning", "cleaning"}
	genericLeadIDPatterns   = []string{"lead id", "leadid", "id", "referens", "reference"}

	anyEmailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// The leading group stands in for a word boundary so that dates such
	// as 2025-09-01 are not read as numbers.
	anyPhoneRe = regexp.MustCompile(`(?:^|[^\d\-+])((?:\+46|0)[1-9][\d \-]{6,12}\d)(?:$|[^\d])`)
)

func (genericExtractor) source() Format { return FormatGeneric }

func (genericExtractor) detects(string) bool { return true }

func (genericExtractor) extract(text string) ParsedLead {
	lead := ParsedLead{LeadSource: FormatGeneric}

	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		k := strings.TrimSpace(key)

		switch {
		case matchesAny(k, genericNamePatterns):
			setOnce(&lead.CustomerName, value)
		case matchesAny(k, genericEmailPatterns):
			setOnce(&lead.Email, value)
		case matchesAny(k, genericPhonePatterns):
			setOnce(&lead.Phone, value)
		case matchesAny(k, genericFromPatterns):
			fromSide.fullAddress(&lead, value)
		case matchesAny(k, genericToPatterns):
			toSide.fullAddress(&lead, value)
		case matchesAny(k, genericDatePatterns):
			setOnce(&lead.MoveDate, value)
		case matchesAny(k, genericSqmPatterns):
			setSquareMeters(&lead, value)
		case matchesAny(k, genericRoomsPatterns):
			setRooms(&lead, value)
		case matchesAny(k, genericVolumePatterns):
			if n, ok := parseNumber(value); ok && n > 0 {
				lead.EstimatedVolume = &n
			}
		case matchesAny(k, genericMessagePatterns):
			setOnce(&lead.AdditionalInfo, value)
		case matchesAny(k, genericPackingPatterns):
			setPacking(&lead, value)
		case matchesAny(k, genericCleaningPatterns):
			setCleaning(&lead, value)
		case matchesAny(k, genericLeadIDPatterns):
			setOnce(&lead.LeadID, value)
		}
	}

	// Contact details without a label are still worth keeping.
	if lead.Email == "" {
		lead.Email = anyEmailRe.FindString(text)
	}
	if lead.Phone == "" {
		if m := anyPhoneRe.FindStringSubmatch(text); m != nil {
			lead.Phone = m[1]
		}
	}

	return lead
}

func setOnce(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// matchesAny compares a label against patterns ignoring case and
// separator characters.
func matchesAny(label string, patterns []string) bool {
	normalized := foldLabel(label)
	for _, p := range patterns {
		if normalized == foldLabel(p) {
			return true
		}
	}
	return false
}

func foldLabel(s string) string {
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	// A Caser keeps state, so each call gets its own.
	return cases.Fold().String(s)
}
