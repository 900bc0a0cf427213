package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	numberRe    = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	postcodeRe  = regexp.MustCompile(`^(\d{3})\s?(\d{2})$`)
	addressRe   = regexp.MustCompile(`^(.*?)[,\s]+(\d{3}\s?\d{2})(?:\s+(.+))?$`)
	emailRe     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	isoDateRe   = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	textDateRe  = regexp.MustCompile(`(\d{1,2})\s+([a-zA-ZåäöÅÄÖ]+)\.?\s+(\d{4})`)
	slashDateRe = regexp.MustCompile(`(\d{1,2})[/.](\d{1,2})[/.](\d{4})`)
)

var swedishMonths = map[string]time.Month{
	"jan": time.January, "januari": time.January, "january": time.January,
	"feb": time.February, "februari": time.February, "february": time.February,
	"mar": time.March, "mars": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"maj": time.May, "may": time.May,
	"jun": time.June, "juni": time.June, "june": time.June,
	"jul": time.July, "juli": time.July, "july": time.July,
	"aug": time.August, "augusti": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"okt": time.October, "oktober": time.October, "oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// normalizeText composes å/ä/ö (some mail clients send them decomposed) and
// unifies line endings so the grammars can anchor on lines.
func normalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func cleanEmail(raw string) string {
	e := strings.ToLower(strings.TrimSpace(raw))
	e = strings.TrimPrefix(e, "mailto:")
	if !emailRe.MatchString(e) {
		return ""
	}
	return e
}

// normalizePostcode formats Swedish postcodes as "NNN NN". Anything else is
// returned trimmed.
func normalizePostcode(raw string) string {
	v := strings.TrimSpace(raw)
	if m := postcodeRe.FindStringSubmatch(v); m != nil {
		return m[1] + " " + m[2]
	}
	return v
}

// splitAddress parses "Street 1, 123 45 City" and the multi-line variant.
// Without a recognisable postcode the whole value is the street.
func splitAddress(raw string) (street, postcode, city string) {
	joined := strings.Join(strings.Fields(strings.ReplaceAll(raw, "\n", ", ")), " ")
	joined = strings.Trim(joined, ", ")
	m := addressRe.FindStringSubmatch(joined)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return joined, "", ""
	}
	street = strings.Trim(strings.TrimSpace(m[1]), ",")
	postcode = normalizePostcode(m[2])
	city = strings.Trim(strings.TrimSpace(m[3]), ",")
	return street, postcode, city
}

// normalizeDate returns YYYY-MM-DD for the date formats seen in leads and
// the input unchanged for anything else.
func normalizeDate(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if m := isoDateRe.FindStringSubmatch(v); m != nil {
		if d, ok := makeDate(m[1], monthNumber(m[2]), m[3]); ok {
			return d
		}
	}
	if m := textDateRe.FindStringSubmatch(v); m != nil {
		if month, ok := swedishMonths[strings.ToLower(m[2])]; ok {
			if d, ok := makeDate(m[3], month, m[1]); ok {
				return d
			}
		}
	}
	if m := slashDateRe.FindStringSubmatch(v); m != nil {
		if d, ok := makeDate(m[3], monthNumber(m[2]), m[1]); ok {
			return d
		}
	}
	return v
}

func monthNumber(s string) time.Month {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return time.Month(n)
}

// makeDate rejects dates that time.Date would silently roll over.
func makeDate(year string, month time.Month, day string) (string, bool) {
	y, err1 := strconv.Atoi(year)
	d, err2 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		return "", false
	}
	t := time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != month {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, int(month), d), true
}

func parseNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseInt(s string) (int, bool) {
	f, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// parseFloor understands "3", "Våning 3", "3 tr" and ground floor words.
func parseFloor(s string) (int, bool) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, ground := range []string{"bv", "bottenvåning", "bottenplan", "markplan", "entréplan", "ground"} {
		if strings.HasPrefix(lower, ground) {
			return 0, true
		}
	}
	return parseInt(lower)
}

// parseYesNo reads the first word as a yes/no answer.
func parseYesNo(s string) (bool, bool) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return false, false
	}
	switch strings.Trim(fields[0], ".,!;:") {
	case "ja", "yes", "true", "finns", "j":
		return true, true
	case "nej", "no", "false", "saknas", "n":
		return false, true
	}
	return false, false
}
