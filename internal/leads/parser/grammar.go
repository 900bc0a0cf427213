package parser

import (
	"regexp"
	"strings"
)

// fieldRule extracts one field. The first capture group of re, trimmed, is
// handed to set; empty captures are ignored. scope narrows the text the
// pattern runs against (nil means the whole text).
type fieldRule struct {
	field string
	scope func(text string) string
	re    *regexp.Regexp
	set   func(l *ParsedLead, value string)
}

// grammar is an isolated extractor table for one lead source.
type grammar struct {
	format Format
	detect func(text string) bool
	rules  []fieldRule
}

// extractor is one link of the format detection chain.
type extractor interface {
	source() Format
	detects(text string) bool
	extract(text string) ParsedLead
}

func (g grammar) source() Format { return g.format }

func (g grammar) detects(text string) bool { return g.detect(text) }

func (g grammar) extract(text string) ParsedLead {
	lead := ParsedLead{LeadSource: g.format}
	for _, r := range g.rules {
		scoped := text
		if r.scope != nil {
			scoped = r.scope(text)
		}
		if scoped == "" {
			continue
		}
		m := r.re.FindStringSubmatch(scoped)
		if len(m) < 2 {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			continue
		}
		r.set(&lead, value)
	}
	return lead
}

func rule(field string, pattern string, set func(*ParsedLead, string)) fieldRule {
	return fieldRule{field: field, re: regexp.MustCompile(pattern), set: set}
}

func scoped(field string, scope func(string) string, pattern string, set func(*ParsedLead, string)) fieldRule {
	return fieldRule{field: field, scope: scope, re: regexp.MustCompile(pattern), set: set}
}

// between returns the text after the first match of start up to the first
// match of any stop pattern that follows it.
func between(start *regexp.Regexp, stops ...*regexp.Regexp) func(string) string {
	return func(text string) string {
		loc := start.FindStringIndex(text)
		if loc == nil {
			return ""
		}
		rest := text[loc[1]:]
		end := len(rest)
		for _, stop := range stops {
			if s := stop.FindStringIndex(rest); s != nil && s[0] < end {
				end = s[0]
			}
		}
		return rest[:end]
	}
}

// from returns the text starting at the first match of start, inclusive.
func from(start *regexp.Regexp) func(string) string {
	return func(text string) string {
		if loc := start.FindStringIndex(text); loc != nil {
			return text[loc[0]:]
		}
		return ""
	}
}

// label builds a line-anchored pattern capturing the rest of the line after
// name. sep is what separates label and value ("[ \t]*" after a colon,
// "[ \t]+" for tab-separated form dumps).
func label(name, sep string) string {
	return `(?m)^[ \t]*` + name + sep + `(.+)$`
}

// before returns the text up to the first match of stop, or all of it.
func before(stop *regexp.Regexp) func(string) string {
	return func(text string) string {
		if loc := stop.FindStringIndex(text); loc != nil {
			return text[:loc[0]]
		}
		return text
	}
}

// Setters shared by the grammars.

func setName(l *ParsedLead, v string)     { l.CustomerName = v }
func setEmail(l *ParsedLead, v string)    { l.Email = v }
func setPhone(l *ParsedLead, v string)    { l.Phone = v }
func setLeadID(l *ParsedLead, v string)   { l.LeadID = v }
func setMoveDate(l *ParsedLead, v string) { l.MoveDate = v }
func setFlexible(l *ParsedLead, v string) { l.FlexibleDate = v }
func setInfo(l *ParsedLead, v string)     { l.AdditionalInfo = v }

func setRooms(l *ParsedLead, v string) {
	if n, ok := parseInt(v); ok {
		l.Rooms = &n
	}
}

func setSquareMeters(l *ParsedLead, v string) {
	if n, ok := parseNumber(v); ok && n > 0 {
		l.SquareMeters = &n
	}
}

func setPacking(l *ParsedLead, v string) {
	if b, ok := parseYesNo(v); ok {
		l.PackingService = &b
	}
}

func setCleaning(l *ParsedLead, v string) {
	if b, ok := parseYesNo(v); ok {
		l.CleaningService = &b
	}
}

// endpointSetters builds setters for one end of the move.
type endpointSetters struct {
	get func(l *ParsedLead) *Endpoint
}

var (
	fromSide = endpointSetters{get: func(l *ParsedLead) *Endpoint { return &l.From }}
	toSide   = endpointSetters{get: func(l *ParsedLead) *Endpoint { return &l.To }}
)

func (s endpointSetters) address(l *ParsedLead, v string) { s.get(l).Address = v }
func (s endpointSetters) city(l *ParsedLead, v string)    { s.get(l).City = v }

func (s endpointSetters) postcode(l *ParsedLead, v string) {
	s.get(l).Postcode = normalizePostcode(v)
}

// fullAddress splits "Street 1, 123 45 City" into its parts. Parts already
// set by a dedicated label win.
func (s endpointSetters) fullAddress(l *ParsedLead, v string) {
	street, postcode, city := splitAddress(v)
	e := s.get(l)
	if e.Address == "" {
		e.Address = street
	}
	if e.Postcode == "" {
		e.Postcode = postcode
	}
	if e.City == "" {
		e.City = city
	}
}

func (s endpointSetters) floor(l *ParsedLead, v string) {
	if n, ok := parseFloor(v); ok {
		s.get(l).Floor = &n
	}
}

func (s endpointSetters) propertyType(l *ParsedLead, v string) {
	s.get(l).PropertyType = ParsePropertyType(v)
}

func (s endpointSetters) elevator(l *ParsedLead, v string) {
	if b, ok := parseYesNo(v); ok {
		s.get(l).HasElevator = &b
	}
}

func (s endpointSetters) parking(l *ParsedLead, v string) {
	if n, ok := parseNumber(v); ok {
		s.get(l).ParkingDistance = &n
	}
}
