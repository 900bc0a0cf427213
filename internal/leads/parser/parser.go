package parser

import (
	"time"

	"nordflytt_backend/platform/phone"
)

// Parser detects the lead format and extracts a ParsedLead. A Parser is
// immutable after New and safe for concurrent use.
type Parser struct {
	chain    []extractor
	fallback extractor
	defaults LeadDefaults
	now      func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithDefaults replaces the defaults used by FillWithDefaults.
func WithDefaults(d LeadDefaults) Option {
	return func(p *Parser) { p.defaults = d }
}

// WithClock sets the clock used for the default move date.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// New creates a Parser with the known lead formats in detection order.
func New(opts ...Option) *Parser {
	p := &Parser{
		chain:    []extractor{flyttfirma24Grammar, flyttaSeGrammar, emailGrammar},
		fallback: genericExtractor{},
		defaults: DefaultLeadDefaults(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Detect returns the format Parse would use for text.
func (p *Parser) Detect(text string) Format {
	return p.pick(normalizeText(text)).source()
}

// Parse extracts whatever it can from text. It never fails; an unreadable
// text yields a ParsedLead with only LeadSource set.
func (p *Parser) Parse(text string) ParsedLead {
	text = normalizeText(text)
	lead := p.pick(text).extract(text)
	cleanup(&lead)
	return lead
}

// FillWithDefaults completes parsed with the Parser's defaults and clock.
func (p *Parser) FillWithDefaults(parsed ParsedLead) FilledLead {
	return FillWithDefaults(parsed, p.defaults, p.now())
}

func (p *Parser) pick(text string) extractor {
	for _, e := range p.chain {
		if e.detects(text) {
			return e
		}
	}
	return p.fallback
}

// cleanup normalizes contact details and dates after extraction.
func cleanup(l *ParsedLead) {
	if l.Phone != "" {
		l.Phone = phone.Clean(l.Phone)
	}
	if l.Email != "" {
		l.Email = cleanEmail(l.Email)
	}
	l.MoveDate = normalizeDate(l.MoveDate)
	l.From.Postcode = normalizePostcode(l.From.Postcode)
	l.To.Postcode = normalizePostcode(l.To.Postcode)
}
