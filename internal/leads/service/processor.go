package service

import (
	"context"
	"errors"
	"time"

	"nordflytt_backend/internal/events"
	"nordflytt_backend/internal/leads/offers"
	"nordflytt_backend/internal/leads/parser"
	"nordflytt_backend/internal/leads/repository"
	"nordflytt_backend/internal/pricing/engine"
	"nordflytt_backend/platform/logger"
	"nordflytt_backend/platform/phone"
	"nordflytt_backend/platform/retry"
)

// Confidence rates how much of a lead was read rather than defaulted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Error kinds recorded on failed results.
const (
	KindIncompleteLead  = "incomplete_lead"
	KindDuplicate       = "duplicate"
	KindClientRejection = "client_rejection"
	KindTransient       = "transient"
	KindUnexpected      = "unexpected"
)

const (
	msgMissingName    = "missing customer name"
	msgMissingContact = "missing phone and email"
	msgDuplicate      = "lead already processed recently"
	msgMissingInBatch = "lead missing from batch response"
)

// LeadInput is one lead to process.
type LeadInput struct {
	ID     string `json:"id,omitempty"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// ProcessingResult is the outcome of one lead. Failures are data, not
// errors: Success is false and Error says why.
type ProcessingResult struct {
	LeadID         string             `json:"leadId,omitempty"`
	Source         string             `json:"source,omitempty"`
	Format         parser.Format      `json:"format,omitempty"`
	Success        bool               `json:"success"`
	BookingID      string             `json:"bookingId,omitempty"`
	BookingNumber  string             `json:"bookingNumber,omitempty"`
	Confidence     Confidence         `json:"confidence,omitempty"`
	Error          string             `json:"error,omitempty"`
	ErrorKind      string             `json:"errorKind,omitempty"`
	Attempts       int                `json:"attempts"`
	EstimatedPrice int64              `json:"estimatedPrice,omitempty"`
	Lead           *parser.FilledLead `json:"lead,omitempty"`
}

// BatchResult summarizes a bulk run.
type BatchResult struct {
	Total      int                `json:"total"`
	Successful int                `json:"successful"`
	Failed     int                `json:"failed"`
	Results    []ProcessingResult `json:"results"`
}

// OfferCreator is the offer endpoint client.
type OfferCreator interface {
	Create(ctx context.Context, sub offers.Submission) (offers.Booking, error)
	CreateBatch(ctx context.Context, leadIDs []string) ([]offers.BatchItem, error)
}

// Pricer estimates a price for a lead.
type Pricer interface {
	Compute(req engine.MoveRequest) (engine.PriceBreakdown, error)
	Table() engine.Table
}

// ProcessingLog persists outcomes.
type ProcessingLog interface {
	Record(ctx context.Context, entry repository.LogEntry) error
}

// DuplicateGuard claims a lead text before it is submitted. Claim returns
// false when the text is already claimed; Release undoes a claim whose lead
// failed.
type DuplicateGuard interface {
	Claim(ctx context.Context, text string) (bool, error)
	Release(ctx context.Context, text string) error
}

// Processor turns lead texts into bookings.
type Processor struct {
	parser *parser.Parser
	offers OfferCreator
	pricer Pricer
	store  ProcessingLog
	dedupe DuplicateGuard
	bus    events.Bus
	policy retry.Policy
	log    *logger.Logger
}

// Option configures a Processor.
type Option func(*Processor)

func WithPricer(p Pricer) Option                 { return func(pr *Processor) { pr.pricer = p } }
func WithProcessingLog(s ProcessingLog) Option   { return func(pr *Processor) { pr.store = s } }
func WithDuplicateGuard(d DuplicateGuard) Option { return func(pr *Processor) { pr.dedupe = d } }
func WithEventBus(b events.Bus) Option           { return func(pr *Processor) { pr.bus = b } }

// WithRetryPolicy replaces retry.Default. Retryable is always set to
// offers.IsRetryable.
func WithRetryPolicy(p retry.Policy) Option { return func(pr *Processor) { pr.policy = p } }

// NewProcessor creates a Processor. Pricing, persistence, deduplication and
// events are optional.
func NewProcessor(p *parser.Parser, oc OfferCreator, log *logger.Logger, opts ...Option) *Processor {
	pr := &Processor{
		parser: p,
		offers: oc,
		policy: retry.Default(),
		log:    log,
	}
	for _, opt := range opts {
		opt(pr)
	}
	pr.policy.Retryable = offers.IsRetryable
	return pr
}

// Parser returns the parser used by the processor.
func (p *Processor) Parser() *parser.Parser {
	return p.parser
}

// AssessConfidence starts at high, drops to medium without square meters
// and to low when either address is missing.
func AssessConfidence(parsed parser.ParsedLead) Confidence {
	c := ConfidenceHigh
	if parsed.SquareMeters == nil {
		c = ConfidenceMedium
	}
	if !parsed.From.HasAddress() || !parsed.To.HasAddress() {
		c = ConfidenceLow
	}
	return c
}

// CanAutoProcess reports whether text has a name, a contact method and at
// least one address. Anything else goes to manual review.
func (p *Processor) CanAutoProcess(text string) bool {
	parsed := p.parser.Parse(text)
	return parsed.CustomerName != "" && parsed.HasContact() && parsed.HasAnyAddress()
}

// ProcessLead parses, completes and submits one lead. It never returns an
// error; see ProcessingResult.
func (p *Processor) ProcessLead(ctx context.Context, in LeadInput) ProcessingResult {
	parsed := p.parser.Parse(in.Text)

	res := ProcessingResult{
		LeadID: in.ID,
		Source: in.Source,
		Format: parsed.LeadSource,
	}
	if res.LeadID == "" {
		res.LeadID = parsed.LeadID
	}
	if res.Source == "" {
		res.Source = string(parsed.LeadSource)
	}
	ctx = logger.ContextWithLeadID(ctx, res.LeadID)

	switch {
	case parsed.CustomerName == "":
		return p.finish(ctx, fail(res, KindIncompleteLead, msgMissingName), parsed.CustomerName)
	case !parsed.HasContact():
		return p.finish(ctx, fail(res, KindIncompleteLead, msgMissingContact), parsed.CustomerName)
	}

	filled := p.parser.FillWithDefaults(parsed)
	res.Lead = &filled
	res.Confidence = AssessConfidence(parsed)
	res.EstimatedPrice = p.Estimate(ctx, filled)

	claimed := false
	if p.dedupe != nil {
		ok, err := p.dedupe.Claim(ctx, in.Text)
		switch {
		case err != nil:
			p.log.WithContext(ctx).Warn("lead dedupe claim failed", "error", err)
		case !ok:
			return p.finish(ctx, fail(res, KindDuplicate, msgDuplicate), filled.CustomerName)
		default:
			claimed = true
		}
	}

	sub := offers.Submission{
		LeadID:         res.LeadID,
		LeadText:       in.Text,
		Lead:           &filled,
		Confidence:     string(res.Confidence),
		PhoneE164:      phone.NormalizeE164(parsed.Phone),
		EstimatedPrice: res.EstimatedPrice,
	}

	policy := p.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		p.log.WithContext(ctx).Warn("offer creation failed, retrying",
			"attempt", attempt, "backoff", delay.String(), "error", err)
	}

	booking, attempts, err := retry.DoVal(ctx, policy, func(ctx context.Context, _ int) (offers.Booking, error) {
		return p.offers.Create(ctx, sub)
	})
	res.Attempts = attempts
	if err != nil {
		if claimed {
			if rerr := p.dedupe.Release(context.WithoutCancel(ctx), in.Text); rerr != nil {
				p.log.WithContext(ctx).Warn("lead dedupe release failed", "error", rerr)
			}
		}
		return p.finish(ctx, fail(res, errorKind(err), offers.Message(err)), filled.CustomerName)
	}

	res.Success = true
	res.BookingID = booking.ID
	res.BookingNumber = booking.BookingNumber

	return p.finish(ctx, res, filled.CustomerName)
}

// ProcessBatch hands leadIDs to the bulk endpoint in one call. If the call
// fails as a whole every lead is reported failed with the same error.
func (p *Processor) ProcessBatch(ctx context.Context, leadIDs []string) BatchResult {
	out := BatchResult{Total: len(leadIDs), Results: make([]ProcessingResult, 0, len(leadIDs))}
	if len(leadIDs) == 0 {
		return out
	}

	items, attempts, err := retry.DoVal(ctx, p.policy, func(ctx context.Context, _ int) ([]offers.BatchItem, error) {
		return p.offers.CreateBatch(ctx, leadIDs)
	})

	byID := make(map[string]offers.BatchItem, len(items))
	for _, item := range items {
		byID[item.LeadID] = item
	}

	for _, id := range leadIDs {
		res := ProcessingResult{LeadID: id, Source: "batch", Attempts: attempts}
		item, ok := byID[id]
		switch {
		case err != nil:
			res = fail(res, errorKind(err), offers.Message(err))
		case !ok:
			res = fail(res, KindUnexpected, msgMissingInBatch)
		case !item.Success:
			msg := item.Error
			if msg == "" {
				msg = "offer creation failed"
			}
			res = fail(res, KindClientRejection, msg)
		default:
			res.Success = true
			if item.Booking != nil {
				res.BookingID = item.Booking.ID
				res.BookingNumber = item.Booking.BookingNumber
			}
		}

		res = p.finish(logger.ContextWithLeadID(ctx, id), res, "")
		if res.Success {
			out.Successful++
		} else {
			out.Failed++
		}
		out.Results = append(out.Results, res)
	}

	return out
}

// Estimate prices filled with the configured sheet. It returns 0 without a
// pricer or when the sheet rejects the request.
func (p *Processor) Estimate(ctx context.Context, filled parser.FilledLead) int64 {
	if p.pricer == nil {
		return 0
	}
	free := p.pricer.Table().LongCarry.FreeMeters
	b, err := p.pricer.Compute(filled.MoveRequest(free))
	if err != nil {
		p.log.WithContext(ctx).Warn("lead price estimate failed", "error", err)
		return 0
	}
	return b.Slutpris
}

// finish logs, records and announces res.
func (p *Processor) finish(ctx context.Context, res ProcessingResult, customerName string) ProcessingResult {
	log := p.log.WithContext(ctx)
	log.LeadOutcome(res.LeadID, res.Source, res.Success, string(res.Confidence), res.Error)

	if p.store != nil {
		entry := repository.LogEntry{
			LeadID:         res.LeadID,
			Source:         res.Source,
			LeadFormat:     string(res.Format),
			Success:        res.Success,
			Confidence:     string(res.Confidence),
			ErrorKind:      res.ErrorKind,
			ErrorMessage:   res.Error,
			BookingID:      res.BookingID,
			BookingNumber:  res.BookingNumber,
			Attempts:       res.Attempts,
			EstimatedPrice: res.EstimatedPrice,
		}
		if err := p.store.Record(context.WithoutCancel(ctx), entry); err != nil {
			log.DatabaseError("record_lead_outcome", err)
		}
	}

	if p.bus != nil {
		if res.Success {
			p.bus.Publish(ctx, events.LeadProcessed{
				BaseEvent:      events.NewBaseEvent(),
				LeadID:         res.LeadID,
				Source:         res.Source,
				BookingID:      res.BookingID,
				BookingNumber:  res.BookingNumber,
				Confidence:     string(res.Confidence),
				Attempts:       res.Attempts,
				EstimatedPrice: res.EstimatedPrice,
			})
		} else {
			p.bus.Publish(ctx, events.LeadProcessingFailed{
				BaseEvent:    events.NewBaseEvent(),
				LeadID:       res.LeadID,
				Source:       res.Source,
				CustomerName: customerName,
				ErrorKind:    res.ErrorKind,
				Reason:       res.Error,
				Attempts:     res.Attempts,
			})
		}
	}

	return res
}

func fail(res ProcessingResult, kind, msg string) ProcessingResult {
	res.Success = false
	res.ErrorKind = kind
	res.Error = msg
	return res
}

func errorKind(err error) string {
	var rej *offers.ClientRejectionError
	switch {
	case errors.As(err, &rej):
		return KindClientRejection
	case offers.IsRetryable(err):
		return KindTransient
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	default:
		return KindUnexpected
	}
}
