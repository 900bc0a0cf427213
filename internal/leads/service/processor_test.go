package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nordflytt_backend/internal/events"
	"nordflytt_backend/internal/leads/offers"
	"nordflytt_backend/internal/leads/parser"
	"nordflytt_backend/internal/leads/repository"
	"nordflytt_backend/internal/pricing/engine"
	"nordflytt_backend/platform/logger"
	"nordflytt_backend/platform/retry"

	platformevents "nordflytt_backend/platform/events"
)

const completeLead = `Lead ID: FF-100
Namn: Anna Svensson
Telefon: 070-123 45 67
Epost: anna@example.se
Potentiellt flyttdatum: 2025-05-15
Boyta: 60

Flyttar från:
Adress: Storgatan 12
Postnummer: 11122
Ort: Stockholm

Flyttar till:
Adress: Ringvägen 5
Postnummer: 11661
Ort: Stockholm
`

type offerConfig struct{ url string }

func (c offerConfig) GetOfferAPIURL() string         { return c.url + "/create" }
func (c offerConfig) GetOfferBatchURL() string       { return c.url + "/create/bulk" }
func (c offerConfig) GetOfferAPIToken() string       { return "" }
func (c offerConfig) GetOfferTimeout() time.Duration { return 5 * time.Second }

// recordingSleep captures backoff delays without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func testPolicy(s *recordingSleep) retry.Policy {
	p := retry.Default()
	p.Sleep = s.sleep
	return p
}

type scriptedOffers struct {
	mu         sync.Mutex
	errs       []error
	calls      int
	subs       []offers.Submission
	batch      []offers.BatchItem
	batchErr   error
	batchCalls int
}

func (f *scriptedOffers) Create(_ context.Context, sub offers.Submission) (offers.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.subs = append(f.subs, sub)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return offers.Booking{}, err
		}
	}
	return offers.Booking{ID: "b-1", BookingNumber: "NF-1001"}, nil
}

func (f *scriptedOffers) CreateBatch(_ context.Context, _ []string) ([]offers.BatchItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	return f.batch, f.batchErr
}

type memoryLog struct {
	mu      sync.Mutex
	entries []repository.LogEntry
	err     error
}

func (m *memoryLog) Record(_ context.Context, e repository.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return m.err
}

func newProcessor(oc OfferCreator, sleep *recordingSleep, opts ...Option) *Processor {
	opts = append([]Option{WithRetryPolicy(testPolicy(sleep))}, opts...)
	return NewProcessor(parser.New(), oc, logger.Nop(), opts...)
}

func TestProcessLead_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"database unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"booking":{"id":"b-42","bookingNumber":"NF-2042"}}`))
	}))
	defer srv.Close()

	sleep := &recordingSleep{}
	p := newProcessor(offers.NewClient(offerConfig{url: srv.URL}), sleep)

	res := p.ProcessLead(context.Background(), LeadInput{Text: completeLead})

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Attempts != 3 || calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got result=%d server=%d", res.Attempts, calls.Load())
	}
	if len(sleep.delays) != 2 || sleep.delays[0] != 2*time.Second || sleep.delays[1] != 4*time.Second {
		t.Fatalf("expected backoff 2s then 4s, got %v", sleep.delays)
	}
	if res.BookingID != "b-42" || res.BookingNumber != "NF-2042" {
		t.Fatalf("unexpected booking %+v", res)
	}
	if res.LeadID != "FF-100" || res.Source != string(parser.FormatFlyttfirma24) {
		t.Fatalf("unexpected lead id/source %q %q", res.LeadID, res.Source)
	}
}

func TestProcessLead_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Bad Request","details":"invalid move date"}`))
	}))
	defer srv.Close()

	sleep := &recordingSleep{}
	p := newProcessor(offers.NewClient(offerConfig{url: srv.URL}), sleep)

	res := p.ProcessLead(context.Background(), LeadInput{ID: "L-1", Text: completeLead})

	if res.Success {
		t.Fatal("expected failure")
	}
	if calls.Load() != 1 || res.Attempts != 1 {
		t.Fatalf("expected a single call, got server=%d attempts=%d", calls.Load(), res.Attempts)
	}
	if len(sleep.delays) != 0 {
		t.Fatalf("expected no backoff, got %v", sleep.delays)
	}
	if res.ErrorKind != KindClientRejection || res.Error != "invalid move date" {
		t.Fatalf("unexpected error %q (%s)", res.Error, res.ErrorKind)
	}
	if res.LeadID != "L-1" {
		t.Fatalf("explicit id should win, got %q", res.LeadID)
	}
}

func TestProcessLead_ExhaustedRetries(t *testing.T) {
	transient := &offers.TransientError{StatusCode: 503, Message: "service unavailable"}
	oc := &scriptedOffers{errs: []error{transient, transient, transient}}
	sleep := &recordingSleep{}

	res := newProcessor(oc, sleep).ProcessLead(context.Background(), LeadInput{Text: completeLead})

	if res.Success || res.ErrorKind != KindTransient || res.Error != "service unavailable" {
		t.Fatalf("unexpected result %+v", res)
	}
	if oc.calls != 3 || res.Attempts != 3 {
		t.Fatalf("expected 3 calls, got %d", oc.calls)
	}
}

func TestProcessLead_IncompleteLeadSkipsNetwork(t *testing.T) {
	cases := map[string]struct {
		text string
		want string
	}{
		"no name":    {"Namn:\nTelefon: 0701234567\n", msgMissingName},
		"no contact": {"Namn: Erik Larsson\nFlyttdatum: 2025-09-01\n", msgMissingContact},
		"empty":      {"", msgMissingName},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			oc := &scriptedOffers{}
			res := newProcessor(oc, &recordingSleep{}).ProcessLead(context.Background(), LeadInput{Text: c.text})
			if res.Success || res.ErrorKind != KindIncompleteLead || res.Error != c.want {
				t.Fatalf("unexpected result %+v", res)
			}
			if oc.calls != 0 {
				t.Fatalf("expected no offer call, got %d", oc.calls)
			}
		})
	}
}

func TestProcessLead_SubmissionCarriesLead(t *testing.T) {
	oc := &scriptedOffers{}
	p := newProcessor(oc, &recordingSleep{}, WithPricer(engine.New(engine.DefaultTable())))

	res := p.ProcessLead(context.Background(), LeadInput{Text: completeLead, Source: "inbox"})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if len(oc.subs) != 1 {
		t.Fatalf("expected one submission, got %d", len(oc.subs))
	}
	sub := oc.subs[0]
	if sub.LeadID != "FF-100" || sub.LeadText != completeLead || sub.Confidence != string(ConfidenceHigh) {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if sub.PhoneE164 != "+46701234567" {
		t.Fatalf("expected E.164 phone, got %q", sub.PhoneE164)
	}
	if sub.Lead == nil || sub.Lead.CustomerName != "Anna Svensson" || sub.Lead.EstimatedVolume != 18 {
		t.Fatalf("unexpected lead payload %+v", sub.Lead)
	}
	if res.EstimatedPrice < 1600 || sub.EstimatedPrice != res.EstimatedPrice {
		t.Fatalf("expected a price estimate, got %d/%d", res.EstimatedPrice, sub.EstimatedPrice)
	}
	if res.Source != "inbox" {
		t.Fatalf("explicit source should win, got %q", res.Source)
	}
}

func TestAssessConfidence(t *testing.T) {
	sqm := 55.0
	full := parser.ParsedLead{
		SquareMeters: &sqm,
		From:         parser.Endpoint{Address: "A 1"},
		To:           parser.Endpoint{Address: "B 2"},
	}
	if got := AssessConfidence(full); got != ConfidenceHigh {
		t.Fatalf("expected high, got %s", got)
	}

	noSize := full
	noSize.SquareMeters = nil
	if got := AssessConfidence(noSize); got != ConfidenceMedium {
		t.Fatalf("expected medium, got %s", got)
	}

	noTo := full
	noTo.To = parser.Endpoint{}
	if got := AssessConfidence(noTo); got != ConfidenceLow {
		t.Fatalf("expected low, got %s", got)
	}

	noFromNoSize := noSize
	noFromNoSize.From = parser.Endpoint{}
	if got := AssessConfidence(noFromNoSize); got != ConfidenceLow {
		t.Fatalf("expected low, got %s", got)
	}
}

func TestCanAutoProcess(t *testing.T) {
	p := newProcessor(&scriptedOffers{}, &recordingSleep{})

	if p.CanAutoProcess("Telefon: 0701234567\nFlyttar till: Storgatan 1, 111 22 Stockholm\n") {
		t.Fatal("expected false without a name")
	}
	if p.CanAutoProcess("Lead ID: 9\nNamn: Anna Svensson\nFlyttar till:\nAdress: Storgatan 1\n") {
		t.Fatal("expected false without phone or email")
	}
	if !p.CanAutoProcess("Namn: Anna Svensson\nTelefon: 0701234567\nFlyttar till: Storgatan 1, 111 22 Stockholm\n") {
		t.Fatal("expected true with name, phone and an address")
	}
}

func TestCanAutoProcess_RequiresAddress(t *testing.T) {
	p := newProcessor(&scriptedOffers{}, &recordingSleep{})
	text := "Namn: Erik Larsson\nTelefon: 0701234567\nFlyttdatum: 2025-09-01"

	parsed := p.Parser().Parse(text)
	if parsed.CustomerName != "Erik Larsson" || parsed.Phone == "" {
		t.Fatalf("expected name and phone to parse, got %+v", parsed)
	}
	if p.CanAutoProcess(text) {
		t.Fatal("expected false without any address")
	}
}

func TestProcessBatch_TotalFailure(t *testing.T) {
	down := &offers.TransientError{Message: "dial tcp: connection refused"}
	oc := &scriptedOffers{batchErr: down}
	sleep := &recordingSleep{}

	res := newProcessor(oc, sleep).ProcessBatch(context.Background(), []string{"a", "b", "c"})

	if res.Total != 3 || res.Failed != 3 || res.Successful != 0 || len(res.Results) != 3 {
		t.Fatalf("unexpected summary %+v", res)
	}
	for _, r := range res.Results {
		if r.Success || r.Error != "dial tcp: connection refused" || r.ErrorKind != KindTransient {
			t.Fatalf("unexpected result %+v", r)
		}
	}
	if oc.batchCalls != 3 {
		t.Fatalf("expected batch call to be retried 3 times, got %d", oc.batchCalls)
	}
}

func TestProcessBatch_MixedResults(t *testing.T) {
	oc := &scriptedOffers{batch: []offers.BatchItem{
		{LeadID: "a", Success: true, Booking: &offers.Booking{ID: "1", BookingNumber: "NF-1"}},
		{LeadID: "b", Success: false, Error: "no address"},
	}}

	res := newProcessor(oc, &recordingSleep{}).ProcessBatch(context.Background(), []string{"a", "b", "c"})

	if res.Total != 3 || res.Successful != 1 || res.Failed != 2 {
		t.Fatalf("unexpected summary %+v", res)
	}
	if res.Results[0].BookingNumber != "NF-1" || !res.Results[0].Success {
		t.Fatalf("unexpected first result %+v", res.Results[0])
	}
	if res.Results[1].Error != "no address" {
		t.Fatalf("unexpected second result %+v", res.Results[1])
	}
	if res.Results[2].Error != msgMissingInBatch {
		t.Fatalf("missing lead should fail, got %+v", res.Results[2])
	}
	if oc.batchCalls != 1 {
		t.Fatalf("expected a single bulk call, got %d", oc.batchCalls)
	}
}

func TestProcessBatch_Empty(t *testing.T) {
	oc := &scriptedOffers{}
	res := newProcessor(oc, &recordingSleep{}).ProcessBatch(context.Background(), nil)
	if res.Total != 0 || len(res.Results) != 0 || oc.batchCalls != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestProcessLead_RecordsAndPublishes(t *testing.T) {
	store := &memoryLog{err: errors.New("db down")}
	bus := platformevents.NewInMemoryBus(logger.Nop())

	var processed, failed atomic.Int32
	bus.Subscribe(events.LeadProcessed{}.EventName(), events.HandlerFunc(func(context.Context, events.Event) error {
		processed.Add(1)
		return nil
	}))
	bus.Subscribe(events.LeadProcessingFailed{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		if ev, ok := e.(events.LeadProcessingFailed); ok && ev.ErrorKind == KindIncompleteLead {
			failed.Add(1)
		}
		return nil
	}))

	p := newProcessor(&scriptedOffers{}, &recordingSleep{}, WithProcessingLog(store), WithEventBus(bus))
	if res := p.ProcessLead(context.Background(), LeadInput{Text: completeLead}); !res.Success {
		t.Fatalf("a failing log store must not fail the lead: %+v", res)
	}
	p.ProcessLead(context.Background(), LeadInput{Text: "hej"})
	bus.Wait()

	if processed.Load() != 1 || failed.Load() != 1 {
		t.Fatalf("expected one event of each kind, got processed=%d failed=%d", processed.Load(), failed.Load())
	}
	if len(store.entries) != 2 || !store.entries[0].Success || store.entries[1].ErrorKind != KindIncompleteLead {
		t.Fatalf("unexpected log entries %+v", store.entries)
	}
	if store.entries[0].LeadFormat != string(parser.FormatFlyttfirma24) || store.entries[0].BookingNumber != "NF-1001" {
		t.Fatalf("unexpected first entry %+v", store.entries[0])
	}
}
