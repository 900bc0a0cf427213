package offers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeConfig struct {
	url, batchURL, token string
	timeout              time.Duration
}

func (f fakeConfig) GetOfferAPIURL() string         { return f.url }
func (f fakeConfig) GetOfferBatchURL() string       { return f.batchURL }
func (f fakeConfig) GetOfferAPIToken() string       { return f.token }
func (f fakeConfig) GetOfferTimeout() time.Duration { return f.timeout }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(fakeConfig{url: srv.URL + "/create", batchURL: srv.URL + "/create/bulk", token: "secret", timeout: time.Second})
}

func TestCreate_Success(t *testing.T) {
	var got Submission
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"booking":{"id":"b-1","bookingNumber":"NF-1001"}}`))
	})

	b, err := c.Create(context.Background(), Submission{LeadID: "L1", LeadText: "Namn: A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != "b-1" || b.BookingNumber != "NF-1001" {
		t.Fatalf("unexpected booking %+v", b)
	}
	if got.LeadID != "L1" || got.LeadText != "Namn: A" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestCreate_ClientRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Bad Request","details":"moveDate is in the past"}`))
	})

	_, err := c.Create(context.Background(), Submission{LeadText: "x"})
	var rej *ClientRejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected ClientRejectionError, got %v", err)
	}
	if rej.StatusCode != 400 || rej.Message != "moveDate is in the past" {
		t.Fatalf("unexpected rejection %+v", rej)
	}
	if IsRetryable(err) {
		t.Fatal("4xx must not be retryable")
	}
	if Message(err) != "moveDate is in the past" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestCreate_ServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream down"}`))
	})

	_, err := c.Create(context.Background(), Submission{LeadText: "x"})
	if !IsRetryable(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if Message(err) != "upstream down" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestCreate_TimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(fakeConfig{url: srv.URL, timeout: 20 * time.Millisecond})
	_, err := c.Create(context.Background(), Submission{LeadText: "x"})
	if !IsRetryable(err) {
		t.Fatalf("expected timeout to be transient, got %v", err)
	}
}

func TestCreate_UnreachableIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(fakeConfig{url: url, timeout: time.Second})
	_, err := c.Create(context.Background(), Submission{LeadText: "x"})
	var te *TransientError
	if !errors.As(err, &te) || te.StatusCode != 0 {
		t.Fatalf("expected network transient error, got %v", err)
	}
}

func TestCreate_MissingBookingIsNotRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Create(context.Background(), Submission{LeadText: "x"})
	if err == nil || IsRetryable(err) {
		t.Fatalf("expected terminal error, got %v", err)
	}
}

func TestCreateBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create/bulk" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req batchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.AutoProcess || strings.Join(req.LeadIDs, ",") != "a,b" {
			t.Errorf("unexpected batch request %+v", req)
		}
		_, _ = w.Write([]byte(`{"results":[{"leadId":"a","success":true,"booking":{"id":"1","bookingNumber":"NF-1"}},{"leadId":"b","success":false,"error":"no address"}]}`))
	})

	items, err := c.CreateBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || !items[0].Success || items[0].Booking.BookingNumber != "NF-1" || items[1].Error != "no address" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		body, want string
	}{
		{`{"details":"bad phone","error":"Bad Request"}`, "bad phone"},
		{`{"error":"Bad Request"}`, "Bad Request"},
		{`{"details":{"field":"email"}}`, `{"field":"email"}`},
		{`plain text failure`, "plain text failure"},
		{`<html><body><h1>502 Bad Gateway</h1></body></html>`, "502 Bad Gateway"},
		{``, "400 Bad Request"},
		{`{}`, "400 Bad Request"},
	}
	for _, c := range cases {
		if got := errorMessage([]byte(c.body), "400 Bad Request"); got != c.want {
			t.Fatalf("errorMessage(%q) = %q, want %q", c.body, got, c.want)
		}
	}
}
