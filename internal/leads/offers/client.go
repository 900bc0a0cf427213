// Package offers talks to the booking system's "create offer from lead"
// endpoints. Each call is a single attempt; retrying is the caller's job.
package offers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nordflytt_backend/internal/leads/parser"
	"nordflytt_backend/platform/config"
	"nordflytt_backend/platform/sanitize"
)

const maxErrorBody = 64 << 10

// Submission is the body of a single offer request.
type Submission struct {
	LeadID         string             `json:"leadId,omitempty"`
	LeadText       string             `json:"leadText"`
	Lead           *parser.FilledLead `json:"lead,omitempty"`
	Confidence     string             `json:"confidence,omitempty"`
	PhoneE164      string             `json:"phoneE164,omitempty"`
	EstimatedPrice int64              `json:"estimatedPrice,omitempty"`
}

// Booking identifies the booking created for a lead.
type Booking struct {
	ID            string `json:"id"`
	BookingNumber string `json:"bookingNumber"`
}

// BatchItem is the outcome for one lead of a bulk request.
type BatchItem struct {
	LeadID  string   `json:"leadId"`
	Success bool     `json:"success"`
	Booking *Booking `json:"booking,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type createResponse struct {
	Booking *Booking `json:"booking"`
}

type batchRequest struct {
	LeadIDs     []string `json:"leadIds"`
	AutoProcess bool     `json:"autoProcess"`
}

type batchResponse struct {
	Results []BatchItem `json:"results"`
}

type errorResponse struct {
	Details json.RawMessage `json:"details"`
	Error   json.RawMessage `json:"error"`
}

// ClientRejectionError is a 4xx answer. Sending the same lead again will not
// help.
type ClientRejectionError struct {
	StatusCode int
	Message    string
}

func (e *ClientRejectionError) Error() string {
	return fmt.Sprintf("offer rejected (%d): %s", e.StatusCode, e.Message)
}

// TransientError is a network failure, timeout or 5xx answer.
type TransientError struct {
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode == 0 {
		return "offer service unreachable: " + e.Message
	}
	return fmt.Sprintf("offer service error (%d): %s", e.StatusCode, e.Message)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// Message returns the most useful human readable text for err.
func Message(err error) string {
	var rej *ClientRejectionError
	if errors.As(err, &rej) {
		return rej.Message
	}
	var t *TransientError
	if errors.As(err, &t) {
		return t.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Client calls the offer endpoints.
type Client struct {
	url      string
	batchURL string
	token    string
	timeout  time.Duration
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Client from configuration.
func NewClient(cfg config.OfferAPIConfig, opts ...Option) *Client {
	timeout := cfg.GetOfferTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		url:      cfg.GetOfferAPIURL(),
		batchURL: cfg.GetOfferBatchURL(),
		token:    cfg.GetOfferAPIToken(),
		timeout:  timeout,
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create submits one lead. The attempt is bounded by the configured timeout.
func (c *Client) Create(ctx context.Context, sub Submission) (Booking, error) {
	var out createResponse
	if err := c.post(ctx, c.url, sub, &out); err != nil {
		return Booking{}, err
	}
	if out.Booking == nil || out.Booking.ID == "" {
		return Booking{}, errors.New("offer response missing booking")
	}
	return *out.Booking, nil
}

// CreateBatch asks the bulk endpoint to process leadIDs server side.
func (c *Client) CreateBatch(ctx context.Context, leadIDs []string) ([]BatchItem, error) {
	if c.batchURL == "" {
		return nil, errors.New("offer batch url not configured")
	}
	var out batchResponse
	if err := c.post(ctx, c.batchURL, batchRequest{LeadIDs: leadIDs, AutoProcess: true}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")
	if c.token != "" {
		req.Header.Set("authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Message: err.Error(), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode offer response: %w", err)
		}
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := errorMessage(data, resp.Status)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientRejectionError{StatusCode: resp.StatusCode, Message: msg}
	}
	return &TransientError{StatusCode: resp.StatusCode, Message: msg}
}

// errorMessage prefers "details" over "error" and falls back to the body
// stripped of markup, or the status line.
func errorMessage(body []byte, status string) string {
	var er errorResponse
	if json.Unmarshal(body, &er) == nil {
		for _, raw := range []json.RawMessage{er.Details, er.Error} {
			if s := rawText(raw); s != "" {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" && !strings.HasPrefix(s, "{") {
		if text := sanitize.StripHTML(s); text != "" {
			return text
		}
	}
	return status
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}
