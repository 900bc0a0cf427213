// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"nordflytt_backend/platform/events"
	"nordflytt_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent = events.NewBaseEvent
	SubscribeTo  = events.SubscribeTo
)

// NewInMemoryBus creates the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadReceived is published when a lead text arrives from the inbox poller.
type LeadReceived struct {
	BaseEvent
	LeadID    string `json:"leadId,omitempty"`
	Source    string `json:"source"`
	Subject   string `json:"subject,omitempty"`
	Text      string `json:"text"`
	AutoReady bool   `json:"autoReady"`
}

func (e LeadReceived) EventName() string { return "leads.lead.received" }

// LeadProcessed is published when a lead became a booking.
type LeadProcessed struct {
	BaseEvent
	LeadID         string `json:"leadId,omitempty"`
	Source         string `json:"source"`
	BookingID      string `json:"bookingId"`
	BookingNumber  string `json:"bookingNumber"`
	Confidence     string `json:"confidence"`
	Attempts       int    `json:"attempts"`
	EstimatedPrice int64  `json:"estimatedPrice"`
}

func (e LeadProcessed) EventName() string { return "leads.lead.processed" }

// LeadProcessingFailed is published when a lead could not be turned into a
// booking and needs manual review.
type LeadProcessingFailed struct {
	BaseEvent
	LeadID       string `json:"leadId,omitempty"`
	Source       string `json:"source"`
	CustomerName string `json:"customerName,omitempty"`
	ErrorKind    string `json:"errorKind"`
	Reason       string `json:"reason"`
	Attempts     int    `json:"attempts"`
}

func (e LeadProcessingFailed) EventName() string { return "leads.lead.processing_failed" }
