// Package notification sends staff notifications in response to lead events.
// Lead modules publish events and never talk to the mail server directly.
package notification

import (
	"context"
	"fmt"

	"nordflytt_backend/internal/email"
	"nordflytt_backend/internal/events"
	"nordflytt_backend/internal/leads/service"
	"nordflytt_backend/platform/logger"
	"nordflytt_backend/platform/sanitize"
)

// Module handles notification-related event subscriptions.
type Module struct {
	sender   email.Sender
	opsEmail string
	log      *logger.Logger
}

// New creates a notification module. Without opsEmail every handler is a no-op.
func New(sender email.Sender, opsEmail string, log *logger.Logger) *Module {
	return &Module{sender: sender, opsEmail: opsEmail, log: log}
}

// RegisterHandlers subscribes to the lead events on the bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	events.SubscribeTo(bus, events.LeadReceived{}, m.handleLeadReceived)
	events.SubscribeTo(bus, events.LeadProcessingFailed{}, m.handleLeadProcessingFailed)
}

func (m *Module) handleLeadReceived(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadReceived)
	if !ok || e.AutoReady || m.opsEmail == "" {
		return nil
	}

	err := m.sender.SendLeadReviewEmail(ctx, m.opsEmail, email.LeadReview{
		Subject:  e.Subject,
		Source:   e.Source,
		LeadText: e.Text,
	})
	if err != nil {
		return fmt.Errorf("send lead review email: %w", err)
	}
	m.log.Info("lead review email sent", "subject", e.Subject)
	return nil
}

// Duplicates were already handled once and are not reported again.
func (m *Module) handleLeadProcessingFailed(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadProcessingFailed)
	if !ok || e.ErrorKind == service.KindDuplicate || m.opsEmail == "" {
		return nil
	}

	err := m.sender.SendLeadFailedEmail(ctx, m.opsEmail, email.LeadFailure{
		LeadID:       e.LeadID,
		Source:       e.Source,
		CustomerName: e.CustomerName,
		ErrorKind:    e.ErrorKind,
		Reason:       sanitize.Text(e.Reason),
		Attempts:     e.Attempts,
	})
	if err != nil {
		return fmt.Errorf("send lead failed email: %w", err)
	}
	m.log.WithLeadID(e.LeadID).Info("lead failure email sent", "kind", e.ErrorKind)
	return nil
}
