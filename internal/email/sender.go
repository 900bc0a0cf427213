package email

import (
	"context"

	"nordflytt_backend/platform/config"
)

// LeadReview is a lead that arrived but could not be processed unattended.
type LeadReview struct {
	Subject  string
	Source   string
	LeadText string
}

// LeadFailure is a lead whose offer could not be created.
type LeadFailure struct {
	LeadID       string
	Source       string
	CustomerName string
	ErrorKind    string
	Reason       string
	Attempts     int
}

// Sender delivers staff notifications.
type Sender interface {
	SendLeadReviewEmail(ctx context.Context, toEmail string, data LeadReview) error
	SendLeadFailedEmail(ctx context.Context, toEmail string, data LeadFailure) error
}

type NoopSender struct{}

func (NoopSender) SendLeadReviewEmail(ctx context.Context, toEmail string, data LeadReview) error {
	return nil
}

func (NoopSender) SendLeadFailedEmail(ctx context.Context, toEmail string, data LeadFailure) error {
	return nil
}

// NewSender returns an SMTP sender, or NoopSender when SMTP is not configured.
func NewSender(cfg config.NotificationConfig) Sender {
	if !cfg.IsNotificationEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(), cfg.GetSMTPFrom(), fromName)
}
