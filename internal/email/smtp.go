package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg, err := s.message(toEmail, subject, htmlContent)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) message(toEmail, subject, htmlContent string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)
	return msg, nil
}

func (s *SMTPSender) SendLeadReviewEmail(ctx context.Context, toEmail string, data LeadReview) error {
	content, err := renderLeadReview(data)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadReviewFmt, data.Subject), content)
}

func (s *SMTPSender) SendLeadFailedEmail(ctx context.Context, toEmail string, data LeadFailure) error {
	content, err := renderLeadFailed(data)
	if err != nil {
		return err
	}
	id := data.LeadID
	if id == "" {
		id = subjectFallbackLeadID
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadFailedFmt, id), content)
}

func renderLeadReview(data LeadReview) (string, error) {
	data.LeadText = excerpt(data.LeadText)
	return renderEmailTemplate("lead_review.html", leadReviewEmailData{
		baseEmailData: baseEmailData{
			Title:   "Lead att granska",
			Heading: "Lead att granska",
		},
		LeadReview: data,
	})
}

func renderLeadFailed(data LeadFailure) (string, error) {
	return renderEmailTemplate("lead_failed.html", leadFailedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Lead kunde inte bokas",
			Heading: "Lead kunde inte bokas",
		},
		LeadFailure: data,
	})
}
