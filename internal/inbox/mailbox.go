// Package inbox reads lead emails from the shared IMAP mailbox.
package inbox

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"nordflytt_backend/platform/config"
	"nordflytt_backend/platform/sanitize"

	imap "github.com/BrianLeishman/go-imap"
)

// Message is one lead email reduced to what the parser needs.
type Message struct {
	UID      int
	Subject  string
	From     string
	Text     string
	Received time.Time
}

// Mailbox lists unseen messages and flags handled ones as seen. The seen
// flag is the only record of what was handled, so it survives restarts.
type Mailbox interface {
	Fetch(ctx context.Context) ([]Message, error)
	MarkSeen(ctx context.Context, uid int) error
}

// IMAPMailbox opens a fresh connection for every fetch.
type IMAPMailbox struct {
	host     string
	port     int
	username string
	password string
	folder   string
}

// NewIMAPMailbox creates a mailbox from config.
func NewIMAPMailbox(cfg config.InboxConfig) *IMAPMailbox {
	folder := cfg.GetIMAPFolder()
	if folder == "" {
		folder = "INBOX"
	}
	return &IMAPMailbox{
		host:     cfg.GetIMAPHost(),
		port:     cfg.GetIMAPPort(),
		username: cfg.GetIMAPUsername(),
		password: cfg.GetIMAPPassword(),
		folder:   folder,
	}
}

// Fetch returns unseen messages, oldest first. Bodies are fetched with
// BODY.PEEK, so fetching alone never flags a message as seen.
func (m *IMAPMailbox) Fetch(ctx context.Context) ([]Message, error) {
	conn, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	uids, err := conn.GetUIDs("UNSEEN")
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	emails, err := conn.GetEmails(uids...)
	if err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}

	out := make([]Message, 0, len(emails))
	for uid, e := range emails {
		out = append(out, Message{
			UID:      uid,
			Subject:  strings.TrimSpace(e.Subject),
			From:     firstAddress(e.From),
			Text:     bodyText(e.Text, e.HTML),
			Received: e.Received,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

// MarkSeen sets the \Seen flag on uid.
func (m *IMAPMailbox) MarkSeen(ctx context.Context, uid int) error {
	conn, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.MarkSeen(uid); err != nil {
		return fmt.Errorf("imap mark seen %d: %w", uid, err)
	}
	return nil
}

func (m *IMAPMailbox) open(ctx context.Context) (*imap.Dialer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := imap.New(m.username, m.password, m.host, m.port)
	if err != nil {
		return nil, fmt.Errorf("imap connect: %w", err)
	}
	if err := conn.SelectFolder(m.folder); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("imap select %s: %w", m.folder, err)
	}
	return conn, nil
}

func firstAddress(addrs imap.EmailAddresses) string {
	keys := make([]string, 0, len(addrs))
	for addr := range addrs {
		keys = append(keys, addr)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}

// bodyText prefers the plain part. Lead portals often send HTML only.
func bodyText(text, html string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	return sanitize.HTMLToText(html)
}
