package inbox

import (
	"context"
	"strings"
	"sync"

	"nordflytt_backend/platform/logger"
)

// SourceInbox is the lead source recorded for mailbox leads.
const SourceInbox = "inbox"

// Poller hands out unseen messages until they are acknowledged. A message
// stays unseen on the server, and is returned again, until Ack succeeds.
type Poller struct {
	mailbox Mailbox
	log     *logger.Logger

	mu sync.Mutex
	// acked holds UIDs handled by this process that the server may still
	// report as unseen, e.g. when MarkSeen failed.
	acked map[int]bool
}

// NewPoller creates a Poller over the mailbox's unseen messages.
func NewPoller(mb Mailbox, log *logger.Logger) *Poller {
	return &Poller{mailbox: mb, log: log, acked: make(map[int]bool)}
}

// Poll returns unacknowledged messages with a non-empty body, oldest first.
// Empty messages are acknowledged right away.
func (p *Poller) Poll(ctx context.Context) ([]Message, error) {
	msgs, err := p.mailbox.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	unseen := make(map[int]bool, len(msgs))
	for _, m := range msgs {
		unseen[m.UID] = true
	}
	// Anything the server no longer reports as unseen is settled.
	for uid := range p.acked {
		if !unseen[uid] {
			delete(p.acked, uid)
		}
	}
	var empty []Message
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if p.acked[m.UID] {
			continue
		}
		if strings.TrimSpace(m.Text) == "" {
			empty = append(empty, m)
			continue
		}
		out = append(out, m)
	}
	p.mu.Unlock()

	for _, m := range empty {
		p.log.Warn("inbox message without body skipped", "uid", m.UID, "subject", m.Subject)
		if err := p.Ack(ctx, m.UID); err != nil {
			p.log.Warn("inbox mark seen failed", "uid", m.UID, "error", err)
		}
	}
	return out, nil
}

// Ack marks uid as handled. The UID is skipped for the rest of the process
// even when the server call fails; the error is returned for logging.
func (p *Poller) Ack(ctx context.Context, uid int) error {
	p.mu.Lock()
	p.acked[uid] = true
	p.mu.Unlock()
	return p.mailbox.MarkSeen(ctx, uid)
}
