package scheduler

import (
	"context"
	"time"

	"nordflytt_backend/internal/events"
	"nordflytt_backend/internal/inbox"
	"nordflytt_backend/platform/logger"
)

const defaultInboxPollInterval = 2 * time.Minute

// MessageSource yields lead emails until they are acknowledged.
type MessageSource interface {
	Poll(ctx context.Context) ([]inbox.Message, error)
	Ack(ctx context.Context, uid int) error
}

// AutoProcessCheck reports whether a lead text can be processed unattended.
type AutoProcessCheck func(text string) bool

// InboxDispatcher polls the lead mailbox. Leads that can be processed
// unattended are queued; the rest are only announced for manual review.
// A message is acknowledged once it is queued or announced, so a failed
// enqueue is retried on the next poll.
type InboxDispatcher struct {
	source   MessageSource
	enqueuer LeadEnqueuer
	bus      events.Bus
	canAuto  AutoProcessCheck
	log      *logger.Logger
	interval time.Duration
}

func NewInboxDispatcher(source MessageSource, enqueuer LeadEnqueuer, bus events.Bus, canAuto AutoProcessCheck, log *logger.Logger, interval time.Duration) *InboxDispatcher {
	if interval <= 0 {
		interval = defaultInboxPollInterval
	}
	return &InboxDispatcher{
		source:   source,
		enqueuer: enqueuer,
		bus:      bus,
		canAuto:  canAuto,
		log:      log,
		interval: interval,
	}
}

func (d *InboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.source == nil || d.enqueuer == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.dispatch(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// dispatch returns how many leads were queued.
func (d *InboxDispatcher) dispatch(ctx context.Context) int {
	msgs, err := d.source.Poll(ctx)
	if err != nil {
		d.log.Warn("inbox poll failed", "error", err)
		return 0
	}

	queued := 0
	for _, msg := range msgs {
		autoReady := d.canAuto == nil || d.canAuto(msg.Text)

		if !autoReady {
			d.announce(ctx, msg, false)
			d.log.Info("inbox lead needs manual review", "uid", msg.UID, "subject", msg.Subject)
			d.ack(ctx, msg.UID)
			continue
		}

		if _, err := d.enqueuer.EnqueueLead(ctx, ProcessLeadPayload{
			Source: inbox.SourceInbox,
			Text:   msg.Text,
		}); err != nil {
			d.log.Error("inbox lead enqueue failed", "uid", msg.UID, "subject", msg.Subject, "error", err)
			continue
		}
		d.announce(ctx, msg, true)
		d.ack(ctx, msg.UID)
		queued++
	}

	if queued > 0 {
		d.log.Info("inbox leads queued", "queued", queued, "received", len(msgs))
	}
	return queued
}

func (d *InboxDispatcher) ack(ctx context.Context, uid int) {
	if err := d.source.Ack(ctx, uid); err != nil {
		d.log.Warn("inbox mark seen failed", "uid", uid, "error", err)
	}
}

func (d *InboxDispatcher) announce(ctx context.Context, msg inbox.Message, autoReady bool) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(ctx, events.LeadReceived{
		BaseEvent: events.NewBaseEvent(),
		Source:    inbox.SourceInbox,
		Subject:   msg.Subject,
		Text:      msg.Text,
		AutoReady: autoReady,
	})
}
