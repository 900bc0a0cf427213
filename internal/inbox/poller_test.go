package inbox

import (
	"context"
	"errors"
	"testing"

	"nordflytt_backend/platform/logger"
)

// fakeMailbox keeps server-side seen flags, so a new Poller over the same
// mailbox behaves like a restarted scheduler.
type fakeMailbox struct {
	messages []Message
	seen     map[int]bool
	err      error
	markErr  error
}

func (f *fakeMailbox) Fetch(context.Context) ([]Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Message
	for _, m := range f.messages {
		if !f.seen[m.UID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMailbox) MarkSeen(_ context.Context, uid int) error {
	if f.markErr != nil {
		return f.markErr
	}
	if f.seen == nil {
		f.seen = make(map[int]bool)
	}
	f.seen[uid] = true
	return nil
}

func uids(msgs []Message) []int {
	out := make([]int, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.UID)
	}
	return out
}

func TestPoll_ReturnsMessagesUntilAcked(t *testing.T) {
	mb := &fakeMailbox{messages: []Message{
		{UID: 3, Text: "Namn: Anna"},
		{UID: 7, Text: "Namn: Bo"},
	}}
	p := NewPoller(mb, logger.Nop())
	ctx := context.Background()

	first, err := p.Poll(ctx)
	if err != nil || len(first) != 2 {
		t.Fatalf("expected 2 messages, got %v, %v", uids(first), err)
	}

	// Nothing acknowledged yet, e.g. the enqueue failed: both come back.
	again, err := p.Poll(ctx)
	if err != nil || len(again) != 2 {
		t.Fatalf("expected unacked messages again, got %v, %v", uids(again), err)
	}

	if err := p.Ack(ctx, 3); err != nil {
		t.Fatalf("ack: %v", err)
	}
	rest, err := p.Poll(ctx)
	if err != nil || len(rest) != 1 || rest[0].UID != 7 {
		t.Fatalf("expected only uid 7, got %v, %v", uids(rest), err)
	}
}

func TestPoll_RestartDoesNotRedeliverAckedMessages(t *testing.T) {
	mb := &fakeMailbox{messages: []Message{
		{UID: 1, Text: "Namn: Anna"},
		{UID: 2, Text: "Namn: Bo"},
	}}
	ctx := context.Background()

	before := NewPoller(mb, logger.Nop())
	if _, err := before.Poll(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if err := before.Ack(ctx, 1); err != nil {
		t.Fatalf("ack: %v", err)
	}

	after := NewPoller(mb, logger.Nop())
	msgs, err := after.Poll(ctx)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(msgs) != 1 || msgs[0].UID != 2 {
		t.Fatalf("expected only the unhandled uid 2 after restart, got %v", uids(msgs))
	}
}

func TestPoll_EmptyBodiesAreMarkedSeen(t *testing.T) {
	mb := &fakeMailbox{messages: []Message{
		{UID: 1, Text: "  \n "},
		{UID: 2, Text: "Namn: Cecilia"},
	}}
	p := NewPoller(mb, logger.Nop())

	msgs, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(msgs) != 1 || msgs[0].UID != 2 {
		t.Fatalf("expected only uid 2, got %v", uids(msgs))
	}
	if !mb.seen[1] {
		t.Fatal("expected empty message to be marked seen")
	}
}

func TestAck_FailureStillSkipsMessageInProcess(t *testing.T) {
	mb := &fakeMailbox{messages: []Message{{UID: 4, Text: "x"}}, markErr: errors.New("connection reset")}
	p := NewPoller(mb, logger.Nop())
	ctx := context.Background()

	if _, err := p.Poll(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if err := p.Ack(ctx, 4); err == nil {
		t.Fatal("expected mark seen error")
	}
	msgs, err := p.Poll(ctx)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected acked uid to be skipped, got %v, %v", uids(msgs), err)
	}
}

func TestPoll_FetchError(t *testing.T) {
	mb := &fakeMailbox{err: errors.New("connection reset")}
	if _, err := NewPoller(mb, logger.Nop()).Poll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestBodyText_FallsBackToHTML(t *testing.T) {
	if got := bodyText("Namn: Anna", "<p>ignored</p>"); got != "Namn: Anna" {
		t.Fatalf("plain part should win, got %q", got)
	}
	got := bodyText("", "<table><tr><td>Namn:</td><td>Anna</td></tr></table>")
	if got == "" || got[:5] != "Namn:" {
		t.Fatalf("unexpected html conversion %q", got)
	}
}
