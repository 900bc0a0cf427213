package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func recordingPolicy(delays *[]time.Duration) Policy {
	p := Default()
	p.Retryable = func(err error) bool { return errors.Is(err, errTransient) }
	p.Sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return p
}

func TestDoRetriesTransientWithExponentialBackoff(t *testing.T) {
	var delays []time.Duration
	calls := 0
	attempts, err := Do(context.Background(), recordingPolicy(&delays), func(context.Context, int) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Fatalf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
	if len(delays) != 2 || delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Fatalf("expected delays [2s 4s], got %v", delays)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	var delays []time.Duration
	calls := 0
	attempts, err := Do(context.Background(), recordingPolicy(&delays), func(context.Context, int) error {
		calls++
		return errFatal
	})
	if !errors.Is(err, errFatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if attempts != 1 || calls != 1 || len(delays) != 0 {
		t.Fatalf("expected a single attempt without sleep, got attempts=%d calls=%d delays=%v", attempts, calls, delays)
	}
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	var delays []time.Duration
	var seen []int
	p := recordingPolicy(&delays)
	p.OnRetry = func(attempt int, _ time.Duration, _ error) { seen = append(seen, attempt) }

	attempts, err := Do(context.Background(), p, func(context.Context, int) error { return errTransient })
	if !errors.Is(err, errTransient) || attempts != 3 {
		t.Fatalf("expected 3 failed attempts, got attempts=%d err=%v", attempts, err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("expected OnRetry for attempts 1 and 2, got %v", seen)
	}
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Default()
	attempts, err := Do(ctx, p, func(context.Context, int) error {
		calls++
		cancel()
		return errTransient
	})
	if err == nil || attempts != 1 || calls != 1 {
		t.Fatalf("expected to stop after the cancelling attempt, got attempts=%d calls=%d err=%v", attempts, calls, err)
	}
}

func TestBackoffCap(t *testing.T) {
	p := Policy{InitialBackoff: time.Second, Multiplier: 10, MaxBackoff: 5 * time.Second}
	if got := p.Backoff(3); got != 5*time.Second {
		t.Fatalf("expected capped 5s, got %v", got)
	}
	if got := p.Backoff(1); got != time.Second {
		t.Fatalf("expected 1s, got %v", got)
	}
}
