package notify

import (
	"context"
	"errors"
	"testing"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	p := RetryPolicy{Attempts: 3, Backoff: 0}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("want 2 calls, got %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{Attempts: 3, Backoff: 0}
	calls := 0
	sentinel := errors.New("timeout")
	err := p.Do(context.Background(), func() error {
		calls++
		return sentinel
	})
	if calls != 3 {
		t.Fatalf("want 3 attempts, got %d", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("want wrapped last error, got %v", err)
	}
}

func TestRetryAbortsOnPermanent(t *testing.T) {
	p := RetryPolicy{Attempts: 3, Backoff: 0}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return Permanent(errors.New("forbidden: bot was blocked by the user"))
	})
	if calls != 1 {
		t.Fatalf("permanent error must not be retried, got %d calls", calls)
	}
	if !IsPermanent(err) {
		t.Fatalf("permanence must survive the policy, got %v", err)
	}
}

func TestRetryRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := DefaultRetry
	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		return errors.New("flaky")
	})
	// First attempt runs, the backoff pause observes cancellation.
	if calls != 1 {
		t.Fatalf("want 1 call, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestIsPermanentOnWrappedChain(t *testing.T) {
	err := Permanent(errors.New("blocked"))
	wrapped := errors.Join(errors.New("send failed"), err)
	if !IsPermanent(wrapped) {
		t.Fatal("permanence must be detectable through wrapping")
	}
	if IsPermanent(errors.New("plain")) {
		t.Fatal("plain errors are not permanent")
	}
}
