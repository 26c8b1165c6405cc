package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imamik/siteforge/internal/errdefs"
)

func TestUntil_ImmediateSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Waiter{Interval: time.Hour, Timeout: time.Minute, Resource: "thing"}.Until(context.Background(),
		func(context.Context) (bool, error) {
			calls++
			return true, nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 check, got %d", calls)
	}
}

func TestUntil_PollsUntilDone(t *testing.T) {
	t.Parallel()

	calls, polls := 0, 0
	w := Waiter{
		Interval: time.Millisecond,
		Timeout:  5 * time.Second,
		Resource: "certificate",
		OnPoll: func(resource string) {
			if resource != "certificate" {
				t.Errorf("unexpected resource %q", resource)
			}
			polls++
		},
	}
	err := w.Until(context.Background(), func(context.Context) (bool, error) {
		calls++
		return calls == 4, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 4 || polls != 4 {
		t.Errorf("expected 4 checks and polls, got %d and %d", calls, polls)
	}
}

func TestUntil_Timeout(t *testing.T) {
	t.Parallel()

	err := Waiter{Interval: time.Millisecond, Timeout: 20 * time.Millisecond, Resource: "distribution"}.Until(
		context.Background(), func(context.Context) (bool, error) { return false, nil })
	if !errdefs.IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if got := err.Error(); got != "wait: timed out after 20ms waiting for distribution" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestUntil_CheckErrorStopsWait(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	err := Waiter{Interval: time.Millisecond, Timeout: time.Second}.Until(context.Background(),
		func(context.Context) (bool, error) {
			calls++
			return false, boom
		})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 check, got %d", calls)
	}
}

func TestUntil_ParentCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Waiter{Interval: time.Millisecond, Timeout: time.Minute}.Until(ctx,
		func(context.Context) (bool, error) {
			calls++
			if calls == 2 {
				cancel()
			}
			return false, nil
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errdefs.IsTimeout(err) {
		t.Error("cancellation must not be reported as a timeout")
	}
}
