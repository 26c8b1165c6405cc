// Package poll runs synchronous wait loops against eventually-consistent APIs.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/imamik/siteforge/internal/errdefs"
)

// Waiter describes one wait loop.
type Waiter struct {
	// Interval between checks. The first check runs immediately.
	Interval time.Duration
	// Timeout bounds the whole wait. Zero means only ctx bounds it.
	Timeout time.Duration
	// Resource names what is being waited for in errors and hooks.
	Resource string
	// OnPoll is called after every check.
	OnPoll func(resource string)
}

// CheckFunc reports whether the wait is over. A non-nil error ends the wait.
type CheckFunc func(ctx context.Context) (done bool, err error)

// Until runs check until it reports done, fails, or the timeout elapses.
// Elapsing the timeout yields an errdefs timeout error; cancelling ctx yields
// ctx.Err().
func (w Waiter) Until(ctx context.Context, check CheckFunc) error {
	waitCtx := ctx
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(max(w.Interval, time.Millisecond))
	defer ticker.Stop()

	for {
		done, err := check(waitCtx)
		if w.OnPoll != nil {
			w.OnPoll(w.Resource)
		}
		if err != nil {
			if w.expired(ctx, waitCtx) && errors.Is(err, context.DeadlineExceeded) {
				return w.timeoutErr()
			}
			return err
		}
		if done {
			return nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return w.timeoutErr()
		case <-ticker.C:
		}
	}
}

func (w Waiter) expired(parent, waitCtx context.Context) bool {
	return parent.Err() == nil && waitCtx.Err() != nil
}

func (w Waiter) timeoutErr() error {
	return errdefs.Newf(errdefs.KindTimeout, "wait", "timed out after %s waiting for %s", w.Timeout, w.Resource)
}
