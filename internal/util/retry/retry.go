package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/imamik/siteforge/internal/errdefs"
)

// Class is the retry decision for an error.
type Class int

const (
	// Terminal errors are returned immediately.
	Terminal Class = iota
	// Transient errors are retried until the attempt ceiling.
	Transient
)

// Classifier decides whether an error is transient. The default classifier
// follows the errdefs taxonomy: network, server and rate-limit errors are
// transient, everything else propagates on the first occurrence.
type Classifier func(error) Class

// Policy holds retry configuration. The zero value performs a single attempt.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Option is a functional option for retry configuration.
type Option func(*Policy)

// ReadPolicy is used for idempotent reads such as availability checks and
// status polls.
func ReadPolicy(opts ...Option) Policy {
	return newPolicy(3, opts...)
}

// MutationPolicy is used for calls with side effects such as purchases and
// resource creation. It uses a smaller ceiling to avoid duplicate side effects.
func MutationPolicy(opts ...Option) Policy {
	return newPolicy(2, opts...)
}

func newPolicy(attempts int, opts ...Option) Policy {
	p := Policy{
		MaxAttempts:  attempts,
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// With returns a copy of the policy with opts applied.
func (p Policy) With(opts ...Option) Policy {
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Execute runs operation under the policy.
func Execute(ctx context.Context, p Policy, operation func(context.Context) error, classify Classifier) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	}, classify)
	return err
}

// Do runs operation under the policy and returns its value.
//
// Terminal errors are returned as-is. When the attempt ceiling is reached the
// last error is wrapped with the attempt count. A nil classifier means
// DefaultClassifier.
func Do[T any](ctx context.Context, p Policy, operation func(context.Context) (T, error), classify Classifier) (T, error) {
	if classify == nil {
		classify = DefaultClassifier
	}
	attempts := max(p.MaxAttempts, 1)

	var zero T
	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := operation(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if classify(err) == Terminal {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		wait := p.jittered(delay)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("context cancelled after %d attempts: %w", attempt, errors.Join(ctx.Err(), lastErr))
		case <-timer.C:
		}
		delay = p.next(delay)
	}

	return zero, fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

func (p Policy) next(d time.Duration) time.Duration {
	m := p.Multiplier
	if m < 1 {
		m = 1
	}
	d = time.Duration(float64(d) * m)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// jittered keeps at least half of the delay and randomizes the rest.
func (p Policy) jittered(d time.Duration) time.Duration {
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if !p.Jitter || d <= 1 {
		return d
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(d-half)+1))
}

// DefaultClassifier retries errdefs transient kinds and never retries Fatal errors.
func DefaultClassifier(err error) Class {
	if IsFatal(err) {
		return Terminal
	}
	if errdefs.IsTransient(err) {
		return Transient
	}
	return Terminal
}

// RetryAll retries every error except those marked with Fatal.
func RetryAll(err error) Class {
	if IsFatal(err) {
		return Terminal
	}
	return Transient
}

// WithMaxAttempts sets the attempt ceiling, including the first call.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		p.MaxAttempts = n
	}
}

// WithInitialDelay sets the initial delay between retries.
func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.InitialDelay = d
	}
}

// WithMaxDelay sets the maximum delay between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(p *Policy) {
		p.Multiplier = m
	}
}

// WithJitter toggles randomized backoff.
func WithJitter(enabled bool) Option {
	return func(p *Policy) {
		p.Jitter = enabled
	}
}

// WithOnRetry installs a hook called before each backoff sleep.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(p *Policy) {
		p.OnRetry = fn
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
