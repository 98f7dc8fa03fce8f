// Package retry runs an operation a bounded number of times and reports the
// result as an explicit Outcome instead of a bare error.
//
// The policy never undoes partial effects of a failed attempt; callers whose
// operations touch hardware must tolerate being re-invoked after a failure.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Backoff returns the wait before the next attempt, given the 1-based index
// of the attempt that just failed.
type Backoff func(attempt int) time.Duration

// Constant waits d between every attempt.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Linear waits base * attempt.
func Linear(base time.Duration) Backoff {
	return func(attempt int) time.Duration { return base * time.Duration(attempt) }
}

// Exponential waits base * 2^(attempt-1), capped at max (0 = uncapped).
func Exponential(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if max > 0 && d >= max {
				return max
			}
		}
		if max > 0 && d > max {
			return max
		}
		return d
	}
}

// Policy fixes how an operation is retried at one call site.
type Policy struct {
	// MaxAttempts is the total number of invocations allowed (minimum 1).
	MaxAttempts int

	// Backoff is the wait between attempts. Nil means no wait.
	Backoff Backoff

	// Name labels log lines, e.g. "capture".
	Name string

	// Logger receives one warning per failed attempt that will be retried.
	Logger *slog.Logger
}

// Outcome is the result of a retried operation: either Ok with Value, or
// failed after Attempts invocations with Err (an *ExhaustedError).
type Outcome[T any] struct {
	Value    T
	Attempts int
	Err      error
}

// Ok reports whether the operation eventually succeeded.
func (o Outcome[T]) Ok() bool {
	return o.Err == nil
}

// ExhaustedError is the FailedAfterRetries case of an Outcome.
type ExhaustedError struct {
	Name      string
	Attempts  int
	Permanent bool
	Last      error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	label := "operation"
	if e.Name != "" {
		label = e.Name
	}
	if e.Permanent {
		return fmt.Sprintf("%s failed permanently after %d attempt(s): %v", label, e.Attempts, e.Last)
	}
	return fmt.Sprintf("%s failed after %d attempt(s): %v", label, e.Attempts, e.Last)
}

// Unwrap returns the last operation error.
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Permanent marks err as not worth retrying; Run stops after the current attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Run invokes op synchronously up to p.MaxAttempts times, returning on the
// first success. Cancelling ctx stops the wait between attempts; the error
// is then the context error.
func Run[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) Outcome[T] {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempts := 0
	permanent := false
	operation := func() (T, error) {
		attempts++
		v, err := op(ctx)
		if err != nil {
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				permanent = true
			}
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithBackOff(&schedule{fn: p.Backoff}),
		backoff.WithMaxElapsedTime(0),
	}
	if p.Logger != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			p.Logger.Warn("attempt failed, retrying",
				"operation", p.Name,
				"attempt", attempts,
				"max_attempts", maxAttempts,
				"backoff", next,
				"error", err,
			)
		}))
	}

	v, err := backoff.Retry(ctx, operation, opts...)
	if err == nil {
		return Outcome[T]{Value: v, Attempts: attempts}
	}

	var zero T
	return Outcome[T]{
		Value:    zero,
		Attempts: attempts,
		Err: &ExhaustedError{
			Name:      p.Name,
			Attempts:  attempts,
			Permanent: permanent,
			Last:      err,
		},
	}
}

// schedule adapts a Backoff function to backoff.BackOff.
type schedule struct {
	fn      Backoff
	attempt int
}

func (s *schedule) NextBackOff() time.Duration {
	s.attempt++
	if s.fn == nil {
		return 0
	}
	d := s.fn(s.attempt)
	if d < 0 {
		return 0
	}
	return d
}

func (s *schedule) Reset() {
	s.attempt = 0
}
