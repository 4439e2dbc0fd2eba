package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Classifier reports whether err is worth another attempt.
type Classifier func(error) bool

// ExhaustedError is returned when every attempt failed with a transient error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

type runner struct {
	sleep   func(context.Context, time.Duration) error
	onRetry func(attempt int, delay time.Duration, err error)
}

// Option customizes a Do invocation.
type Option func(*runner)

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(r *runner) {
		if sleeper == nil {
			return
		}
		r.sleep = func(ctx context.Context, d time.Duration) error {
			sleeper(d)
			return ctx.Err()
		}
	}
}

// OnRetry registers a callback invoked before each backoff sleep.
func OnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(r *runner) {
		r.onRetry = fn
	}
}

// Do calls fn until it succeeds, returns a non-transient error, or the policy
// runs out of attempts. A nil classifier means IsTransient.
func Do[T any](ctx context.Context, policy Policy, classify Classifier, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	if classify == nil {
		classify = IsTransient
	}
	r := runner{sleep: sleepContext}
	for _, opt := range opts {
		opt(&r)
	}

	attempts := policy.Attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := callOnce(ctx, policy, fn)
		if err == nil {
			return value, nil
		}
		// The parent context ending is never a provider failure.
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !classify(err) {
			return zero, err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		// A Retry-After hint can lengthen the backoff but never shorten it.
		delay := policy.Delay(attempt)
		if hinted, ok := retryAfterHint(err); ok && hinted > delay {
			delay = policy.capDelay(hinted)
		}
		delay = policy.withJitter(delay)
		if r.onRetry != nil {
			r.onRetry(attempt, delay, err)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}

func callOnce[T any](ctx context.Context, policy Policy, fn func(context.Context) (T, error)) (T, error) {
	if policy.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
	defer cancel()
	value, err := fn(attemptCtx)
	if err != nil && attemptCtx.Err() != nil && ctx.Err() == nil {
		return value, &attemptTimeoutError{timeout: policy.AttemptTimeout, err: err}
	}
	return value, err
}

type attemptTimeoutError struct {
	timeout time.Duration
	err     error
}

func (e *attemptTimeoutError) Error() string {
	return fmt.Sprintf("attempt timed out after %s: %v", e.timeout, e.err)
}

func (e *attemptTimeoutError) Unwrap() error { return e.err }

func (e *attemptTimeoutError) Timeout() bool { return true }

func retryAfterHint(err error) (time.Duration, bool) {
	var hinted RetryAfterer
	if errors.As(err, &hinted) {
		if d := hinted.RetryAfter(); d > 0 {
			return d, true
		}
	}
	return 0, false
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
