package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/service"
)

// ErrRetriesExhausted indicates that all retry attempts have been used up.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Transient marks err as worth another attempt.
func Transient(err error) error {
	return &RetryableError{Err: err, Retryable: true}
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff returns the delay after the given failed attempt (1-based):
// 2^attempt seconds, capped at opts.MaxDelay.
func Backoff(attempt int, opts service.RetryOptions) time.Duration {
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = service.DefaultMaxDelay
	}

	if attempt > 30 {
		return maxDelay
	}
	if attempt < 0 {
		attempt = 0
	}

	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// WithRetry executes operation until it succeeds, returns a non-retryable
// error, or opts.MaxAttempts is reached. Only errors marked with Transient
// are retried.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions, sleep Sleeper) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == opts.MaxAttempts {
			break
		}

		delay := Backoff(attempt, opts)
		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, opts.MaxAttempts, lastErr)
}
