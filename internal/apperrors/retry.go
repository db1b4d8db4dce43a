package apperrors

import (
	"context"
	"errors"
	"time"
)

// Retry policy for transient catalog and history-store failures. The catalog
// sits behind a per-second rate limit upstream, so the first delay already
// clears a full pricing window.
const (
	maxAttempts = 3
	baseDelay   = 200 * time.Millisecond
	maxDelay    = 3 * time.Second
)

// WithRetry runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. Only errors marked Retryable in the taxonomy are
// retried; the delay doubles per attempt and the wait respects ctx.
func WithRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	delay := baseDelay

	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) || attempt > maxAttempts {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// IsRetryable reports whether err carries a Retryable application error.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}

	return false
}
