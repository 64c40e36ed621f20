package io

import (
	"context"
	"errors"
	"os"
	"time"
)

// Replace retry policy. Some slicers keep the output file open for a moment
// after starting the post-processing script, and Windows refuses to rename
// over an open file.
const (
	replaceAttempts = 4
	replaceDelay    = 50 * time.Millisecond
)

// retryableError marks a failure that may succeed when attempted again.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// retry executes fn up to attempts times with exponential backoff.
// Only errors wrapped in retryableError are retried; the delay doubles
// after each failed attempt. Returns the last error if all attempts fail,
// or ctx.Err() if cancelled.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !errors.As(err, new(*retryableError)) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// rename moves from over to, retrying while the target is locked.
func rename(ctx context.Context, from, to string) error {
	err := retry(ctx, replaceAttempts, replaceDelay, func() error {
		err := os.Rename(from, to)
		if err != nil && os.IsPermission(err) {
			return &retryableError{err}
		}
		return err
	})
	var re *retryableError
	if errors.As(err, &re) {
		return re.err
	}
	return err
}
