package store

import (
	"context"
	"errors"
	"time"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

// RetryableError marks an error that should trigger another attempt.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryDelay is the first backoff delay; it doubles after each attempt.
var retryDelay = time.Second

// RetryWithBackoff calls fn up to attempts times, doubling the delay
// between tries. Only errors wrapped with Retryable are retried.
func RetryWithBackoff(ctx context.Context, attempts int, fn func() error) error {
	delay := retryDelay
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
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

// OpenWithRetry is [Open] with backoff on connection failures, for network
// backends that may still be starting up.
func OpenWithRetry(ctx context.Context, cfg Config, attempts int) (Store, error) {
	var s Store
	err := RetryWithBackoff(ctx, attempts, func() error {
		var err error
		s, err = Open(ctx, cfg)
		if errs.Is(err, errs.ErrCodeStorage) {
			return Retryable(err)
		}
		return err
	})
	if err != nil {
		var re *RetryableError
		if errors.As(err, &re) {
			return nil, re.Err
		}
		return nil, err
	}
	return s, nil
}
