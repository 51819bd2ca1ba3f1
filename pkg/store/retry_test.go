package store

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

var errNetwork = errors.New("connection refused")

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should be true for a wrapped error")
	}
	if err.Error() != errNetwork.Error() {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, errNetwork) {
		t.Error("Retryable should unwrap to the cause")
	}
	if IsRetryable(errNetwork) {
		t.Error("plain errors are not retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	ctx := context.Background()
	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, true, 1, false},
		{"non-retryable stops", 5, false, 1, true},
		{"recovers", 2, true, 3, false},
		{"gives up", 5, true, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, 3, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(errNetwork)
					}
					return errNetwork
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, 3, func() error { return Retryable(errNetwork) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestOpenWithRetryConfigError(t *testing.T) {
	_, err := OpenWithRetry(context.Background(), Config{Backend: "nope"}, 3)
	if !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}
