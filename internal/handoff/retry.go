package handoff

import (
	"context"
	"time"

	"handoff/internal/store"
)

const (
	// storeAttempts bounds retries against the descriptor store before a
	// failure surfaces as a 5xx to the caller.
	storeAttempts = 3

	retryBaseDelay = 50 * time.Millisecond
)

// withStoreRetry runs fn, retrying backing-store failures with short
// exponential backoff. Domain errors (no job, conflict, not found) and
// context cancellation are returned immediately.
func withStoreRetry(ctx context.Context, fn func() error) error {
	var err error
	delay := retryBaseDelay

	for attempt := 0; attempt < storeAttempts; attempt++ {
		err = fn()
		if err == nil || store.IsDomainError(err) || ctx.Err() != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
