package store

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultMaxAttempts = 5
	retryBaseDelay     = 5 * time.Millisecond
	retryJitter        = 5 * time.Millisecond
	retryMaxDelay      = 100 * time.Millisecond
)

// withConflictRetry reruns attempt while it reports ErrConflict.
func withConflictRetry(ctx context.Context, maxAttempts int, attempt func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoff := retry.NewExponential(retryBaseDelay)
	backoff = retry.WithCappedDuration(retryMaxDelay, backoff)
	backoff = retry.WithJitter(retryJitter, backoff)
	backoff = retry.WithMaxRetries(uint64(maxAttempts-1), backoff)
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := attempt(ctx)
		if errors.Is(err, ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
}
