package backoff

import (
	"context"
	"time"
)

// Retry calls f until it succeeds, attempts calls were made, or shouldRetry
// rejects an error. The wait between calls starts at sleep and doubles. A
// cancelled ctx ends the wait early and its error is returned.
func Retry(ctx context.Context, attempts int, sleep time.Duration, f func() error, shouldRetry func(error) bool) error {
	if attempts < 1 {
		attempts = 1
	}
	if sleep <= 0 {
		sleep = time.Second
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = f()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts || !shouldRetry(lastErr) {
			return lastErr
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		sleep *= 2
	}
}
