// Package retry provides a bounded retry policy with exponential backoff,
// shared by the PNCP client and the mailer.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes a bounded retry schedule.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Retryable reports whether an attempt error is worth retrying.
	// A nil predicate retries everything.
	Retryable func(error) bool
}

// Hinter lets an error carry a server-provided delay (e.g. Retry-After).
// When present and larger than the scheduled backoff, the hint wins.
type Hinter interface {
	RetryAfter() (time.Duration, bool)
}

// Do runs op until it succeeds, the policy is exhausted, the error is
// non-retryable, or ctx is done. The last attempt error is returned.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := p.delay(attempt - 1)
			var h Hinter
			if errors.As(lastErr, &h) {
				if after, ok := h.RetryAfter(); ok && after > delay {
					delay = after
				}
			}
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay)
	mult := p.Multiplier
	if mult < 1 {
		mult = 2
	}
	for i := 0; i < attempt; i++ {
		d *= mult
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
