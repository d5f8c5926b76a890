// Package retry provides the shared backoff schedule for transport retries
// and state-poll waits, so both exhibit the same growth curve.
package retry

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultMaxRetries is the number of retries allowed beyond the first attempt.
	DefaultMaxRetries = 3

	defaultInitialDelay = 2 * time.Second
	defaultMultiplier   = 1.5
	defaultMaxDelay     = 10 * time.Second
)

// Policy describes a capped exponential backoff schedule.
type Policy struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultPolicy returns the schedule used throughout the bridge:
// 2s base, 1.5x growth, capped at 10s.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: defaultInitialDelay,
		Multiplier:   defaultMultiplier,
		MaxDelay:     defaultMaxDelay,
	}
}

// DelayForAttempt returns the wait before retry n, where n counts retries
// already performed (0-based, not counting the first attempt). The result is
// monotonically non-decreasing and capped at MaxDelay.
func (p Policy) DelayForAttempt(n int) time.Duration {
	if n <= 0 {
		return p.InitialDelay
	}
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(n))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Sleeper suspends the calling flow for the given duration, honoring context
// cancellation. Tests inject a no-op implementation.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the production Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op up to maxRetries+1 times, sleeping the policy delay between
// attempts. It stops early when op succeeds, when op reports the failure as
// non-retryable, or when the context is cancelled. The returned error is the
// last failure observed.
func Do(ctx context.Context, p Policy, maxRetries int, sleep Sleeper, op func(ctx context.Context) (retryable bool, err error)) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		retryable, err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == maxRetries {
			return lastErr
		}
		if err := sleep(ctx, p.DelayForAttempt(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}
