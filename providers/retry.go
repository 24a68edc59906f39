package providers

import (
	"context"
	"log"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls the backoff schedule for one acquisition operation.
type RetryPolicy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterFactor      float64
	RetryableKinds    map[ErrorKind]bool
}

// DefaultRetryPolicy returns the retry policy used for provider calls
// unless configuration overrides it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          8 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFactor:      0.25,
		RetryableKinds: map[ErrorKind]bool{
			KindNetwork:    true,
			KindRateLimit:  true,
			KindDataSource: true,
		},
	}
}

// Delay computes the wait before the given retry (attempt is 1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	backoff := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt-1))
	backoff *= 1 + p.JitterFactor*rand.Float64()
	if backoff > float64(p.MaxDelay) {
		backoff = float64(p.MaxDelay)
	}
	return time.Duration(backoff)
}

// shouldRetry gates a failure on both the policy's kind set and the
// error's own retryable flag (a data-source error may be fatal).
func (p RetryPolicy) shouldRetry(err error) bool {
	if !p.RetryableKinds[KindOf(err)] {
		return false
	}
	return IsRetryable(err)
}

// WithRetry runs op under the policy, sleeping with exponential backoff
// and jitter between attempts. Non-retryable failures surface
// immediately; once attempts are exhausted the last error is returned.
// Retries of read operations are safe to repeat without duplicating
// effects.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !policy.shouldRetry(err) {
			return zero, err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		delay := policy.Delay(attempt)
		// A rate-limited upstream knows better than our schedule.
		if hint := RetryAfterHint(err); hint > delay {
			delay = hint
		}
		log.Printf("⚠️  %s attempt %d/%d failed (%v), retrying in %v", name, attempt, policy.MaxAttempts, err, delay)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
