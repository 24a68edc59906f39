package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(maxAttempts int) RetryPolicy {
	policy := DefaultRetryPolicy()
	policy.MaxAttempts = maxAttempts
	policy.BaseDelay = time.Millisecond
	policy.MaxDelay = 5 * time.Millisecond
	return policy
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	result, err := WithRetry(context.Background(), fastPolicy(3), "test", func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", NewNetworkError("test", errors.New("connection reset"))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got %s", result)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), fastPolicy(3), "test", func(ctx context.Context) (int, error) {
		attempts++
		return 0, NewDataSourceError("test", false, errors.New("malformed payload"))
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithRetryNeverRetriesNotFound(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), fastPolicy(3), "test", func(ctx context.Context) (int, error) {
		attempts++
		return 0, NewTickerNotFoundError("test", "NOPE")
	})
	if !IsNotFound(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	cause := NewNetworkError("test", errors.New("timeout"))
	_, err := WithRetry(context.Background(), fastPolicy(2), "test", func(ctx context.Context) (int, error) {
		attempts++
		return 0, cause
	})
	if !errors.Is(err, cause) {
		t.Errorf("expected the last failure to surface, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := WithRetry(ctx, fastPolicy(3), "test", func(ctx context.Context) (int, error) {
		attempts++
		return 0, NewNetworkError("test", errors.New("timeout"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestDelayGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:         100 * time.Millisecond,
		MaxDelay:          400 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterFactor:      0, // deterministic for the test
	}

	if d := policy.Delay(1); d != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %v", d)
	}
	if d := policy.Delay(2); d != 200*time.Millisecond {
		t.Errorf("expected 200ms, got %v", d)
	}
	if d := policy.Delay(4); d != 400*time.Millisecond {
		t.Errorf("expected delay capped at 400ms, got %v", d)
	}
}
