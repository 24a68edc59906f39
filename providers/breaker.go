package providers

import (
	"log"
	"sync"
	"time"
)

// CircuitBreaker tracks the health of one upstream provider. State is an
// explicit struct guarded by a mutex because breaker state is shared
// across concurrent analyses: one ticker's repeated failures open the
// breaker for all callers of the same provider.
type CircuitBreaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	recoveryTime     time.Duration

	failureCount    int
	lastFailureTime time.Time
	open            bool
}

// NewCircuitBreaker creates a breaker for a named provider.
func NewCircuitBreaker(name string, failureThreshold int, recoveryTime time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTime:     recoveryTime,
	}
}

// Allow reports whether a call may proceed. While open, calls fail fast
// without invoking the operation. Once the recovery window has elapsed
// since the last failure, the breaker resets (half-open) and the next
// call is let through.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return nil
	}
	if time.Since(cb.lastFailureTime) >= cb.recoveryTime {
		log.Printf("🔄 Circuit breaker for %s entering half-open state", cb.name)
		cb.open = false
		cb.failureCount = 0
		return nil
	}
	return NewDataSourceError(cb.name, false, ErrCircuitOpen)
}

// RecordSuccess resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount = 0
}

// RecordFailure increments the failure count and opens the breaker once
// the threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()
	if cb.failureCount >= cb.failureThreshold && !cb.open {
		cb.open = true
		log.Printf("⛔ Circuit breaker for %s opened after %d consecutive failures", cb.name, cb.failureCount)
	}
}

// IsOpen returns the current open state.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open
}
