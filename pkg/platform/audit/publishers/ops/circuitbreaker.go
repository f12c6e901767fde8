package ops

import (
	"sync"
	"time"
)

// CircuitBreaker stops writes to an unhealthy audit store. After threshold
// consecutive failures it opens for cooldown, then lets the next write probe
// the store.
type CircuitBreaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration
	now       func() time.Time

	failures  int
	openUntil time.Time
}

// NewCircuitBreaker creates a closed circuit breaker. Non-positive arguments
// fall back to 5 failures and one minute.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether a write may be attempted.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.openUntil.IsZero() {
		return true
	}
	if cb.now().After(cb.openUntil) {
		// half-open: one probe, a failure reopens immediately
		cb.openUntil = time.Time{}
		cb.failures = cb.threshold - 1
		return true
	}
	return false
}

// Record feeds the outcome of a write back into the breaker and reports
// whether the circuit is open afterwards.
func (cb *CircuitBreaker) Record(err error) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err == nil {
		cb.failures = 0
		cb.openUntil = time.Time{}
		return false
	}
	cb.failures++
	if cb.failures >= cb.threshold {
		cb.openUntil = cb.now().Add(cb.cooldown)
	}
	return !cb.openUntil.IsZero()
}

// IsOpen reports whether writes are currently refused.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return !cb.openUntil.IsZero() && !cb.now().After(cb.openUntil)
}
