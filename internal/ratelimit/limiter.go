// Package ratelimit paces API requests against the provider's quota.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/huangsam/actionstat/internal/contract"
)

// resetBuffer pads the reported reset instant so a request issued right at
// reset does not race the provider's quota bookkeeping.
const resetBuffer = 5 * time.Second

// QuotaLimiter throttles requests based on the provider's rate-limit
// headers. One limiter is shared by every request in an ingestion session;
// there is no global state.
type QuotaLimiter struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	known     bool

	safety  int
	maxWait time.Duration
	clock   contract.Clock
}

var _ contract.Limiter = &QuotaLimiter{} // Compile-time check

// New creates a limiter that keeps a safety margin of requests in reserve
// and refuses to wait longer than maxWait for a quota reset.
func New(safety int, maxWait time.Duration, clock contract.Clock) *QuotaLimiter {
	return &QuotaLimiter{safety: safety, maxWait: maxWait, clock: clock}
}

// Acquire implements the Limiter interface. It returns immediately while
// quota is comfortable, sleeps through a reset when the margin is spent, and
// fails with a RateLimitError when that sleep would exceed the ceiling.
func (l *QuotaLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	exhausted := l.known && l.remaining <= l.safety
	reset := l.reset
	l.mu.Unlock()

	if !exhausted {
		return nil
	}

	now := l.clock.Now()
	wait := reset.Add(resetBuffer).Sub(now)
	if wait <= 0 {
		l.forget()
		return nil
	}
	if wait > l.maxWait {
		return &contract.RateLimitError{Reset: reset, Wait: wait}
	}
	if err := l.clock.Sleep(ctx, wait); err != nil {
		return err
	}
	l.forget()
	return nil
}

// Observe implements the Limiter interface.
func (l *QuotaLimiter) Observe(remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remaining = remaining
	l.reset = reset
	l.known = true
}

// forget drops the recorded quota after a reset has passed; the next
// response's headers re-establish it.
func (l *QuotaLimiter) forget() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.known = false
}
