package ghclient

import (
	"math/rand/v2"
	"time"
)

// RetryState is the lifecycle phase of one logical request.
type RetryState int

// All retry states.
const (
	StateAttempting RetryState = iota
	StateBackingOff
	StateWaitingRateLimit
	StateSucceeded
	StateFailed
)

// attemptResult classifies the outcome of a single HTTP attempt.
type attemptResult int

const (
	attemptOK attemptResult = iota
	attemptTransient
	attemptRateLimited
	attemptFatal
)

// rateLimitResetBuffer pads the reported reset instant so a request issued
// right at reset does not race the provider's quota bookkeeping.
const rateLimitResetBuffer = 5 * time.Second

// retryMachine tracks retry state for one logical request. Transitions are
// pure functions of the current state and the observed attempt result, so
// they can be tested without sleeping or touching the network.
type retryMachine struct {
	maxRetries  int
	backoffBase time.Duration
	backoffCap  time.Duration

	state   RetryState
	attempt int           // completed attempts
	delay   time.Duration // valid in StateBackingOff
	until   time.Time     // valid in StateWaitingRateLimit
}

func newRetryMachine(maxRetries int, base, cap time.Duration) *retryMachine {
	return &retryMachine{
		maxRetries:  maxRetries,
		backoffBase: base,
		backoffCap:  cap,
		state:       StateAttempting,
	}
}

// Observe records the result of one attempt and moves the machine to its
// next state. Rate limiting does not consume a retry attempt.
func (m *retryMachine) Observe(res attemptResult, reset time.Time) {
	if m.state != StateAttempting {
		return
	}
	switch res {
	case attemptOK:
		m.state = StateSucceeded
	case attemptFatal:
		m.state = StateFailed
	case attemptRateLimited:
		m.until = reset.Add(rateLimitResetBuffer)
		m.state = StateWaitingRateLimit
	case attemptTransient:
		m.attempt++
		if m.attempt >= m.maxRetries {
			m.state = StateFailed
			return
		}
		m.delay = withJitter(backoffDelay(m.backoffBase, m.backoffCap, m.attempt))
		m.state = StateBackingOff
	}
}

// Resume returns the machine to the attempting state after a backoff or
// rate-limit wait has elapsed.
func (m *retryMachine) Resume() {
	if m.state == StateBackingOff || m.state == StateWaitingRateLimit {
		m.state = StateAttempting
	}
}

// Attempts returns the number of attempts consumed so far.
func (m *retryMachine) Attempts() int { return m.attempt }

// backoffDelay computes the geometric backoff for the nth failed attempt,
// capped so a long outage does not produce unbounded waits.
func backoffDelay(base, cap time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}

// withJitter randomizes the upper half of a delay so workers that failed
// together do not retry in lockstep. The result stays within [d/2, d].
func withJitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(d-half+1)
}
