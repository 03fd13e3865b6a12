package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquirePassesWithQuota(t *testing.T) {
	clock := contract.NewFakeClock(time.Unix(1700000000, 0))
	limiter := New(100, 30*time.Minute, clock)

	limiter.Observe(4000, clock.Now().Add(time.Hour))
	require.NoError(t, limiter.Acquire(context.Background()))
	assert.Empty(t, clock.Sleeps(), "comfortable quota must not sleep")
}

func TestAcquirePassesBeforeFirstObservation(t *testing.T) {
	clock := contract.NewFakeClock(time.Unix(1700000000, 0))
	limiter := New(100, 30*time.Minute, clock)
	require.NoError(t, limiter.Acquire(context.Background()))
}

func TestAcquireWaitsForReset(t *testing.T) {
	clock := contract.NewFakeClock(time.Unix(1700000000, 0))
	limiter := New(100, 30*time.Minute, clock)

	reset := clock.Now().Add(2 * time.Minute)
	limiter.Observe(0, reset)

	require.NoError(t, limiter.Acquire(context.Background()))
	require.Len(t, clock.Sleeps(), 1)
	assert.Equal(t, 2*time.Minute+5*time.Second, clock.Sleeps()[0], "wait must cover reset plus buffer")

	// The stale observation is discarded after the reset has passed.
	require.NoError(t, limiter.Acquire(context.Background()))
	assert.Len(t, clock.Sleeps(), 1)
}

func TestAcquireRespectsSafetyMargin(t *testing.T) {
	clock := contract.NewFakeClock(time.Unix(1700000000, 0))
	limiter := New(100, 30*time.Minute, clock)

	limiter.Observe(50, clock.Now().Add(time.Minute))
	require.NoError(t, limiter.Acquire(context.Background()))
	assert.Len(t, clock.Sleeps(), 1, "quota below the safety margin must wait")
}

func TestAcquireFailsBeyondCeiling(t *testing.T) {
	clock := contract.NewFakeClock(time.Unix(1700000000, 0))
	limiter := New(100, 10*time.Minute, clock)

	reset := clock.Now().Add(time.Hour)
	limiter.Observe(0, reset)

	err := limiter.Acquire(context.Background())
	require.Error(t, err)
	var rateErr *contract.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, reset, rateErr.Reset)
	assert.Empty(t, clock.Sleeps(), "a hopeless wait must fail fast")
}

func TestAcquireHonorsCancellation(t *testing.T) {
	clock := contract.NewFakeClock(time.Unix(1700000000, 0))
	limiter := New(100, 30*time.Minute, clock)
	limiter.Observe(0, clock.Now().Add(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, limiter.Acquire(ctx), context.Canceled)
}
