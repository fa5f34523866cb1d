package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExclusiveUntilExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	locker := NewLocalLocker(clk.Now)
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "renewal", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = locker.TryLock(ctx, "renewal", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	clk.Advance(31 * time.Second)
	second, ok, err := locker.TryLock(ctx, "renewal", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// A stale token must not release the newer lease.
	require.NoError(t, locker.Release(ctx, "renewal", token))
	_, ok, _ = locker.TryLock(ctx, "renewal", 30*time.Second)
	assert.False(t, ok)

	require.NoError(t, locker.Release(ctx, "renewal", second))
	_, ok, _ = locker.TryLock(ctx, "renewal", 30*time.Second)
	assert.True(t, ok)
}

func TestLocalLockerValidation(t *testing.T) {
	locker := NewLocalLocker(nil)
	_, _, err := locker.TryLock(context.Background(), "", time.Second)
	assert.Error(t, err)
	_, _, err = locker.TryLock(context.Background(), "k", 0)
	assert.Error(t, err)
}

func TestApplicationLimiterDisabled(t *testing.T) {
	limiter, err := NewApplicationLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "app")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestApplicationLimiterLocalBurst(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, Rate: 0.001, Burst: 2}}
	limiter, err := NewApplicationLimiter(cfg, nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(context.Background(), "app-a")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Allow(context.Background(), "app-a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	other, err := limiter.Allow(context.Background(), "app-b")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestApplicationLimiterRejectsBadConfig(t *testing.T) {
	_, err := NewApplicationLimiter(config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}, nil)
	assert.Error(t, err)
}

func TestRetryAfter(t *testing.T) {
	assert.Zero(t, retryAfter(true, 0, 10))
	assert.Equal(t, 500*time.Millisecond, retryAfter(false, 0.5, 1))
}

func TestCasts(t *testing.T) {
	assert.EqualValues(t, 1, castToInt(int64(1)))
	assert.EqualValues(t, 3, castToInt("3"))
	assert.InDelta(t, 1.5, castToFloat("1.5"), 0.0001)
	assert.InDelta(t, 2, castToFloat(int64(2)), 0.0001)
}
