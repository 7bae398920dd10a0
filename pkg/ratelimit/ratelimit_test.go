package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, limit Limit) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisLimiter(client, limit), mr
}

func TestRedisLimiterAllowsWithinBudget(t *testing.T) {
	limiter, _ := newRedisLimiter(t, Limit{Requests: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow("client-a")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, retryAfter, err := limiter.Allow("client-a")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := newRedisLimiter(t, Limit{Requests: 1, Window: time.Minute})

	allowed, _, err := limiter.Allow("client-a")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow("client-b")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow("client-a")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisLimiterStats(t *testing.T) {
	limiter, _ := newRedisLimiter(t, Limit{Requests: 1, Window: time.Minute})

	limiter.Allow("client-a")
	limiter.Allow("client-a")

	stats := limiter.Stats()
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	limiter := NewMemoryLimiter(Limit{Requests: 2, Window: 50 * time.Millisecond})

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow("client-a")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, _, err := limiter.Allow("client-a")
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(60 * time.Millisecond)

	allowed, _, err = limiter.Allow("client-a")
	require.NoError(t, err)
	assert.True(t, allowed)
}
