package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "smartfleet:ratelimit:"

// fixed-window counter, atomic via Lua so concurrent requests can't both
// sneak under the limit
const allowScript = `
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local now_ms = tonumber(ARGV[3])

	local count = tonumber(redis.call('HGET', key, 'count')) or 0
	local window_start = tonumber(redis.call('HGET', key, 'window_start')) or now_ms

	if now_ms - window_start >= window_ms then
		count = 0
		window_start = now_ms
	end

	local allowed = count < limit
	if allowed then
		count = count + 1
	end

	local retry_ms = 0
	if not allowed then
		retry_ms = (window_start + window_ms) - now_ms
	end

	redis.call('HSET', key, 'count', count, 'window_start', window_start)
	redis.call('PEXPIRE', key, window_ms + 1000)

	return {allowed and 1 or 0, retry_ms}
`

// RedisLimiter is a fixed-window limiter shared across instances.
type RedisLimiter struct {
	client *goredis.Client
	limit  Limit
	stats  Stats
	ctx    context.Context
}

func NewRedisLimiter(client *goredis.Client, limit Limit) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		ctx:    context.Background(),
	}
}

func (r *RedisLimiter) Allow(key string) (bool, time.Duration, error) {
	atomic.AddInt64(&r.stats.TotalRequests, 1)

	result, err := r.client.Eval(r.ctx, allowScript,
		[]string{redisKeyPrefix + key},
		r.limit.Requests,
		r.limit.Window.Milliseconds(),
		time.Now().UnixMilli(),
	).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected script result format")
	}

	allowed := values[0].(int64) == 1
	retryAfter := time.Duration(values[1].(int64)) * time.Millisecond

	if !allowed {
		atomic.AddInt64(&r.stats.BlockedRequests, 1)
	}

	return allowed, retryAfter, nil
}

func (r *RedisLimiter) Stats() Stats {
	return Stats{
		TotalRequests:   atomic.LoadInt64(&r.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&r.stats.BlockedRequests),
	}
}
