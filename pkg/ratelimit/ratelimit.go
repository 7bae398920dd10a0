package ratelimit

import "time"

// Limiter guards brute-forceable endpoints. Allow reports whether the key
// may proceed and, when blocked, how long until the window resets.
type Limiter interface {
	Allow(key string) (bool, time.Duration, error)
	Stats() Stats
}

// Limit is a fixed-window request budget.
type Limit struct {
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
}

// Stats provides counters for observability.
type Stats struct {
	TotalRequests   int64 `json:"totalRequests"`
	BlockedRequests int64 `json:"blockedRequests"`
}

// DefaultLoginLimit throttles credential guessing without bothering real
// users: 10 attempts per minute per client.
func DefaultLoginLimit() Limit {
	return Limit{Requests: 10, Window: time.Minute}
}
