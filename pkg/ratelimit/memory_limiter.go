package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// MemoryLimiter is the single-instance fallback used when redis is down.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   Limit
	stats   Stats
}

type window struct {
	count int
	start time.Time
}

func NewMemoryLimiter(limit Limit) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
	}
}

func (m *MemoryLimiter) Allow(key string) (bool, time.Duration, error) {
	atomic.AddInt64(&m.stats.TotalRequests, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.limit.Window {
		m.windows[key] = &window{count: 1, start: now}
		return true, 0, nil
	}

	if w.count < m.limit.Requests {
		w.count++
		return true, 0, nil
	}

	atomic.AddInt64(&m.stats.BlockedRequests, 1)
	return false, w.start.Add(m.limit.Window).Sub(now), nil
}

func (m *MemoryLimiter) Stats() Stats {
	return Stats{
		TotalRequests:   atomic.LoadInt64(&m.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&m.stats.BlockedRequests),
	}
}
