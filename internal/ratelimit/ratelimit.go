// Package ratelimit provides an injectable, time-windowed request
// limiter. One instance per route; no process-wide state.
package ratelimit

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Options configure a Limiter.
type Options struct {
	Interval time.Duration // sliding window length, e.g. time.Minute
	MaxKeys  int           // bounded key set; oldest keys evicted
}

// Limiter counts requests per client key inside a sliding window.
// Timestamps outside the window are pruned on each check; the key set
// itself is bounded by LRU eviction.
type Limiter struct {
	interval time.Duration
	cache    *lru.Cache
	mu       sync.Mutex
	now      func() time.Time // injectable for tests
}

func New(opts Options) *Limiter {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.MaxKeys <= 0 {
		opts.MaxKeys = 500
	}
	cache, _ := lru.New(opts.MaxKeys)
	return &Limiter{
		interval: opts.Interval,
		cache:    cache,
		now:      time.Now,
	}
}

// Allow records a request for key and reports whether it fits inside
// the limit for the current window.
func (l *Limiter) Allow(key string, limit int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var stamps []time.Time
	if v, ok := l.cache.Get(key); ok {
		stamps = v.([]time.Time)
	}

	recent := stamps[:0]
	for _, ts := range stamps {
		if now.Sub(ts) < l.interval {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= limit {
		l.cache.Add(key, recent)
		return false
	}

	recent = append(recent, now)
	l.cache.Add(key, recent)
	return true
}
