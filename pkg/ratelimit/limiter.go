package ratelimit

import (
	"context"
	"sync"
	"time"
)

// bucket is a token bucket: it holds up to capacity tokens and regains
// refillRate tokens per second.
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter keeps one token bucket per key, e.g. per client IP.
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	capacity   int
	perMinute  float64
	refillRate float64
	now        func() time.Time
}

// NewLimiter creates a limiter allowing bursts of capacity requests per key,
// refilled at perMinute requests per minute.
func NewLimiter(capacity int, perMinute float64) *Limiter {
	return &Limiter{
		buckets:    make(map[string]*bucket),
		capacity:   capacity,
		perMinute:  perMinute,
		refillRate: perMinute / 60.0,
		now:        time.Now,
	}
}

// Allow takes one token from the bucket of key. It returns false when the
// bucket is empty.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.capacity), lastSeen: now}
		l.buckets[key] = b
	}

	b.tokens = min(float64(l.capacity), b.tokens+now.Sub(b.lastSeen).Seconds()*l.refillRate)
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Capacity returns the burst size per key
func (l *Limiter) Capacity() int {
	return l.capacity
}

// Len returns the number of tracked keys
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets idle for longer than ttl. An idle bucket is full again
// by then, so dropping it loses nothing.
func (l *Limiter) Sweep(ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > ttl {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every ttl until ctx is done.
func (l *Limiter) RunSweeper(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(ttl)
		}
	}
}
