package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(capacity int, perMinute float64) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(capacity, perMinute)
	l.now = clock.now
	return l, clock
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	l, _ := newTestLimiter(3, 60)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "keys have separate buckets")
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(2, 60)

	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	clock.advance(time.Second)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	clock.advance(time.Hour)
	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"), "refill is capped at capacity")
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(5, 60)

	l.Allow("old")
	clock.advance(10 * time.Minute)
	l.Allow("new")

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 1, l.Sweep(5*time.Minute))
	assert.Equal(t, 1, l.Len())
}
