package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterAllow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewLimiter(time.Minute, 3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "hit %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "keys are independent")

	now = now.Add(20 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refills every window/maxHits")
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiterSweepsIdleKeys(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewLimiter(time.Minute, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	assert.Len(t, l.limits, 2)

	now = now.Add(2 * time.Minute)
	l.Allow("c")
	assert.Len(t, l.limits, 1)
}

func TestLimiterZeroHitsDeniesAll(t *testing.T) {
	l := NewLimiter(time.Minute, 0)
	assert.False(t, l.Allow("anyone"))
}
