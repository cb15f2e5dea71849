package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key. A bucket holds maxHits tokens and
// refills at maxHits per window.
type Limiter struct {
	mu        sync.Mutex
	limits    map[string]*entry
	window    time.Duration
	maxHits   int
	lastSweep time.Time
	now       func() time.Time
}

func NewLimiter(window time.Duration, maxHits int) *Limiter {
	return &Limiter{
		limits:  make(map[string]*entry),
		window:  window,
		maxHits: maxHits,
		now:     time.Now,
	}
}

func (l *Limiter) Allow(key string) bool {
	if l.maxHits <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, exists := l.limits[key]
	if !exists {
		every := rate.Every(l.window / time.Duration(l.maxHits))
		e = &entry{limiter: rate.NewLimiter(every, l.maxHits)}
		l.limits[key] = e
	}
	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for a full window; they would be full again anyway.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now

	for key, e := range l.limits {
		if now.Sub(e.lastSeen) >= l.window {
			delete(l.limits, key)
		}
	}
}
