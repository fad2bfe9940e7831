package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a per-key token bucket. Every key shares the same capacity and refill rate.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*bucket
	capacity float64
	refill   float64 // tokens per second
	now      func() time.Time

	// Every pruneEvery calls to Take, buckets idle for longer than idle are dropped,
	// so one-off clients do not accumulate.
	calls      int
	pruneEvery int
	idle       time.Duration
}

// New returns a limiter; capacity <= 0 disables limiting.
func New(capacity int, refillPerSec float64) *Limiter {
	return &Limiter{
		m:          make(map[string]*bucket),
		capacity:   float64(capacity),
		refill:     refillPerSec,
		now:        time.Now,
		pruneEvery: 1024,
		idle:       10 * time.Minute,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.Take(key)
	return ok
}

// Take consumes one token for key. When none is left it reports how long until
// the next token is available.
func (l *Limiter) Take(key string) (bool, time.Duration) {
	if l == nil || l.capacity <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.pruneEvery > 0 && l.calls%l.pruneEvery == 0 {
		l.pruneLocked(now, l.idle)
	}

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(l.capacity, b.tokens+elapsed*l.refill)
		b.last = now
	}
	if b.tokens < 1 {
		if l.refill <= 0 {
			return false, 0
		}
		return false, time.Duration((1 - b.tokens) / l.refill * float64(time.Second))
	}
	b.tokens--
	return true, 0
}

// Prune drops buckets that have been full for longer than idle.
func (l *Limiter) Prune(idle time.Duration) int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pruneLocked(now, idle)
}

func (l *Limiter) pruneLocked(now time.Time, idle time.Duration) int {
	n := 0
	for k, b := range l.m {
		if now.Sub(b.last) > idle && b.tokens+now.Sub(b.last).Seconds()*l.refill >= l.capacity {
			delete(l.m, k)
			n++
		}
	}
	return n
}
