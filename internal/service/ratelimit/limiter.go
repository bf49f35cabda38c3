package ratelimit

import (
    "sync"
    "time"
)

// Buckets idle longer than this are dropped during the periodic sweep so
// the per-remote map does not grow without bound.
const idleEvictAfter = 10 * time.Minute

const sweepThreshold = 1024

type bucket struct {
    tokens     float64
    capacity   float64
    refillRate float64 // tokens per second
    last       time.Time
}

// Limiter is a token-bucket rate limiter keyed by caller, one bucket per
// remote address and endpoint pair.
type Limiter struct {
    mu sync.Mutex
    m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
    now := time.Now()
    l.mu.Lock()
    defer l.mu.Unlock()

    if len(l.m) >= sweepThreshold {
        l.sweepLocked(now)
    }

    b, ok := l.m[key]
    if !ok {
        b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
        l.m[key] = b
    }
    elapsed := now.Sub(b.last).Seconds()
    if elapsed > 0 {
        b.tokens += elapsed * b.refillRate
        if b.tokens > b.capacity {
            b.tokens = b.capacity
        }
        b.last = now
    }
    if b.tokens >= 1 {
        b.tokens -= 1
        return true
    }
    return false
}

func (l *Limiter) sweepLocked(now time.Time) {
    for k, b := range l.m {
        if now.Sub(b.last) > idleEvictAfter {
            delete(l.m, k)
        }
    }
}
