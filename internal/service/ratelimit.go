package service

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	bucketIdleTTL   = 10 * time.Minute
	bucketSweepTick = 5 * time.Minute
)

// TokenBucket is an in-memory per-key rate limiter, used to throttle
// credential endpoints per client address. It is safe for concurrent use.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64
	now      func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a limiter holding up to capacity tokens per key,
// refilling at rate tokens per second. Idle buckets are swept until ctx is
// cancelled.
func NewTokenBucket(ctx context.Context, rate, capacity float64) *TokenBucket {
	tb := newTokenBucket(rate, capacity, time.Now)
	go tb.sweep(ctx)
	return tb
}

func newTokenBucket(rate, capacity float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		now:      now,
	}
}

// Allow consumes one token for key. When the bucket is empty it reports
// false along with how long until the next token is available; the wait is
// zero if the bucket never refills.
func (tb *TokenBucket) Allow(key string) (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}

	b.tokens = min(b.tokens+now.Sub(b.last).Seconds()*tb.rate, tb.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if tb.rate <= 0 {
		return false, 0
	}
	wait := math.Ceil((1 - b.tokens) / tb.rate)
	return false, time.Duration(wait) * time.Second
}

// Len reports how many keys are being tracked.
func (tb *TokenBucket) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}

func (tb *TokenBucket) sweep(ctx context.Context) {
	ticker := time.NewTicker(bucketSweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tb.evictIdle()
		}
	}
}

func (tb *TokenBucket) evictIdle() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	cutoff := tb.now().Add(-bucketIdleTTL)
	for key, b := range tb.buckets {
		if b.last.Before(cutoff) {
			delete(tb.buckets, key)
		}
	}
}
