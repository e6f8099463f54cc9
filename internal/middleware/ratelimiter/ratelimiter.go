package ratelimiter

import (
	"sync"
	"time"
)

// bucket is a token bucket for one client identity.
type bucket struct {
	tokens     float64
	capacity   float64
	rate       float64
	lastRefill time.Time
	mu         sync.Mutex
	timer      *time.Timer
	identity   string
	parent     *ClientRateLimiter
}

// ClientRateLimiter keeps an expiring token bucket per client identity
// (IP, email, whatever the caller keys on). Idle buckets are dropped
// after expirationTime so the map does not grow with every address that
// ever hit the endpoint.
type ClientRateLimiter struct {
	buckets        map[string]*bucket
	mu             sync.RWMutex
	rate           float64
	capacity       float64
	expirationTime time.Duration
}

func New(rate float64, capacity float64, expirationTime time.Duration) *ClientRateLimiter {
	return &ClientRateLimiter{
		buckets:        make(map[string]*bucket),
		rate:           rate,
		capacity:       capacity,
		expirationTime: expirationTime,
	}
}

func (c *ClientRateLimiter) cleanup(identity string) {
	c.mu.Lock()
	delete(c.buckets, identity)
	c.mu.Unlock()
}

func (b *bucket) resetTimer() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.parent.expirationTime, func() {
		b.parent.cleanup(b.identity)
	})
}

func (c *ClientRateLimiter) getBucket(identity string) *bucket {
	c.mu.RLock()
	b, exists := c.buckets[identity]
	c.mu.RUnlock()

	if exists {
		b.resetTimer()
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock.
	b, exists = c.buckets[identity]
	if exists {
		b.resetTimer()
		return b
	}

	b = &bucket{
		tokens:     c.capacity,
		capacity:   c.capacity,
		rate:       c.rate,
		lastRefill: time.Now(),
		identity:   identity,
		parent:     c,
	}
	c.buckets[identity] = b
	b.resetTimer()

	return b
}

func (b *bucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()

	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Allow reports whether a request from the given identity may proceed.
func (c *ClientRateLimiter) Allow(identity string) bool {
	return c.getBucket(identity).allow()
}

// Stop cancels all expiration timers.
func (c *ClientRateLimiter) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.buckets {
		if b.timer != nil {
			b.timer.Stop()
		}
	}
}
