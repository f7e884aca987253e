package ratelimit

import (
	"sync"
	"time"
)

// ClientRateLimiter keeps one token bucket per client key (IP or user ID)
type ClientRateLimiter struct {
	limiters   map[string]*clientBucket
	mu         sync.Mutex
	maxTokens  float64
	refillRate float64
	maxIdle    time.Duration
	cleanup    *time.Ticker
	stopChan   chan struct{}
}

type clientBucket struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// NewClientRateLimiter creates a per-client limiter with periodic cleanup of
// buckets that have been idle longer than maxIdle
func NewClientRateLimiter(maxTokens, refillRate float64, maxIdle time.Duration) *ClientRateLimiter {
	limiter := &ClientRateLimiter{
		limiters:   make(map[string]*clientBucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		maxIdle:    maxIdle,
		cleanup:    time.NewTicker(10 * time.Minute),
		stopChan:   make(chan struct{}),
	}

	go limiter.cleanupLoop()

	return limiter
}

// Allow checks if a request from the given client can proceed
func (cl *ClientRateLimiter) Allow(key string) bool {
	cl.mu.Lock()

	entry, exists := cl.limiters[key]

	if !exists {
		entry = &clientBucket{bucket: NewTokenBucket(cl.maxTokens, cl.refillRate)}
		cl.limiters[key] = entry
	}

	entry.lastSeen = time.Now()
	cl.mu.Unlock()

	return entry.bucket.Allow()
}

func (cl *ClientRateLimiter) cleanupLoop() {
	for {
		select {
		case <-cl.cleanup.C:
			cutoff := time.Now().Add(-cl.maxIdle)
			cl.mu.Lock()
			for key, entry := range cl.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(cl.limiters, key)
				}
			}
			cl.mu.Unlock()
		case <-cl.stopChan:
			cl.cleanup.Stop()
			return
		}
	}
}

// Stop stops the cleanup loop
func (cl *ClientRateLimiter) Stop() {
	close(cl.stopChan)
}
