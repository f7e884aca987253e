package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a token bucket rate limiting algorithm
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
	mutex      sync.Mutex
}

// NewTokenBucket creates a full bucket refilling at refillRate tokens per second
func NewTokenBucket(maxTokens, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a single request can proceed
func (tb *TokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN checks if n requests should be allowed based on available tokens
func (tb *TokenBucket) AllowN(n float64) bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now

	tb.tokens = minFloat(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)

	if tb.tokens >= n {
		tb.tokens -= n
		return true
	}
	return false
}

// Available returns the number of tokens currently in the bucket
func (tb *TokenBucket) Available() float64 {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	elapsed := time.Since(tb.lastRefill).Seconds()
	return minFloat(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
