package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/printcraft/order-workflow-api/pkg/logger"
	"github.com/printcraft/order-workflow-api/pkg/ratelimit"
)

// RateLimiterMiddleware applies global and per-client rate limiting
type RateLimiterMiddleware struct {
	globalLimiter     *ratelimit.TokenBucket
	clientLimiter     *ratelimit.ClientRateLimiter
	logger            logger.Logger
	trustForwardedFor bool
}

// RateLimiterConfig configures the rate limiter middleware
type RateLimiterConfig struct {
	GlobalMaxTokens   float64
	GlobalRefillRate  float64
	ClientMaxTokens   float64
	ClientRefillRate  float64
	ClientMaxIdle     time.Duration
	TrustForwardedFor bool
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(cfg *RateLimiterConfig, logger logger.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		globalLimiter:     ratelimit.NewTokenBucket(cfg.GlobalMaxTokens, cfg.GlobalRefillRate),
		clientLimiter:     ratelimit.NewClientRateLimiter(cfg.ClientMaxTokens, cfg.ClientRefillRate, cfg.ClientMaxIdle),
		logger:            logger,
		trustForwardedFor: cfg.TrustForwardedFor,
	}
}

// Middleware returns a middleware function for use with mux
func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.globalLimiter.Allow() {
			m.logger.Warn("Global rate limit exceeded", "method", r.Method, "path", r.URL.Path)

			w.Header().Set("Retry-After", "10")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Rate limit exceeded. Please try again later."))
			return
		}

		client := m.clientKey(r)

		if !m.clientLimiter.Allow(client) {
			m.logger.Warn("Client rate limit exceeded", "method", r.Method, "path", r.URL.Path, "client", client)

			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Rate limit exceeded. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientKey extracts the client identity from the request
func (m *RateLimiterMiddleware) clientKey(r *http.Request) string {
	if m.trustForwardedFor {
		forwardedFor := r.Header.Get("X-Forwarded-For")
		if forwardedFor != "" {
			// X-Forwarded-For can contain multiple IPs; use the first one
			ips := strings.Split(forwardedFor, ",")
			return strings.TrimSpace(ips[0])
		}
	}

	ip := r.RemoteAddr
	if i := strings.LastIndex(ip, ":"); i != -1 {
		ip = ip[:i]
	}
	return ip
}

// Stop stops the rate limiters
func (m *RateLimiterMiddleware) Stop() {
	m.clientLimiter.Stop()
}
