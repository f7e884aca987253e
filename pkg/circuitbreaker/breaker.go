package circuitbreaker

import (
	"sync"
	"sync/atomic"
	"time"
)

// State represents the state of the circuit breaker
type State int

const (
	StateClosed   State = iota // normal operation, requests allowed
	StateHalfOpen              // probing whether the dependency recovered
	StateOpen                  // circuit is open, requests are rejected
)

// CircuitBreaker guards calls to an external dependency
type CircuitBreaker struct {
	state            int32
	failureThreshold int64
	resetTimeout     time.Duration
	halfOpenMaxCalls int64
	failureCount     int64
	halfOpenCalls    int64
	lastStateChange  time.Time
	mutex            sync.RWMutex
}

// Config configures a CircuitBreaker
type Config struct {
	FailureThreshold int64
	ResetTimeout     time.Duration
	HalfOpenMaxCalls int64
}

// New creates a circuit breaker in the closed state
func New(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		state:            int32(StateClosed),
		failureThreshold: cfg.FailureThreshold,
		resetTimeout:     cfg.ResetTimeout,
		halfOpenMaxCalls: cfg.HalfOpenMaxCalls,
		lastStateChange:  time.Now(),
	}
}

// Allow reports whether a request may proceed
func (cb *CircuitBreaker) Allow() bool {
	switch State(atomic.LoadInt32(&cb.state)) {
	case StateClosed:
		return true
	case StateOpen:
		cb.mutex.RLock()
		elapsed := time.Since(cb.lastStateChange)
		cb.mutex.RUnlock()

		if elapsed >= cb.resetTimeout {
			if atomic.CompareAndSwapInt32(&cb.state, int32(StateOpen), int32(StateHalfOpen)) {
				cb.mutex.Lock()
				cb.lastStateChange = time.Now()
				atomic.StoreInt64(&cb.halfOpenCalls, 0)
				cb.mutex.Unlock()
			}
			return cb.Allow()
		}
		return false
	case StateHalfOpen:
		calls := atomic.AddInt64(&cb.halfOpenCalls, 1)
		return calls <= cb.halfOpenMaxCalls
	default:
		return false
	}
}

// Success reports a successful call
func (cb *CircuitBreaker) Success() {
	state := State(atomic.LoadInt32(&cb.state))

	switch state {
	case StateHalfOpen:
		if atomic.CompareAndSwapInt32(&cb.state, int32(StateHalfOpen), int32(StateClosed)) {
			cb.mutex.Lock()
			cb.lastStateChange = time.Now()
			atomic.StoreInt64(&cb.failureCount, 0)
			cb.mutex.Unlock()
		}
	case StateClosed:
		atomic.StoreInt64(&cb.failureCount, 0)
	}
}

// Failure reports a failed call
func (cb *CircuitBreaker) Failure() {
	state := State(atomic.LoadInt32(&cb.state))

	switch state {
	case StateClosed:
		if atomic.AddInt64(&cb.failureCount, 1) >= cb.failureThreshold {
			if atomic.CompareAndSwapInt32(&cb.state, int32(StateClosed), int32(StateOpen)) {
				cb.mutex.Lock()
				cb.lastStateChange = time.Now()
				cb.mutex.Unlock()
			}
		}
	case StateHalfOpen:
		if atomic.CompareAndSwapInt32(&cb.state, int32(StateHalfOpen), int32(StateOpen)) {
			cb.mutex.Lock()
			cb.lastStateChange = time.Now()
			cb.mutex.Unlock()
		}
	}
}

// CurrentState returns the breaker's current state
func (cb *CircuitBreaker) CurrentState() State {
	return State(atomic.LoadInt32(&cb.state))
}
