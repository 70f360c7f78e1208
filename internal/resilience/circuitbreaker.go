// Package resilience shields the edit pipeline from a misbehaving model
// backend.
//
// The central type is [CircuitBreaker], a three-state breaker
// (closed → open → half-open). [GuardedProvider] wraps an [llm.Provider]
// with a breaker so that, once the backend has failed repeatedly, edit
// operations skip the model calls entirely and land on the deterministic
// fallback instead of queueing up timeouts.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker is open and the cool-down has not
// yet elapsed.
var ErrOpen = errors.New("model backend circuit is open")

// BreakerState is the operating mode of a [CircuitBreaker].
type BreakerState int

const (
	// BreakerClosed forwards all calls.
	BreakerClosed BreakerState = iota

	// BreakerOpen rejects calls until the cool-down elapses.
	BreakerOpen

	// BreakerHalfOpen admits a single probe call; its outcome decides
	// whether the breaker closes again or re-opens.
	BreakerHalfOpen
)

// String returns the human-readable name of the state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds the tuning knobs for a [CircuitBreaker].
type BreakerConfig struct {
	// Name labels log messages.
	Name string

	// MaxFailures is the number of consecutive failures before the
	// breaker opens. Default: 5.
	MaxFailures int

	// CoolDown is how long the breaker stays open before admitting a
	// probe. Default: 30s.
	CoolDown time.Duration
}

// CircuitBreaker is a three-state breaker with a single-probe half-open
// state.
type CircuitBreaker struct {
	name        string
	maxFailures int
	coolDown    time.Duration

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker creates a breaker; zero-value config fields get
// defaults.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	return &CircuitBreaker{
		name:        cfg.Name,
		maxFailures: cfg.MaxFailures,
		coolDown:    cfg.CoolDown,
	}
}

// Allow reports whether a call may proceed now. When it returns true
// the caller must follow up with exactly one [CircuitBreaker.Record].
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(cb.openedAt) < cb.coolDown {
			return false
		}
		cb.state = BreakerHalfOpen
		cb.probing = false
		slog.Info("circuit breaker half-open", "name", cb.name)
		fallthrough
	case BreakerHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	default:
		return false
	}
}

// Record reports the outcome of an admitted call. Neutral outcomes
// (caller cancellation) should not be recorded at all.
func (cb *CircuitBreaker) Record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerHalfOpen {
		cb.probing = false
		if success {
			cb.state = BreakerClosed
			cb.failures = 0
			slog.Info("circuit breaker closed after probe", "name", cb.name)
		} else {
			cb.state = BreakerOpen
			cb.openedAt = time.Now()
			slog.Warn("circuit breaker re-opened after failed probe", "name", cb.name)
		}
		return
	}

	if success {
		cb.failures = 0
		return
	}
	cb.failures++
	if cb.failures >= cb.maxFailures && cb.state == BreakerClosed {
		cb.state = BreakerOpen
		cb.openedAt = time.Now()
		slog.Warn("circuit breaker opened",
			"name", cb.name, "consecutive_failures", cb.failures)
	}
}

// Release frees an admitted call's probe slot without judging the
// backend. Use it for neutral outcomes such as caller cancellation.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false
}

// State returns the breaker's current state. An open breaker whose
// cool-down has elapsed reports half-open; the transition itself happens
// on the next [CircuitBreaker.Allow].
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == BreakerOpen && time.Since(cb.openedAt) >= cb.coolDown {
		return BreakerHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = BreakerClosed
	cb.failures = 0
	cb.probing = false
	slog.Info("circuit breaker manually reset", "name", cb.name)
}
