// Package resilience guards reads from the Result Cache and Durable
// Price Store with a circuit breaker, so a struggling dependency fails
// fast instead of piling up latency on every search request.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the state of a CircuitBreaker.
type State int

const (
	// Closed allows requests to pass through.
	Closed State = iota

	// Open rejects requests immediately.
	Open

	// HalfOpen allows a limited number of test requests to check recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker tuning parameters.
type Config struct {
	MaxFailures      int           `default:"5"`
	ResetTimeout     time.Duration `default:"30s"`
	HalfOpenMaxCalls int           `default:"3"`
}

// DefaultConfig returns sane defaults for guarding an infrastructure
// dependency like Redis or Postgres.
func DefaultConfig() *Config {
	return &Config{
		MaxFailures:      5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker implements the circuit breaker pattern over a named
// dependency (e.g. "cache" or "store").
type CircuitBreaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	lastStateChange time.Time
	config          *Config
	logger          *zerolog.Logger
	name            string
}

// New creates a circuit breaker for the given dependency name.
func New(name string, config *Config, logger *zerolog.Logger) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	return &CircuitBreaker{
		state:           Closed,
		config:          config,
		logger:          logger,
		name:            name,
		lastStateChange: time.Now(),
	}
}

// Allow reports whether a call against the guarded dependency should
// proceed right now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()

	switch cb.state {
	case Closed:
		return true

	case Open:
		if now.Sub(cb.lastFailureTime) >= cb.config.ResetTimeout {
			cb.transitionTo(Open.next(), now)
			cb.logger.Info().Str("breaker", cb.name).Msg("circuit breaker transitioning to half-open")
			return true
		}
		return false

	case HalfOpen:
		return cb.successCount < cb.config.HalfOpenMaxCalls

	default:
		return false
	}
}

func (s State) next() State {
	if s == Open {
		return HalfOpen
	}
	return s
}

// RecordSuccess records a successful call against the dependency.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()

	switch cb.state {
	case Closed:
		cb.failureCount = 0

	case HalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.HalfOpenMaxCalls {
			cb.transitionTo(Closed, now)
			cb.logger.Info().Str("breaker", cb.name).Msg("circuit breaker closing after recovery")
			cb.successCount = 0
			cb.failureCount = 0
		}
	}
}

// RecordFailure records a failed call against the dependency.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.failureCount++
	cb.lastFailureTime = now

	cb.logger.Error().Err(err).Str("breaker", cb.name).Int("failure_count", cb.failureCount).Msg("circuit breaker recorded failure")

	switch cb.state {
	case Closed:
		if cb.failureCount >= cb.config.MaxFailures {
			cb.transitionTo(Open, now)
			cb.logger.Warn().Str("breaker", cb.name).Dur("reset_timeout", cb.config.ResetTimeout).Msg("circuit breaker opening after max failures")
		}

	case HalfOpen:
		cb.transitionTo(Open, now)
		cb.logger.Warn().Str("breaker", cb.name).Msg("circuit breaker re-opening after failure in half-open state")
		cb.successCount = 0
	}
}

func (cb *CircuitBreaker) transitionTo(newState State, now time.Time) {
	cb.state = newState
	cb.lastStateChange = now
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker back to closed, used by admin tooling.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(Closed, time.Now())
	cb.failureCount = 0
	cb.successCount = 0
}

// ErrOpen is returned by callers wrapping a breaker-guarded call when the
// breaker is open.
type ErrOpen struct {
	Dependency string
}

func (e *ErrOpen) Error() string {
	return "resilience: circuit open for " + e.Dependency
}

// Guard runs fn if the breaker allows it, recording the outcome.
// Context is accepted for future cancellation-aware dependencies even
// though the current breaker logic itself never blocks.
func (cb *CircuitBreaker) Guard(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.Allow() {
		return &ErrOpen{Dependency: cb.name}
	}
	err := fn(ctx)
	if err != nil {
		cb.RecordFailure(err)
		return err
	}
	cb.RecordSuccess()
	return nil
}
