// Package resilience shields callers from a failing remote search backend.
//
// [Breaker] is a three-state circuit breaker (closed → open → half-open).
// After a run of consecutive failures it rejects calls outright for a
// cooldown period, then lets a single probe through to test recovery.
// [GuardedSearcher] wraps a remote verse searcher with a breaker so the
// matching cascade degrades quickly instead of waiting out timeouts.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects every call with [ErrOpen] until the cooldown
	// elapses.
	StateOpen

	// StateHalfOpen lets one probe call through. Success closes the
	// breaker, failure re-opens it.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds the tuning knobs for a [Breaker]. Zero-value fields
// take the documented defaults.
type BreakerConfig struct {
	// Name labels the breaker in log messages.
	Name string

	// FailureThreshold is the run of consecutive failures that opens the
	// breaker. Default: 3.
	FailureThreshold int

	// Cooldown is how long the breaker stays open before permitting a
	// probe. Default: 15s.
	Cooldown time.Duration
}

// Breaker is a three-state circuit breaker. While half-open it admits
// exactly one probe at a time; concurrent callers are rejected until the
// probe resolves.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a closed [Breaker] from cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	return &Breaker{
		name:      cfg.Name,
		threshold: cfg.FailureThreshold,
		cooldown:  cfg.Cooldown,
	}
}

// Do runs fn unless the breaker rejects the call, in which case it returns
// [ErrOpen] without invoking fn. fn's error is always passed through.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.settle(err)
	return err
}

// admit decides whether a call may proceed, moving open → half-open when
// the cooldown has elapsed.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.probing = true
		slog.Info("circuit breaker probing after cooldown", "name", b.name)
		return nil

	default: // StateHalfOpen
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	}
}

// settle records the outcome of an admitted call.
func (b *Breaker) settle(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probing = false
		if err != nil {
			b.state = StateOpen
			b.openedAt = time.Now()
			slog.Warn("circuit breaker re-opened, probe failed", "name", b.name)
			return
		}
		b.state = StateClosed
		b.failures = 0
		slog.Info("circuit breaker closed after successful probe", "name", b.name)
		return
	}

	if err != nil {
		b.failures++
		if b.failures >= b.threshold {
			b.state = StateOpen
			b.openedAt = time.Now()
			slog.Warn("circuit breaker opened",
				"name", b.name,
				"consecutive_failures", b.failures)
		}
		return
	}
	b.failures = 0
}

// State returns the breaker's current state. An open breaker whose
// cooldown has elapsed reports [StateHalfOpen]; the transition itself
// happens on the next [Breaker.Do].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed and clears failure counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.probing = false
	slog.Info("circuit breaker manually reset", "name", b.name)
}
