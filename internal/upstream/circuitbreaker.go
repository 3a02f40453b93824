package upstream

import (
	"sync"
	"time"
)

// BreakerState is the state of one upstream's circuit.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	defaultHalfOpenSuccess  = 2
)

type upstreamState struct {
	state                BreakerState
	consecutiveFailures  int
	consecutiveSuccesses int
	openUntil            time.Time
}

// Breaker tracks upstream health per named provider and short-circuits
// calls while a provider is considered down. In-memory only; each process
// observes its own failures.
type Breaker struct {
	mu               sync.Mutex
	upstreams        map[string]*upstreamState
	failureThreshold int
	openTimeout      time.Duration
	halfOpenSuccess  int
	now              func() time.Time
}

// NewBreaker creates a Breaker with default thresholds.
func NewBreaker() *Breaker {
	return &Breaker{
		upstreams:        make(map[string]*upstreamState),
		failureThreshold: defaultFailureThreshold,
		openTimeout:      defaultOpenTimeout,
		halfOpenSuccess:  defaultHalfOpenSuccess,
		now:              time.Now,
	}
}

// NewBreakerWithSettings creates a Breaker with custom thresholds.
func NewBreakerWithSettings(failThreshold int, openTimeout time.Duration, halfOpenSuccess int) *Breaker {
	b := NewBreaker()
	b.failureThreshold = failThreshold
	b.openTimeout = openTimeout
	b.halfOpenSuccess = halfOpenSuccess
	return b
}

func (b *Breaker) state(name string) *upstreamState {
	us, ok := b.upstreams[name]
	if !ok {
		us = &upstreamState{state: Closed}
		b.upstreams[name] = us
	}
	return us
}

// Allow reports whether a request to the named upstream may proceed,
// transitioning Open circuits to HalfOpen once the open timeout passes.
func (b *Breaker) Allow(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	us := b.state(name)
	switch us.state {
	case Closed, HalfOpen:
		return true
	case Open:
		if b.now().After(us.openUntil) {
			us.state = HalfOpen
			us.consecutiveSuccesses = 0
			return true
		}
		return false
	}
	return true
}

// RecordFailure notes a failed exchange with the named upstream.
func (b *Breaker) RecordFailure(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	us := b.state(name)
	switch us.state {
	case Closed:
		us.consecutiveFailures++
		if us.consecutiveFailures >= b.failureThreshold {
			us.state = Open
			us.openUntil = b.now().Add(b.openTimeout)
		}
	case HalfOpen:
		us.state = Open
		us.openUntil = b.now().Add(b.openTimeout)
		us.consecutiveFailures = 0
		us.consecutiveSuccesses = 0
	}
}

// RecordSuccess notes a successful exchange with the named upstream.
func (b *Breaker) RecordSuccess(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	us := b.state(name)
	switch us.state {
	case Closed:
		us.consecutiveFailures = 0
	case HalfOpen:
		us.consecutiveSuccesses++
		if us.consecutiveSuccesses >= b.halfOpenSuccess {
			us.state = Closed
			us.consecutiveFailures = 0
			us.consecutiveSuccesses = 0
		}
	}
}

// State returns the current circuit state for monitoring and tests. It
// does not trigger Open→HalfOpen transitions.
func (b *Breaker) State(name string) BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	us, ok := b.upstreams[name]
	if !ok {
		return Closed
	}
	return us.state
}
