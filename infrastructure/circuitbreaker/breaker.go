// Package circuitbreaker stops calling a failing collaborator for a cool-down
// period after repeated failures.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State of the breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
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

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 2
	defaultTimeout          = 30 * time.Second
)

// Config configures a Breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that closes it again.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// OnStateChange, if set, is called with the lock held; keep it cheap.
	OnStateChange func(from, to State)
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	config          Config
	now             func() time.Time
}

// New creates a closed breaker.
func New(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaultFailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaultSuccessThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &Breaker{
		state:  StateClosed,
		config: config,
		now:    time.Now,
	}
}

// Execute runs fn unless the circuit is open. Context cancellation is not
// counted as a collaborator failure.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn()
	if err != nil && ctx.Err() != nil {
		return err
	}

	b.afterCall(err)
	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		elapsed := b.now().Sub(b.lastFailureTime)
		if elapsed < b.config.Timeout {
			return fmt.Errorf("%w: retry in %v", ErrCircuitOpen, b.config.Timeout-elapsed)
		}
		b.transitionTo(StateHalfOpen)
	}
	return nil
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failureCount++
		b.lastFailureTime = b.now()
		if b.state == StateHalfOpen || b.failureCount >= b.config.FailureThreshold {
			b.transitionTo(StateOpen)
		}
		return
	}

	b.failureCount = 0
	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

func (b *Breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState
	b.successCount = 0
	if newState != StateHalfOpen {
		b.failureCount = 0
	}

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, newState)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
