// Package circuit is a two-state breaker for a primary dependency that has a
// degraded fallback, such as the shared rate limit store.
package circuit

import "sync"

type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// StateChange reports a transition caused by the last recorded outcome.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker opens after FailureThreshold consecutive primary failures and closes
// again after SuccessThreshold consecutive primary successes while open.
// The primary keeps being probed while open.
type Breaker struct {
	mu               sync.Mutex
	state            State
	name             string
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	onChange         func(name string, state State)
}

type Option func(*Breaker)

// WithFailureThreshold defaults to 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold defaults to 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithOnStateChange registers a callback invoked outside the lock on every transition.
func WithOnStateChange(fn func(name string, state State)) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateOpen
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RecordFailure returns useFallback=true while the circuit is open.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	b.mu.Lock()
	b.failureCount++
	b.successCount = 0
	if b.state == StateOpen {
		b.mu.Unlock()
		return true, StateChange{}
	}
	if b.failureCount < b.failureThreshold {
		b.mu.Unlock()
		return false, StateChange{}
	}
	b.state = StateOpen
	b.mu.Unlock()

	b.notify(StateOpen)
	return true, StateChange{Opened: true}
}

// RecordSuccess returns usePrimary=false while the circuit is still recovering.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	b.mu.Lock()
	if b.state == StateClosed {
		b.failureCount = 0
		b.mu.Unlock()
		return true, StateChange{}
	}
	b.successCount++
	if b.successCount < b.successThreshold {
		b.mu.Unlock()
		return false, StateChange{}
	}
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.mu.Unlock()

	b.notify(StateClosed)
	return true, StateChange{Closed: true}
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	wasOpen := b.state == StateOpen
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.mu.Unlock()
	if wasOpen {
		b.notify(StateClosed)
	}
}

func (b *Breaker) notify(state State) {
	if b.onChange != nil {
		b.onChange(b.name, state)
	}
}
