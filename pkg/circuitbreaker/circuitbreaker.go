package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is cooling down after too many
// consecutive failures.
var ErrOpen = errors.New("circuit open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// Breaker guards one outbound dependency. After maxFailures consecutive
// failures it rejects calls for the cooldown period, then lets a single
// probe call through; a successful probe closes it again, a failed one
// reopens it.
type Breaker struct {
	maxFailures int
	cooldown    time.Duration

	mu          sync.Mutex
	state       state
	failures    int
	lastFailure time.Time
}

func New(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{maxFailures: maxFailures, cooldown: cooldown}
}

func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.state == stateOpen {
		if time.Since(b.lastFailure) < b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = stateHalfOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == stateHalfOpen || b.failures >= b.maxFailures {
			b.state = stateOpen
		}
		return err
	}

	b.state = stateClosed
	b.failures = 0
	return nil
}
