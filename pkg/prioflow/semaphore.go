package prioflow

import "time"

// waitOutcome is the result of a bounded semaphore wait.
type waitOutcome int

const (
	waitAcquired waitOutcome = iota
	waitTimedOut
	waitStopped
)

// semaphore is a counting resource built on a buffered channel of tokens.
// A receive acquires one unit, a send releases one. The buffer size is the
// channel capacity, so the available count can never exceed it.
type semaphore struct {
	tokens chan struct{}
}

// newSemaphore creates a semaphore bounded by capacity with initial units
// available.
func newSemaphore(capacity, initial int) *semaphore {
	s := &semaphore{tokens: make(chan struct{}, capacity)}
	for i := 0; i < initial; i++ {
		s.tokens <- struct{}{}
	}
	return s
}

// acquire blocks until one unit is available and takes it.
func (s *semaphore) acquire() {
	<-s.tokens
}

// acquireTimeout takes one unit, waiting at most d.
// Returns false on timeout.
func (s *semaphore) acquireTimeout(d time.Duration) bool {
	select {
	case <-s.tokens:
		return true
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.tokens:
		return true
	case <-timer.C:
		return false
	}
}

// acquireOrStop takes one unit, waiting at most d, and additionally wakes
// the moment tok stops. The caller still re-checks the token after an
// acquisition: the token may stop between the select firing and the caller
// acting on the unit.
func (s *semaphore) acquireOrStop(d time.Duration, tok *Token) waitOutcome {
	if tok.Stopped() {
		return waitStopped
	}

	select {
	case <-s.tokens:
		return waitAcquired
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.tokens:
		return waitAcquired
	case <-timer.C:
		return waitTimedOut
	case <-tok.Done():
		return waitStopped
	}
}

// release returns one unit. Releasing more units than the capacity means an
// acquire/release pairing was violated somewhere; that corrupts capacity
// accounting, so it panics rather than silently blocking.
func (s *semaphore) release() {
	select {
	case s.tokens <- struct{}{}:
	default:
		panic("prioflow: semaphore released above capacity")
	}
}

// available returns the current unit count. Advisory: the value may be
// stale by the time the caller looks at it.
func (s *semaphore) available() int {
	return len(s.tokens)
}

// guard owns one acquired unit and guarantees it is returned at most once.
// Call release on every exit path (typically via defer); call commit once
// the matching container mutation has happened, which disarms the release.
type guard struct {
	sem  *semaphore
	done bool
}

// hold wraps an already-acquired unit in a guard.
func (s *semaphore) hold() *guard {
	return &guard{sem: s}
}

// commit marks the unit as consumed by a successful mutation.
func (g *guard) commit() {
	g.done = true
}

// release returns the unit unless commit already consumed it.
func (g *guard) release() {
	if !g.done {
		g.done = true
		g.sem.release()
	}
}
