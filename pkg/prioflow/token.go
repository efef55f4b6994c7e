package prioflow

import (
	"errors"
	"sync/atomic"
)

// ErrStopped reports that an interruptible operation observed cancellation
// before its mutation committed. It is a clean outcome, not a failure: the
// operation did not logically occur and all capacity accounting was
// restored before returning.
var ErrStopped = errors.New("prioflow: stopped")

// Token is a one-shot, broadcast cancellation flag shared by any number of
// workers. It transitions not-stopped to stopped exactly once and is
// observed cooperatively: interruptible channel operations and worker
// sleeps re-check it at least once per poll interval, so every blocked
// worker converges within one interval of Stop.
type Token struct {
	stopped atomic.Bool
	done    chan struct{}
}

// NewToken creates a token in the not-stopped state.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Stop transitions the token to stopped. The first call wins; subsequent
// calls are no-ops, so any number of goroutines may race to stop.
func (t *Token) Stop() {
	if t.stopped.CompareAndSwap(false, true) {
		close(t.done)
	}
}

// Stopped reports whether Stop has been called.
func (t *Token) Stopped() bool {
	return t.stopped.Load()
}

// Done returns a channel closed when the token stops. Selecting on it wakes
// blocked waiters immediately instead of at the next poll boundary; the
// poll interval remains the latency bound either way.
func (t *Token) Done() <-chan struct{} {
	return t.done
}
