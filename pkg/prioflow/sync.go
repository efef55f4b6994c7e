package prioflow

import "sync"

// syncLayer pairs the container's mutual-exclusion lock with the two
// counting resources that mirror its state: slots (free capacity, starts
// full) and items (resident messages, starts empty).
//
// Invariant: whenever no goroutine holds an acquired-but-uncommitted unit,
// slots.available() + items.available() == capacity and items matches the
// container occupancy. Every successful acquire must be followed by exactly
// one of: a container mutation plus a release of the OTHER resource, or a
// release of the SAME resource if the mutation did not happen. The guard
// type enforces the single-release half of that contract.
type syncLayer struct {
	mu    sync.Mutex
	slots *semaphore
	items *semaphore
}

// newSyncLayer creates the layer for a container of the given capacity.
func newSyncLayer(capacity int) *syncLayer {
	return &syncLayer{
		slots: newSemaphore(capacity, capacity),
		items: newSemaphore(capacity, 0),
	}
}

// withLock runs fn with exclusive access to the container. The lock is
// released on every exit path, including a panic inside fn.
//
// fn must never wait on slots or items: resource acquisition always happens
// before the lock is taken, which is what makes holding the lock while
// blocked on a resource impossible.
func (s *syncLayer) withLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}
