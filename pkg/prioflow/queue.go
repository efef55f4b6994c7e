package prioflow

import "errors"

// Sentinel errors for the raw container. Callers of the Channel API never
// see these under correct usage; the semaphores guarantee a slot or item
// exists before push or pop runs.
var (
	// ErrFull indicates a push against a container already at capacity.
	ErrFull = errors.New("prioflow: queue full")

	// ErrEmpty indicates a pop against a container with no entries.
	ErrEmpty = errors.New("prioflow: queue empty")
)

// queue is the bounded priority container behind a Channel.
//
// It is NOT safe for concurrent use. The Channel serializes every push and
// pop under its lock; nothing else may touch a queue.
//
// Insertion appends; removal selects the entry with the highest priority,
// breaking ties by lowest seq (earliest inserted). Selection is a linear
// scan, fine for the small bounded capacities this package targets.
type queue struct {
	entries  []Message
	capacity int
	nextSeq  uint64
}

// newQueue creates a container with the given fixed capacity.
// The caller validates capacity; this constructor assumes capacity > 0.
func newQueue(capacity int) *queue {
	return &queue{
		entries:  make([]Message, 0, capacity),
		capacity: capacity,
		nextSeq:  1,
	}
}

// len returns the current occupancy.
func (q *queue) len() int {
	return len(q.entries)
}

// full reports whether the container is at capacity.
func (q *queue) full() bool {
	return len(q.entries) >= q.capacity
}

// push appends a message, assigning its sequence number.
// Returns ErrFull when the container is at capacity.
func (q *queue) push(m Message) error {
	if q.full() {
		return ErrFull
	}
	m.Seq = q.nextSeq
	q.nextSeq++
	q.entries = append(q.entries, m)
	return nil
}

// pop removes and returns the highest-priority message, lowest seq first
// among equals. Returns ErrEmpty when no entries are resident.
func (q *queue) pop() (Message, error) {
	if len(q.entries) == 0 {
		return Message{}, ErrEmpty
	}

	best := 0
	for i := 1; i < len(q.entries); i++ {
		if q.entries[i].Priority > q.entries[best].Priority {
			best = i
		} else if q.entries[i].Priority == q.entries[best].Priority &&
			q.entries[i].Seq < q.entries[best].Seq {
			best = i
		}
	}

	m := q.entries[best]
	q.entries = append(q.entries[:best], q.entries[best+1:]...)
	return m, nil
}
