package event

import "sync"

// MemorySink keeps events in memory. Intended for tests and in-process
// aggregation; data is lost when the process exits.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
	notes  []string
	closed bool
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements Sink.
func (m *MemorySink) Record(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.events = append(m.events, e)
}

// Note implements Sink.
func (m *MemorySink) Note(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.notes = append(m.notes, text)
}

// Close implements Sink.
func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns a copy of everything recorded so far.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Notes returns a copy of the recorded notes.
func (m *MemorySink) Notes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.notes))
	copy(out, m.notes)
	return out
}

// CountKind returns how many events of the given kind were recorded.
func (m *MemorySink) CountKind(kind Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
