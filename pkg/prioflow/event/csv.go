package event

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// csvHeader is the stable row schema. Analysis tooling keys on it, so it
// never changes shape.
const csvHeader = "time_ms,event,actor_type,actor_id,value,priority,producer_id,q_count,blocked_ms"

// CSVSink writes one CSV row per event. Metadata and notes are written as
// '#'-prefixed comment lines, which CSV parsers skip but humans and analysis
// scripts can read.
type CSVSink struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	closed bool
}

// NewCSVSink creates (truncating) the file at path and writes the metadata
// comment lines followed by the header row.
func NewCSVSink(path string, meta ...string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv log: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, m := range meta {
		fmt.Fprintf(w, "# %s\n", m)
	}
	fmt.Fprintln(w, csvHeader)
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	return &CSVSink{f: f, w: w}, nil
}

// Record implements Sink. Rows from concurrent callers never interleave.
func (s *CSVSink) Record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	// Absent message fields are recorded as -1, keeping the column count
	// stable for every row.
	value, priority, producer := -1, -1, -1
	if e.Msg != nil {
		value = e.Msg.Value
		priority = e.Msg.Priority
		producer = e.Msg.ProducerID
	}

	fmt.Fprintf(s.w, "%d,%s,%s,%d,%d,%d,%d,%d,%d\n",
		e.TimeMS, e.Kind, e.Actor, e.ActorID,
		value, priority, producer,
		e.Depth, e.BlockedMS)
}

// Note implements Sink.
func (s *CSVSink) Note(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fmt.Fprintf(s.w, "# %s\n", text)
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("flush csv log: %w", err)
	}
	return s.f.Close()
}
