// Package event records producer/consumer run telemetry to pluggable sinks.
//
// Workers and the coordinator emit one Event per lifecycle transition and
// per channel operation. A Sink serializes its own writes internally, so
// callers treat every sink as safe for concurrent use and each record
// appears atomically (no interleaved partial writes).
package event

import (
	"github.com/randalmurphal/prioflow/pkg/prioflow"
)

// Kind names an event. The vocabulary is stable so downstream analysis can
// key on it.
type Kind string

// Event kinds.
const (
	KindProducerStart Kind = "P_START"
	KindProducerWrite Kind = "P_WRITE"
	KindProducerError Kind = "P_ERROR"
	KindProducerExit  Kind = "P_EXIT"

	KindConsumerStart Kind = "C_START"
	KindConsumerRead  Kind = "C_READ"
	KindConsumerError Kind = "C_ERROR"
	KindConsumerExit  Kind = "C_EXIT"

	KindRunStart Kind = "RUN_START"
	KindRunEnd   Kind = "RUN_END"

	// Stop reasons, recorded by the coordinator when it broadcasts
	// cancellation.
	KindStopTimeout   Kind = "STOP_SET_TIMEOUT"
	KindStopCancelled Kind = "STOP_SET_CANCELLED"
	KindStopInitFail  Kind = "STOP_SET_INIT_FAIL"
)

// Actor identifies which side of the channel emitted an event.
type Actor string

// Actor kinds.
const (
	ActorProducer    Actor = "P"
	ActorConsumer    Actor = "C"
	ActorCoordinator Actor = "M"
)

// Event is one recorded occurrence.
type Event struct {
	// TimeMS is milliseconds since the run started.
	TimeMS uint64

	// Kind names the occurrence.
	Kind Kind

	// Actor and ActorID identify the emitter. The coordinator uses ID 0.
	Actor   Actor
	ActorID int

	// Msg is the message involved, if any.
	Msg *prioflow.Message

	// Depth is the channel occupancy observed after the operation.
	Depth int

	// BlockedMS is the wall-clock time the operation spent blocked,
	// bracketing the whole acquire-lock-mutate sequence.
	BlockedMS int64
}

// Sink receives events and free-form notes. Implementations serialize their
// own writes; a nil-safe no-op is available as Discard.
type Sink interface {
	// Record stores one event.
	Record(e Event)

	// Note stores a free-form annotation (run metadata, summaries).
	Note(text string)

	// Close flushes and releases resources. Record and Note after Close
	// are dropped.
	Close() error
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(Event) {}
func (discard) Note(string)  {}
func (discard) Close() error { return nil }

// Multi fans out to several sinks in order.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out sink. Nil entries are skipped.
func NewMulti(sinks ...Sink) *Multi {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Multi{sinks: kept}
}

// Record implements Sink.
func (m *Multi) Record(e Event) {
	for _, s := range m.sinks {
		s.Record(e)
	}
}

// Note implements Sink.
func (m *Multi) Note(text string) {
	for _, s := range m.sinks {
		s.Note(text)
	}
}

// Close closes every sink, returning the first error.
func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
