package event_test

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/randalmurphal/prioflow/pkg/prioflow"
	"github.com/randalmurphal/prioflow/pkg/prioflow/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemorySink verifies recording, notes, and close semantics.
func TestMemorySink(t *testing.T) {
	m := event.NewMemorySink()

	m.Record(event.Event{Kind: event.KindProducerWrite, Actor: event.ActorProducer, ActorID: 1})
	m.Record(event.Event{Kind: event.KindConsumerRead, Actor: event.ActorConsumer, ActorID: 0})
	m.Note("hello")

	assert.Len(t, m.Events(), 2)
	assert.Equal(t, []string{"hello"}, m.Notes())
	assert.Equal(t, 1, m.CountKind(event.KindProducerWrite))
	assert.Equal(t, 0, m.CountKind(event.KindRunEnd))

	require.NoError(t, m.Close())
	m.Record(event.Event{Kind: event.KindRunEnd})
	m.Note("dropped")
	assert.Len(t, m.Events(), 2, "records after close are dropped")
	assert.Len(t, m.Notes(), 1)
}

// TestMemorySinkConcurrent verifies concurrent records all land.
func TestMemorySinkConcurrent(t *testing.T) {
	m := event.NewMemorySink()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Record(event.Event{Kind: event.KindProducerWrite, ActorID: id})
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.Events(), 800)
}

// TestMultiSink verifies fan-out and nil skipping.
func TestMultiSink(t *testing.T) {
	a := event.NewMemorySink()
	b := event.NewMemorySink()
	multi := event.NewMulti(a, nil, b)

	multi.Record(event.Event{Kind: event.KindRunStart})
	multi.Note("meta")

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
	assert.Len(t, a.Notes(), 1)

	require.NoError(t, multi.Close())
}

// TestDiscard verifies the no-op sink accepts everything.
func TestDiscard(t *testing.T) {
	event.Discard.Record(event.Event{Kind: event.KindRunStart})
	event.Discard.Note("ignored")
	assert.NoError(t, event.Discard.Close())
}

// TestSlogSink verifies events land on the logger with their fields.
func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := event.NewSlogSink(logger)

	s.Record(event.Event{
		TimeMS:  42,
		Kind:    event.KindProducerWrite,
		Actor:   event.ActorProducer,
		ActorID: 2,
		Msg:     &prioflow.Message{Value: 7, Priority: 9, ProducerID: 2, Seq: 3},
		Depth:   1,
	})
	s.Note("run summary")

	out := buf.String()
	assert.Contains(t, out, "P_WRITE")
	assert.Contains(t, out, "actor_id=2")
	assert.Contains(t, out, "priority=9")
	assert.Contains(t, out, "run summary")
	assert.NoError(t, s.Close())
}
