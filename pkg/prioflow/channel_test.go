package prioflow

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/randalmurphal/prioflow/pkg/prioflow/errors"
)

// TestNewValidation verifies construction rejects bad capacities.
func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{
		{"zero", 0, true},
		{"negative", -3, true},
		{"one", 1, false},
		{"typical", 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := New(tt.capacity)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, perrors.IsKind(err, perrors.KindInvalidArgument))
				assert.Nil(t, ch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.capacity, ch.Capacity())
			assert.Equal(t, 0, ch.Depth())
		})
	}
}

// TestChannelDepthBounds verifies 0 <= depth <= capacity at every
// observable point across a mixed put/get sequence.
func TestChannelDepthBounds(t *testing.T) {
	ch, err := New(3)
	require.NoError(t, err)

	check := func() {
		d := ch.Depth()
		assert.GreaterOrEqual(t, d, 0)
		assert.LessOrEqual(t, d, 3)
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, ch.Put(Message{Value: i, Priority: i}))
		check()
	}
	for i := 0; i < 2; i++ {
		_, err := ch.Get()
		require.NoError(t, err)
		check()
	}
	require.NoError(t, ch.Put(Message{Value: 9, Priority: 9}))
	check()
}

// TestChannelAccounting verifies the semaphores track the container state
// through successful operations.
func TestChannelAccounting(t *testing.T) {
	ch, err := New(4)
	require.NoError(t, err)

	assertConsistent := func() {
		slots := ch.sync.slots.available()
		items := ch.sync.items.available()
		assert.Equal(t, 4, slots+items, "slots + items must equal capacity")
		assert.Equal(t, ch.Depth(), items, "items must match occupancy")
	}

	assertConsistent()
	require.NoError(t, ch.Put(Message{Value: 1}))
	require.NoError(t, ch.Put(Message{Value: 2}))
	assertConsistent()

	_, err = ch.Get()
	require.NoError(t, err)
	assertConsistent()
}

// TestChannelPriorityDelivery verifies Get returns priority-then-insertion
// order through the full facade.
func TestChannelPriorityDelivery(t *testing.T) {
	ch, err := New(3)
	require.NoError(t, err)

	require.NoError(t, ch.Put(Message{Value: 1, Priority: 5}))
	require.NoError(t, ch.Put(Message{Value: 2, Priority: 5}))
	require.NoError(t, ch.Put(Message{Value: 3, Priority: 9}))

	want := []int{3, 1, 2}
	for _, v := range want {
		m, err := ch.Get()
		require.NoError(t, err)
		assert.Equal(t, v, m.Value)
	}
}

// TestGetBlocksUntilPut verifies a Get on an empty channel does not return
// until a concurrent Put completes.
func TestGetBlocksUntilPut(t *testing.T) {
	ch, err := New(2)
	require.NoError(t, err)

	got := make(chan Message, 1)
	go func() {
		m, err := ch.Get()
		if err == nil {
			got <- m
		}
	}()

	select {
	case <-got:
		t.Fatal("get returned from an empty channel")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, ch.Put(Message{Value: 7}))

	select {
	case m := <-got:
		assert.Equal(t, 7, m.Value)
	case <-time.After(time.Second):
		t.Fatal("get did not complete after put")
	}
}

// TestPutBlocksUntilGet verifies a Put on a full channel does not return
// until a concurrent Get completes.
func TestPutBlocksUntilGet(t *testing.T) {
	ch, err := New(1)
	require.NoError(t, err)
	require.NoError(t, ch.Put(Message{Value: 1}))

	done := make(chan struct{})
	go func() {
		_ = ch.Put(Message{Value: 2})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("put returned against a full channel")
	case <-time.After(50 * time.Millisecond):
	}

	_, err = ch.Get()
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("put did not complete after get")
	}
}

// TestCapacityOneDoublePut verifies the two-producer scenario: exactly one
// put returns immediately, the other stays suspended until a get, after
// which the channel again holds exactly one message.
func TestCapacityOneDoublePut(t *testing.T) {
	ch, err := New(1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	completed := make(chan int, 2)
	for i := 1; i <= 2; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if err := ch.Put(Message{Value: v}); err == nil {
				completed <- v
			}
		}(i)
	}

	// One put wins promptly, the other stays blocked.
	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("no put completed")
	}
	select {
	case <-completed:
		t.Fatal("both puts completed against capacity 1")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, ch.Depth())

	_, err = ch.Get()
	require.NoError(t, err)

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("second put never completed after get")
	}
	wg.Wait()

	assert.Equal(t, 1, ch.Depth(), "channel holds exactly the second message")
}

// TestInterruptibleNilToken verifies the nil-token guard.
func TestInterruptibleNilToken(t *testing.T) {
	ch, err := New(1)
	require.NoError(t, err)

	err = ch.PutInterruptible(Message{}, nil)
	assert.True(t, perrors.IsKind(err, perrors.KindInvalidArgument))

	_, err = ch.GetInterruptible(nil)
	assert.True(t, perrors.IsKind(err, perrors.KindInvalidArgument))
}

// TestInterruptibleRoundTrip verifies the interruptible path moves messages
// when the token never stops.
func TestInterruptibleRoundTrip(t *testing.T) {
	ch, err := New(2, WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)
	tok := NewToken()

	require.NoError(t, ch.PutInterruptible(Message{Value: 1, Priority: 2}, tok))
	require.NoError(t, ch.PutInterruptible(Message{Value: 2, Priority: 8}, tok))

	m, err := ch.GetInterruptible(tok)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Value)

	m, err = ch.GetInterruptible(tok)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Value)
}

// TestInterruptibleStoppedBeforeWait verifies an already-stopped token
// short-circuits without touching the accounting.
func TestInterruptibleStoppedBeforeWait(t *testing.T) {
	ch, err := New(2)
	require.NoError(t, err)
	tok := NewToken()
	tok.Stop()

	err = ch.PutInterruptible(Message{Value: 1}, tok)
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, 2, ch.sync.slots.available())

	_, err = ch.GetInterruptible(tok)
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, 0, ch.sync.items.available())
	assert.Equal(t, 0, ch.Depth())
}

// TestTokenConservationOnCancel verifies cancellation after a resource was
// acquired but before the mutation restores the resource count exactly.
func TestTokenConservationOnCancel(t *testing.T) {
	ch, err := New(1, WithPollInterval(30*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, ch.Put(Message{Value: 1}))

	slotsBefore := ch.sync.slots.available()
	itemsBefore := ch.sync.items.available()

	tok := NewToken()
	done := make(chan error, 1)
	go func() {
		// Channel is full: this waits on a slot until the stop lands.
		done <- ch.PutInterruptible(Message{Value: 2}, tok)
	}()

	time.Sleep(10 * time.Millisecond)
	tok.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("interruptible put did not observe stop")
	}

	assert.Equal(t, slotsBefore, ch.sync.slots.available())
	assert.Equal(t, itemsBefore, ch.sync.items.available())
	assert.Equal(t, 1, ch.Depth())
}

// TestBoundedShutdownLatency verifies a blocked interruptible get returns
// within one poll interval of the stop, plus scheduler slack.
func TestBoundedShutdownLatency(t *testing.T) {
	const poll = 50 * time.Millisecond

	ch, err := New(3, WithPollInterval(poll))
	require.NoError(t, err)
	tok := NewToken()

	returned := make(chan time.Time, 1)
	go func() {
		_, _ = ch.GetInterruptible(tok)
		returned <- time.Now()
	}()

	time.Sleep(20 * time.Millisecond)
	stopAt := time.Now()
	tok.Stop()

	select {
	case at := <-returned:
		assert.Less(t, at.Sub(stopAt), poll+100*time.Millisecond)
	case <-time.After(2 * poll):
		t.Fatal("worker did not observe stop within the poll interval")
	}
}

// TestPrioritizedDrainThenCancelledGet runs the end-to-end scenario:
// capacity 3 with priorities [5, 5, 9] drains in priority order, then an
// interruptible get against the now-empty channel with cancellation
// requested immediately returns ErrStopped within one poll interval.
func TestPrioritizedDrainThenCancelledGet(t *testing.T) {
	const poll = 50 * time.Millisecond

	ch, err := New(3, WithPollInterval(poll))
	require.NoError(t, err)
	tok := NewToken()

	require.NoError(t, ch.PutInterruptible(Message{Value: 1, Priority: 5}, tok))
	require.NoError(t, ch.PutInterruptible(Message{Value: 2, Priority: 5}, tok))
	require.NoError(t, ch.PutInterruptible(Message{Value: 3, Priority: 9}, tok))

	for _, want := range []int{3, 1, 2} {
		m, err := ch.GetInterruptible(tok)
		require.NoError(t, err)
		assert.Equal(t, want, m.Value)
	}

	tok.Stop()
	start := time.Now()
	_, err = ch.GetInterruptible(tok)
	assert.ErrorIs(t, err, ErrStopped)
	assert.Less(t, time.Since(start), poll+100*time.Millisecond)
}

// TestConcurrentProducersConsumers hammers the channel from both sides and
// verifies nothing is lost or duplicated.
func TestConcurrentProducersConsumers(t *testing.T) {
	const (
		producers   = 4
		consumers   = 3
		perProducer = 50
	)

	ch, err := New(5, WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)
	tok := NewToken()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				m := Message{Value: id*perProducer + i, Priority: i % 10, ProducerID: id}
				if err := ch.PutInterruptible(m, tok); err != nil {
					return
				}
			}
		}(p)
	}

	var mu sync.Mutex
	seen := make(map[int]int)
	var cwg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				m, err := ch.GetInterruptible(tok)
				if err != nil {
					return
				}
				mu.Lock()
				seen[m.Value]++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	// Give the consumers a moment to drain, then stop everyone.
	deadline := time.Now().Add(2 * time.Second)
	for ch.Depth() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	tok.Stop()
	cwg.Wait()

	assert.Len(t, seen, producers*perProducer)
	for v, n := range seen {
		assert.Equal(t, 1, n, "message %d delivered %d times", v, n)
	}
	assert.Equal(t, 0, ch.Depth())
}
