package prioflow

import (
	"fmt"
	"log/slog"
	"time"

	perrors "github.com/randalmurphal/prioflow/pkg/prioflow/errors"
)

// Channel is a bounded, priority-ordered, multi-producer/multi-consumer
// channel. It composes a priority container with a synchronization layer:
// the container is only ever mutated under the lock, and the slots/items
// semaphores provide the flow control that makes Put block on a full
// channel and Get block on an empty one.
//
// All methods are safe for concurrent use. Capacity is fixed at
// construction.
type Channel struct {
	q    *queue
	sync *syncLayer

	pollInterval time.Duration
	logger       *slog.Logger
}

// New creates a channel with the given fixed capacity.
// Returns a KindInvalidArgument error when capacity is not positive; on any
// construction failure no partial channel is left usable.
func New(capacity int, opts ...Option) (*Channel, error) {
	if capacity <= 0 {
		return nil, perrors.InvalidArgument(nil,
			fmt.Sprintf("capacity must be positive, got %d", capacity))
	}

	cfg := defaultChannelConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Channel{
		q:            newQueue(capacity),
		sync:         newSyncLayer(capacity),
		pollInterval: cfg.pollInterval,
		logger:       cfg.logger,
	}, nil
}

// Capacity returns the fixed capacity.
func (c *Channel) Capacity() int {
	return c.q.capacity
}

// PollInterval returns the cancellation poll interval used by the
// interruptible operations.
func (c *Channel) PollInterval() time.Duration {
	return c.pollInterval
}

// Depth returns the current occupancy. Advisory only: the value may be
// stale immediately after the lock is released, so it is for observability,
// never for flow-control decisions.
func (c *Channel) Depth() int {
	var n int
	c.sync.withLock(func() {
		n = c.q.len()
	})
	return n
}

// Put inserts a message, blocking while the channel is full.
//
// Resource acquisition always precedes the lock, and the critical section
// never waits on a resource, so no goroutine can hold the lock while
// blocked.
func (c *Channel) Put(m Message) error {
	c.sync.slots.acquire()
	slot := c.sync.slots.hold()

	var pushErr error
	c.sync.withLock(func() {
		pushErr = c.q.push(m)
	})

	if pushErr != nil {
		// A slot was acquired yet the container reported full: the
		// accounting diverged from the container. Restore the slot and
		// surface it rather than silently losing capacity.
		slot.release()
		return c.logicError(pushErr, "push after acquired slot")
	}

	slot.commit()
	c.sync.items.release()
	return nil
}

// Get removes and returns the highest-priority message (earliest inserted
// among equals), blocking while the channel is empty.
func (c *Channel) Get() (Message, error) {
	c.sync.items.acquire()
	item := c.sync.items.hold()

	var (
		m      Message
		popErr error
	)
	c.sync.withLock(func() {
		m, popErr = c.q.pop()
	})

	if popErr != nil {
		item.release()
		return Message{}, c.logicError(popErr, "pop after acquired item")
	}

	item.commit()
	c.sync.slots.release()
	return m, nil
}

// PutInterruptible inserts a message, blocking while the channel is full
// but observing tok at least once per poll interval.
//
// Outcomes: nil on success, ErrStopped when cancellation was observed
// before the insertion committed (the acquired slot, if any, has been
// restored), or a classified error on an internal failure.
func (c *Channel) PutInterruptible(m Message, tok *Token) error {
	if tok == nil {
		return perrors.InvalidArgument(nil, "put: nil token")
	}

	for {
		switch c.sync.slots.acquireOrStop(c.pollInterval, tok) {
		case waitStopped:
			// Nothing held, nothing to undo.
			return ErrStopped
		case waitTimedOut:
			if tok.Stopped() {
				return ErrStopped
			}
			continue
		case waitAcquired:
		}

		slot := c.sync.slots.hold()

		// The token may have stopped between the wait firing and now.
		if tok.Stopped() {
			slot.release()
			return ErrStopped
		}

		var (
			pushErr error
			stopped bool
		)
		c.sync.withLock(func() {
			// Last checkpoint: stop requested while waiting for the lock.
			if tok.Stopped() {
				stopped = true
				return
			}
			pushErr = c.q.push(m)
		})

		if stopped {
			slot.release()
			return ErrStopped
		}
		if pushErr != nil {
			slot.release()
			return c.logicError(pushErr, "push after acquired slot")
		}

		slot.commit()
		c.sync.items.release()
		return nil
	}
}

// GetInterruptible removes and returns the highest-priority message,
// blocking while the channel is empty but observing tok at least once per
// poll interval. Outcomes mirror PutInterruptible.
func (c *Channel) GetInterruptible(tok *Token) (Message, error) {
	if tok == nil {
		return Message{}, perrors.InvalidArgument(nil, "get: nil token")
	}

	for {
		switch c.sync.items.acquireOrStop(c.pollInterval, tok) {
		case waitStopped:
			return Message{}, ErrStopped
		case waitTimedOut:
			if tok.Stopped() {
				return Message{}, ErrStopped
			}
			continue
		case waitAcquired:
		}

		item := c.sync.items.hold()

		if tok.Stopped() {
			item.release()
			return Message{}, ErrStopped
		}

		var (
			m       Message
			popErr  error
			stopped bool
		)
		c.sync.withLock(func() {
			if tok.Stopped() {
				stopped = true
				return
			}
			m, popErr = c.q.pop()
		})

		if stopped {
			item.release()
			return Message{}, ErrStopped
		}
		if popErr != nil {
			item.release()
			return Message{}, c.logicError(popErr, "pop after acquired item")
		}

		item.commit()
		c.sync.slots.release()
		return m, nil
	}
}

// logicError wraps an invariant violation, logging it when a logger is
// attached. Expected unreachable under correct usage.
func (c *Channel) logicError(err error, context string) error {
	if c.logger != nil {
		c.logger.Error("channel invariant violated",
			slog.String("context", context),
			slog.String("error", err.Error()),
		)
	}
	return perrors.Logic(err, context)
}
