package worker

import (
	"context"
	"errors"
	"time"

	"github.com/valyala/fastrand"

	"github.com/randalmurphal/prioflow/pkg/prioflow"
	"github.com/randalmurphal/prioflow/pkg/prioflow/event"
	"github.com/randalmurphal/prioflow/pkg/prioflow/observability"
)

// Consumer repeatedly removes messages through the channel's interruptible
// path until the token stops or a fatal error occurs.
type Consumer struct {
	id    int
	ch    *prioflow.Channel
	tok   *prioflow.Token
	opts  Options
	rng   fastrand.RNG
	stats Stats
}

// NewConsumer creates a consumer.
func NewConsumer(id int, ch *prioflow.Channel, tok *prioflow.Token, opts Options) *Consumer {
	c := &Consumer{
		id:   id,
		ch:   ch,
		tok:  tok,
		opts: opts.withDefaults(),
	}
	c.rng.Seed(seedFor(c.opts.Seed, event.ActorConsumer, id))
	return c
}

// Stats returns the consumer's counters. Only meaningful after Run has
// returned and the goroutine running it has been joined.
func (c *Consumer) Stats() Stats {
	return c.stats
}

// Run executes the consumer loop. It returns when the token stops or on a
// fatal channel error; a single consumer's failure never stops its peers.
func (c *Consumer) Run(ctx context.Context) {
	ctx, span := c.opts.Spans.StartWorkerSpan(ctx, string(event.ActorConsumer), c.id)
	var runErr error
	defer func() { c.opts.Spans.EndSpanWithError(span, runErr) }()

	observability.LogWorkerStart(c.opts.Logger, string(event.ActorConsumer), c.id)
	c.emit(event.KindConsumerStart, nil, 0)
	defer func() {
		c.emit(event.KindConsumerExit, nil, 0)
		observability.LogWorkerExit(c.opts.Logger, string(event.ActorConsumer), c.id, c.stats.Ops)
	}()

	for !c.tok.Stopped() {
		start := time.Now()
		m, err := c.ch.GetInterruptible(c.tok)
		blocked := time.Since(start)

		switch {
		case err == nil:
			depth := c.ch.Depth()
			c.stats.Ops++
			c.stats.BlockedTotalMS += uint64(blocked.Milliseconds())
			if blocked.Milliseconds() > 0 {
				c.stats.BlockedEvents++
			}
			if depth > c.stats.MaxDepth {
				c.stats.MaxDepth = depth
			}
			c.opts.Metrics.RecordGet(ctx, c.id, blocked, nil)
			c.opts.Metrics.RecordDepth(ctx, depth)
			c.opts.Sink.Record(event.Event{
				TimeMS:    sinceMS(c.opts.Epoch),
				Kind:      event.KindConsumerRead,
				Actor:     event.ActorConsumer,
				ActorID:   c.id,
				Msg:       &m,
				Depth:     depth,
				BlockedMS: blocked.Milliseconds(),
			})

		case errors.Is(err, prioflow.ErrStopped):
			return

		default:
			c.opts.Metrics.RecordGet(ctx, c.id, blocked, err)
			c.emit(event.KindConsumerError, nil, blocked.Milliseconds())
			observability.LogWorkerError(c.opts.Logger, string(event.ActorConsumer), c.id, err)
			runErr = err
			return
		}

		if c.opts.WaitMax > 0 {
			wait := time.Duration(randRange(&c.rng, 0, int(c.opts.WaitMax.Milliseconds()))) * time.Millisecond
			sleepInterruptible(c.tok, wait, c.ch.PollInterval())
		}
	}
}

// emit records a lifecycle event with the current depth.
func (c *Consumer) emit(kind event.Kind, m *prioflow.Message, blockedMS int64) {
	c.opts.Sink.Record(event.Event{
		TimeMS:    sinceMS(c.opts.Epoch),
		Kind:      kind,
		Actor:     event.ActorConsumer,
		ActorID:   c.id,
		Msg:       m,
		Depth:     c.ch.Depth(),
		BlockedMS: blockedMS,
	})
}
