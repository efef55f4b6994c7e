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

// Producer repeatedly synthesizes messages and puts them through the
// channel's interruptible path until the token stops or a fatal error
// occurs. A producer's priority is fixed at construction; its values are
// randomized per message.
type Producer struct {
	id       int
	priority int
	ch       *prioflow.Channel
	tok      *prioflow.Token
	opts     Options
	rng      fastrand.RNG
	stats    Stats
}

// NewProducer creates a producer with a fixed priority.
func NewProducer(id, priority int, ch *prioflow.Channel, tok *prioflow.Token, opts Options) *Producer {
	p := &Producer{
		id:       id,
		priority: priority,
		ch:       ch,
		tok:      tok,
		opts:     opts.withDefaults(),
	}
	p.rng.Seed(seedFor(p.opts.Seed, event.ActorProducer, id))
	return p
}

// Stats returns the producer's counters. Only meaningful after Run has
// returned and the goroutine running it has been joined.
func (p *Producer) Stats() Stats {
	return p.stats
}

// Run executes the producer loop. It returns when the token stops or on a
// fatal channel error; a single producer's failure never stops its peers.
func (p *Producer) Run(ctx context.Context) {
	ctx, span := p.opts.Spans.StartWorkerSpan(ctx, string(event.ActorProducer), p.id)
	var runErr error
	defer func() { p.opts.Spans.EndSpanWithError(span, runErr) }()

	observability.LogWorkerStart(p.opts.Logger, string(event.ActorProducer), p.id)
	p.emit(event.KindProducerStart, nil, 0)
	defer func() {
		p.emit(event.KindProducerExit, nil, 0)
		observability.LogWorkerExit(p.opts.Logger, string(event.ActorProducer), p.id, p.stats.Ops)
	}()

	for !p.tok.Stopped() {
		m := prioflow.Message{
			Value:      randRange(&p.rng, p.opts.ValueMin, p.opts.ValueMax),
			Priority:   p.priority,
			ProducerID: p.id,
		}

		// Blocked time is the whole put bracket: resource wait plus the
		// brief critical section.
		start := time.Now()
		err := p.ch.PutInterruptible(m, p.tok)
		blocked := time.Since(start)

		switch {
		case err == nil:
			depth := p.ch.Depth()
			p.stats.Ops++
			p.stats.BlockedTotalMS += uint64(blocked.Milliseconds())
			if blocked.Milliseconds() > 0 {
				p.stats.BlockedEvents++
			}
			if depth > p.stats.MaxDepth {
				p.stats.MaxDepth = depth
			}
			p.opts.Metrics.RecordPut(ctx, p.id, blocked, nil)
			p.opts.Metrics.RecordDepth(ctx, depth)
			p.opts.Sink.Record(event.Event{
				TimeMS:    sinceMS(p.opts.Epoch),
				Kind:      event.KindProducerWrite,
				Actor:     event.ActorProducer,
				ActorID:   p.id,
				Msg:       &m,
				Depth:     depth,
				BlockedMS: blocked.Milliseconds(),
			})

		case errors.Is(err, prioflow.ErrStopped):
			return

		default:
			p.opts.Metrics.RecordPut(ctx, p.id, blocked, err)
			p.emit(event.KindProducerError, &m, blocked.Milliseconds())
			observability.LogWorkerError(p.opts.Logger, string(event.ActorProducer), p.id, err)
			runErr = err
			return
		}

		if p.opts.WaitMax > 0 {
			wait := time.Duration(randRange(&p.rng, 0, int(p.opts.WaitMax.Milliseconds()))) * time.Millisecond
			sleepInterruptible(p.tok, wait, p.ch.PollInterval())
		}
	}
}

// emit records a lifecycle event with the current depth.
func (p *Producer) emit(kind event.Kind, m *prioflow.Message, blockedMS int64) {
	p.opts.Sink.Record(event.Event{
		TimeMS:    sinceMS(p.opts.Epoch),
		Kind:      kind,
		Actor:     event.ActorProducer,
		ActorID:   p.id,
		Msg:       m,
		Depth:     p.ch.Depth(),
		BlockedMS: blockedMS,
	})
}
