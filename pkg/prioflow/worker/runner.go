package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/prioflow/pkg/prioflow"
	"github.com/randalmurphal/prioflow/pkg/prioflow/config"
	"github.com/randalmurphal/prioflow/pkg/prioflow/event"
	"github.com/randalmurphal/prioflow/pkg/prioflow/observability"
)

// prioritySpace is the range of producer priorities: producer i gets
// priority i % prioritySpace, so small pools still exercise distinct
// priorities deterministically.
const prioritySpace = 10

// Runner coordinates one producer/consumer run over a shared channel.
type Runner struct {
	params  config.Params
	sink    event.Sink
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	logger  *slog.Logger
	seed    uint32
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSink directs run events to the given sink.
// Default: events are discarded.
func WithSink(s event.Sink) RunnerOption {
	return func(r *Runner) {
		if s != nil {
			r.sink = s
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m observability.MetricsRecorder) RunnerOption {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithSpans attaches a span manager for tracing.
func WithSpans(s observability.SpanManager) RunnerOption {
	return func(r *Runner) {
		if s != nil {
			r.spans = s
		}
	}
}

// WithRunLogger attaches a structured logger.
func WithRunLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithSeed fixes the base RNG seed, making worker value and sleep streams
// reproducible.
func WithSeed(seed uint32) RunnerOption {
	return func(r *Runner) {
		r.seed = seed
	}
}

// NewRunner validates params and prepares a run. No goroutine is started
// and no channel is constructed until Run.
func NewRunner(params config.Params, opts ...RunnerOption) (*Runner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		params:  params,
		sink:    event.Discard,
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Summary aggregates the per-worker statistics of one completed run.
type Summary struct {
	RunID string

	ProducedOps uint64
	ConsumedOps uint64

	ProducerBlockedMS     uint64
	ProducerBlockedEvents uint64
	ConsumerBlockedMS     uint64
	ConsumerBlockedEvents uint64

	// MaxDepth is the largest occupancy any worker observed.
	MaxDepth int

	// FinalDepth is the occupancy after every worker was joined.
	FinalDepth int

	Runtime time.Duration

	// Throughput is consumed messages per second.
	Throughput float64

	// StopReason is the event kind recorded when cancellation was
	// broadcast.
	StopReason event.Kind
}

// Run executes the pools until the configured duration elapses or ctx is
// cancelled, whichever comes first, then broadcasts cancellation, joins
// every started worker, and returns the aggregate statistics.
//
// Construction failure starts no workers: the distinct stop reason is
// recorded and the error returned.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()
	epoch := time.Now()

	ctx, span := r.spans.StartRunSpan(ctx, runID)
	var runErr error
	defer func() { r.spans.EndSpanWithError(span, runErr) }()

	ch, err := prioflow.New(r.params.Capacity,
		prioflow.WithPollInterval(r.params.PollInterval),
		prioflow.WithLogger(r.logger),
	)
	if err != nil {
		r.sink.Record(event.Event{
			Kind:  event.KindStopInitFail,
			Actor: event.ActorCoordinator,
		})
		r.metrics.RecordRun(ctx, false, time.Since(epoch))
		runErr = fmt.Errorf("construct channel: %w", err)
		return nil, runErr
	}

	tok := prioflow.NewToken()

	observability.LogRunStart(r.logger, runID, r.params.Producers, r.params.Consumers, r.params.Capacity)
	r.sink.Record(event.Event{
		Kind:  event.KindRunStart,
		Actor: event.ActorCoordinator,
	})
	r.sink.Note(fmt.Sprintf("run_id=%s capacity=%d producers=%d consumers=%d poll_interval=%s",
		runID, r.params.Capacity, r.params.Producers, r.params.Consumers, r.params.PollInterval))

	baseOpts := Options{
		Sink:    r.sink,
		Metrics: r.metrics,
		Spans:   r.spans,
		Logger:  observability.EnrichLogger(r.logger, runID, "", 0),
		Epoch:   epoch,
		Seed:    r.seed,
	}

	producers := make([]*Producer, r.params.Producers)
	consumers := make([]*Consumer, r.params.Consumers)

	var wg sync.WaitGroup
	for i := range producers {
		opts := baseOpts
		opts.WaitMax = r.params.ProducerWaitMax
		opts.ValueMin = r.params.ValueMin
		opts.ValueMax = r.params.ValueMax
		producers[i] = NewProducer(i, i%prioritySpace, ch, tok, opts)

		wg.Add(1)
		go func(p *Producer) {
			defer wg.Done()
			p.Run(ctx)
		}(producers[i])
	}
	for i := range consumers {
		opts := baseOpts
		opts.WaitMax = r.params.ConsumerWaitMax
		consumers[i] = NewConsumer(i, ch, tok, opts)

		wg.Add(1)
		go func(c *Consumer) {
			defer wg.Done()
			c.Run(ctx)
		}(consumers[i])
	}

	// One broadcast, exactly once, with its reason recorded.
	reason := event.KindStopTimeout
	timer := time.NewTimer(r.params.RunFor)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		reason = event.KindStopCancelled
	}
	tok.Stop()
	observability.LogStop(r.logger, runID, string(reason))
	r.sink.Record(event.Event{
		TimeMS: sinceMS(epoch),
		Kind:   reason,
		Actor:  event.ActorCoordinator,
		Depth:  ch.Depth(),
	})

	// Join everything before touching any worker's stats.
	wg.Wait()

	var prodStats, consStats Stats
	for _, p := range producers {
		prodStats.merge(p.Stats())
	}
	for _, c := range consumers {
		consStats.merge(c.Stats())
	}

	runtime := time.Since(epoch)
	maxDepth := prodStats.MaxDepth
	if consStats.MaxDepth > maxDepth {
		maxDepth = consStats.MaxDepth
	}

	summary := &Summary{
		RunID:                 runID,
		ProducedOps:           prodStats.Ops,
		ConsumedOps:           consStats.Ops,
		ProducerBlockedMS:     prodStats.BlockedTotalMS,
		ProducerBlockedEvents: prodStats.BlockedEvents,
		ConsumerBlockedMS:     consStats.BlockedTotalMS,
		ConsumerBlockedEvents: consStats.BlockedEvents,
		MaxDepth:              maxDepth,
		FinalDepth:            ch.Depth(),
		Runtime:               runtime,
		StopReason:            reason,
	}
	if s := runtime.Seconds(); s > 0 {
		summary.Throughput = float64(consStats.Ops) / s
	}

	r.sink.Record(event.Event{
		TimeMS: sinceMS(epoch),
		Kind:   event.KindRunEnd,
		Actor:  event.ActorCoordinator,
		Depth:  summary.FinalDepth,
	})
	r.sink.Note(fmt.Sprintf(
		"summary produced=%d consumed=%d runtime_s=%.3f throughput=%.3f prod_block_ms=%d prod_block_ev=%d cons_block_ms=%d cons_block_ev=%d max_depth=%d",
		summary.ProducedOps, summary.ConsumedOps, runtime.Seconds(), summary.Throughput,
		summary.ProducerBlockedMS, summary.ProducerBlockedEvents,
		summary.ConsumerBlockedMS, summary.ConsumerBlockedEvents, summary.MaxDepth))

	r.metrics.RecordRun(ctx, true, runtime)
	observability.LogRunComplete(r.logger, runID, float64(runtime.Milliseconds()),
		summary.ProducedOps, summary.ConsumedOps)

	return summary, nil
}
