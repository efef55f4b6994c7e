// Package worker builds producer/consumer pools on top of a prioflow
// Channel.
//
// Producers synthesize randomized messages and put them through the
// interruptible channel path; consumers mirror them with gets. A Runner
// coordinates the pools: it constructs the shared channel, token and sink,
// starts every worker, broadcasts cancellation exactly once, joins every
// started worker, and only then aggregates per-worker statistics, which is
// why the statistics need no locking of their own.
package worker

import (
	"log/slog"
	"time"

	"github.com/valyala/fastrand"

	"github.com/randalmurphal/prioflow/pkg/prioflow"
	"github.com/randalmurphal/prioflow/pkg/prioflow/event"
	"github.com/randalmurphal/prioflow/pkg/prioflow/observability"
)

// Options carries the collaborators and tuning shared by the workers of one
// run. Zero values select safe defaults: a discarding sink, no-op metrics
// and spans, a nil (silent) logger, and the current time as the epoch.
type Options struct {
	// Sink receives lifecycle and operation events.
	Sink event.Sink

	// Metrics records operation counters and histograms.
	Metrics observability.MetricsRecorder

	// Spans traces each worker's loop.
	Spans observability.SpanManager

	// Logger, when set, gets debug-level worker lifecycle lines.
	Logger *slog.Logger

	// Epoch is the run start; event timestamps are relative to it.
	Epoch time.Time

	// WaitMax bounds the randomized sleep between successful operations.
	// Zero disables the sleep.
	WaitMax time.Duration

	// ValueMin and ValueMax bound producer message values.
	ValueMin int
	ValueMax int

	// Seed perturbs the per-worker RNG. Workers mix in their own identity
	// so equal seeds still give distinct streams.
	Seed uint32
}

// withDefaults fills in the zero-value fallbacks.
func (o Options) withDefaults() Options {
	if o.Sink == nil {
		o.Sink = event.Discard
	}
	if o.Metrics == nil {
		o.Metrics = observability.NoopMetrics{}
	}
	if o.Spans == nil {
		o.Spans = observability.NoopSpanManager{}
	}
	if o.Epoch.IsZero() {
		o.Epoch = time.Now()
	}
	return o
}

// sinceMS returns milliseconds elapsed since the epoch.
func sinceMS(epoch time.Time) uint64 {
	d := time.Since(epoch)
	if d < 0 {
		return 0
	}
	return uint64(d.Milliseconds())
}

// randRange returns a value in [lo, hi] from the worker's private RNG.
func randRange(rng *fastrand.RNG, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(rng.Uint32n(uint32(hi-lo+1)))
}

// seedFor derives a distinct RNG seed from the run seed and a worker
// identity. The multipliers are Knuth-style odd constants; any fixed odd
// numbers would do.
func seedFor(base uint32, actor event.Actor, id int) uint32 {
	s := base ^ (uint32(id)*2654435761 + 1)
	if actor == event.ActorConsumer {
		s ^= 2246822519
	}
	if s == 0 {
		s = 1
	}
	return s
}

// sleepInterruptible sleeps for total in chunks of at most poll, returning
// early once tok stops. The worst case overrun past cancellation is one
// chunk.
func sleepInterruptible(tok *prioflow.Token, total, poll time.Duration) {
	if total <= 0 {
		return
	}
	deadline := time.Now().Add(total)
	for !tok.Stopped() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		chunk := remaining
		if poll > 0 && chunk > poll {
			chunk = poll
		}

		timer := time.NewTimer(chunk)
		select {
		case <-timer.C:
		case <-tok.Done():
			timer.Stop()
			return
		}
	}
}
