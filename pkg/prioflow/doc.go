// Package prioflow provides a bounded, priority-ordered channel for
// multi-producer/multi-consumer workloads with cooperative, bounded-latency
// cancellation.
//
// A Channel holds at most its fixed capacity of messages. Get returns the
// highest-priority resident message, breaking ties by earliest insertion.
// Put and Get block; PutInterruptible and GetInterruptible additionally
// observe a shared cancellation Token and return ErrStopped within one poll
// interval of the token being stopped, without ever leaking or double-
// releasing capacity accounting.
//
// Quick start:
//
//	ch, err := prioflow.New(8)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tok := prioflow.NewToken()
//
//	go func() {
//	    _ = ch.PutInterruptible(prioflow.Message{Value: 42, Priority: 9}, tok)
//	}()
//
//	msg, err := ch.GetInterruptible(tok)
//
// The worker subpackage builds complete producer/consumer pools on top of
// the channel; the event subpackage records run telemetry to pluggable
// sinks; the observability subpackage adds slog, OpenTelemetry metrics and
// tracing.
package prioflow
