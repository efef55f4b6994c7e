// Package observability provides structured logging, metrics, and tracing
// for prioflow runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds run and worker context to a logger.
// Returns a new logger with run_id, actor, and actor_id fields.
func EnrichLogger(logger *slog.Logger, runID, actor string, actorID int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("actor", actor),
		slog.Int("actor_id", actorID),
	)
}

// LogRunStart logs the start of a run.
func LogRunStart(logger *slog.Logger, runID string, producers, consumers, capacity int) {
	if logger == nil {
		return
	}
	logger.Info("run starting",
		slog.String("run_id", runID),
		slog.Int("producers", producers),
		slog.Int("consumers", consumers),
		slog.Int("capacity", capacity),
	)
}

// LogRunComplete logs run completion with headline statistics.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, produced, consumed uint64) {
	if logger == nil {
		return
	}
	logger.Info("run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Uint64("produced", produced),
		slog.Uint64("consumed", consumed),
	)
}

// LogStop logs the cancellation broadcast with its reason.
func LogStop(logger *slog.Logger, runID, reason string) {
	if logger == nil {
		return
	}
	logger.Info("stop requested",
		slog.String("run_id", runID),
		slog.String("reason", reason),
	)
}

// LogWorkerStart logs a worker entering its loop.
func LogWorkerStart(logger *slog.Logger, actor string, actorID int) {
	if logger == nil {
		return
	}
	logger.Debug("worker starting",
		slog.String("actor", actor),
		slog.Int("actor_id", actorID),
	)
}

// LogWorkerExit logs a worker leaving its loop.
func LogWorkerExit(logger *slog.Logger, actor string, actorID int, ops uint64) {
	if logger == nil {
		return
	}
	logger.Debug("worker exiting",
		slog.String("actor", actor),
		slog.Int("actor_id", actorID),
		slog.Uint64("ops", ops),
	)
}

// LogWorkerError logs a worker terminating on a fatal operation error.
func LogWorkerError(logger *slog.Logger, actor string, actorID int, err error) {
	if logger == nil {
		return
	}
	logger.Error("worker failed",
		slog.String("actor", actor),
		slog.Int("actor_id", actorID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
