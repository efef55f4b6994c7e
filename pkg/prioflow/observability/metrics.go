package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records prioflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPut records one completed put with its blocked duration and
	// error status.
	RecordPut(ctx context.Context, producerID int, blocked time.Duration, err error)

	// RecordGet records one completed get with its blocked duration and
	// error status.
	RecordGet(ctx context.Context, consumerID int, blocked time.Duration, err error)

	// RecordDepth records an observed channel occupancy.
	RecordDepth(ctx context.Context, depth int)

	// RecordRun records a run completion.
	RecordRun(ctx context.Context, success bool, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	puts       metric.Int64Counter
	gets       metric.Int64Counter
	opErrors   metric.Int64Counter
	blockedMs  metric.Float64Histogram
	depth      metric.Int64Histogram
	runs       metric.Int64Counter
	runLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("prioflow")

	puts, err := meter.Int64Counter("prioflow.channel.puts",
		metric.WithDescription("Number of completed put operations"),
	)
	if err != nil {
		return nil, err
	}

	gets, err := meter.Int64Counter("prioflow.channel.gets",
		metric.WithDescription("Number of completed get operations"),
	)
	if err != nil {
		return nil, err
	}

	opErrors, err := meter.Int64Counter("prioflow.channel.op_errors",
		metric.WithDescription("Number of failed channel operations"),
	)
	if err != nil {
		return nil, err
	}

	blockedMs, err := meter.Float64Histogram("prioflow.channel.blocked_ms",
		metric.WithDescription("Wall-clock time operations spent blocked in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	depth, err := meter.Int64Histogram("prioflow.channel.depth",
		metric.WithDescription("Channel occupancy observed after operations"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("prioflow.runs",
		metric.WithDescription("Number of producer/consumer runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("prioflow.run.latency_ms",
		metric.WithDescription("Run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		puts:       puts,
		gets:       gets,
		opErrors:   opErrors,
		blockedMs:  blockedMs,
		depth:      depth,
		runs:       runs,
		runLatency: runLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordPut records one completed put.
func (m *otelMetrics) RecordPut(ctx context.Context, producerID int, blocked time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Int("producer_id", producerID),
	}

	m.puts.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.blockedMs.Record(ctx, float64(blocked.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.opErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordGet records one completed get.
func (m *otelMetrics) RecordGet(ctx context.Context, consumerID int, blocked time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Int("consumer_id", consumerID),
	}

	m.gets.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.blockedMs.Record(ctx, float64(blocked.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.opErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordDepth records an observed occupancy.
func (m *otelMetrics) RecordDepth(ctx context.Context, depth int) {
	m.depth.Record(ctx, int64(depth))
}

// RecordRun records a run completion.
func (m *otelMetrics) RecordRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}
