package event

import "log/slog"

// SlogSink records events as structured log lines.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink over the given logger. A nil logger uses
// slog.Default(). slog handlers serialize their own writes, so no extra
// locking is needed here.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Record implements Sink.
func (s *SlogSink) Record(e Event) {
	attrs := []any{
		slog.Uint64("time_ms", e.TimeMS),
		slog.String("actor", string(e.Actor)),
		slog.Int("actor_id", e.ActorID),
		slog.Int("depth", e.Depth),
		slog.Int64("blocked_ms", e.BlockedMS),
	}
	if e.Msg != nil {
		attrs = append(attrs,
			slog.Int("value", e.Msg.Value),
			slog.Int("priority", e.Msg.Priority),
			slog.Int("producer_id", e.Msg.ProducerID),
			slog.Uint64("seq", e.Msg.Seq),
		)
	}
	s.logger.Info(string(e.Kind), attrs...)
}

// Note implements Sink.
func (s *SlogSink) Note(text string) {
	s.logger.Info("note", slog.String("text", text))
}

// Close implements Sink.
func (s *SlogSink) Close() error {
	return nil
}
