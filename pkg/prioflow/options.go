package prioflow

import (
	"log/slog"
	"time"
)

// channelConfig holds construction-time configuration for a Channel.
type channelConfig struct {
	pollInterval time.Duration
	logger       *slog.Logger
}

// DefaultPollInterval bounds how long an interruptible operation waits
// before re-checking its cancellation token. Smaller values cost more
// wake-ups; larger values add up to that much latency to shutdown.
const DefaultPollInterval = 200 * time.Millisecond

// defaultChannelConfig returns the default channel configuration.
func defaultChannelConfig() channelConfig {
	return channelConfig{
		pollInterval: DefaultPollInterval,
	}
}

// Option configures channel construction.
type Option func(*channelConfig)

// WithPollInterval sets the cancellation poll interval for interruptible
// operations. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(c *channelConfig) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithLogger attaches a structured logger. The channel logs only invariant
// violations; normal operation is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(c *channelConfig) {
		c.logger = logger
	}
}
