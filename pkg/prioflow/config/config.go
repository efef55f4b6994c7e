// Package config loads and validates run parameters for prioflow producer/
// consumer pools.
//
// Parameters come from YAML or JSON files, or programmatically via Default()
// plus field assignment. Validate enforces the documented upper bounds so a
// misconfigured run fails before any channel or worker is constructed.
package config

import (
	"fmt"
	"time"

	"github.com/randalmurphal/prioflow/pkg/prioflow/errors"
)

// Upper bounds enforced by Validate. The channel itself does not police
// pool sizes; this layer does.
const (
	MaxProducers = 10
	MaxConsumers = 3
	MaxCapacity  = 20
)

// Params holds construction-time configuration for a run.
type Params struct {
	// Capacity is the fixed channel capacity. Must be in [1, MaxCapacity].
	Capacity int

	// PollInterval bounds cancellation latency for every blocking point in
	// the interruptible path. Smaller values cost more wake-ups; larger
	// values add up to that much latency to shutdown.
	PollInterval time.Duration

	// Producers and Consumers are the worker pool sizes.
	Producers int
	Consumers int

	// RunFor is how long the coordinator lets the pools run before
	// broadcasting cancellation.
	RunFor time.Duration

	// ProducerWaitMax and ConsumerWaitMax bound the randomized sleep
	// between successful operations. The minimum is zero.
	ProducerWaitMax time.Duration
	ConsumerWaitMax time.Duration

	// ValueMin and ValueMax bound the randomized message values.
	ValueMin int
	ValueMax int

	// LogPath is where the CSV event sink writes, when one is used.
	LogPath string
}

// Default returns the built-in defaults.
func Default() Params {
	return Params{
		Capacity:        10,
		PollInterval:    200 * time.Millisecond,
		Producers:       3,
		Consumers:       2,
		RunFor:          10 * time.Second,
		ProducerWaitMax: 2 * time.Second,
		ConsumerWaitMax: 4 * time.Second,
		ValueMin:        0,
		ValueMax:        9,
		LogPath:         "run_log.csv",
	}
}

// Validate checks every parameter against its documented range.
// All failures carry KindInvalidArgument.
func (p Params) Validate() error {
	if p.Capacity <= 0 || p.Capacity > MaxCapacity {
		return errors.InvalidArgument(nil,
			fmt.Sprintf("capacity must be in [1, %d], got %d", MaxCapacity, p.Capacity))
	}
	if p.PollInterval <= 0 {
		return errors.InvalidArgument(nil,
			fmt.Sprintf("poll_interval must be positive, got %s", p.PollInterval))
	}
	if p.Producers <= 0 || p.Producers > MaxProducers {
		return errors.InvalidArgument(nil,
			fmt.Sprintf("producers must be in [1, %d], got %d", MaxProducers, p.Producers))
	}
	if p.Consumers <= 0 || p.Consumers > MaxConsumers {
		return errors.InvalidArgument(nil,
			fmt.Sprintf("consumers must be in [1, %d], got %d", MaxConsumers, p.Consumers))
	}
	if p.RunFor <= 0 {
		return errors.InvalidArgument(nil,
			fmt.Sprintf("run_for must be positive, got %s", p.RunFor))
	}
	if p.ProducerWaitMax < 0 || p.ConsumerWaitMax < 0 {
		return errors.InvalidArgument(nil, "wait bounds must not be negative")
	}
	if p.ValueMax < p.ValueMin {
		return errors.InvalidArgument(nil,
			fmt.Sprintf("value range inverted: [%d, %d]", p.ValueMin, p.ValueMax))
	}
	return nil
}
