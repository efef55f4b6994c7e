package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileParams is the on-disk schema. Durations are millisecond integers so
// YAML and JSON files read the same way. Pointer fields distinguish "absent,
// keep the default" from an explicit zero.
type fileParams struct {
	Capacity          *int    `yaml:"capacity" json:"capacity"`
	PollIntervalMS    *int    `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	Producers         *int    `yaml:"producers" json:"producers"`
	Consumers         *int    `yaml:"consumers" json:"consumers"`
	RunForMS          *int    `yaml:"run_for_ms" json:"run_for_ms"`
	ProducerWaitMaxMS *int    `yaml:"producer_wait_max_ms" json:"producer_wait_max_ms"`
	ConsumerWaitMaxMS *int    `yaml:"consumer_wait_max_ms" json:"consumer_wait_max_ms"`
	ValueMin          *int    `yaml:"value_min" json:"value_min"`
	ValueMax          *int    `yaml:"value_max" json:"value_max"`
	LogPath           *string `yaml:"log_path" json:"log_path"`
}

// apply overlays the file values onto p.
func (f fileParams) apply(p *Params) {
	if f.Capacity != nil {
		p.Capacity = *f.Capacity
	}
	if f.PollIntervalMS != nil {
		p.PollInterval = time.Duration(*f.PollIntervalMS) * time.Millisecond
	}
	if f.Producers != nil {
		p.Producers = *f.Producers
	}
	if f.Consumers != nil {
		p.Consumers = *f.Consumers
	}
	if f.RunForMS != nil {
		p.RunFor = time.Duration(*f.RunForMS) * time.Millisecond
	}
	if f.ProducerWaitMaxMS != nil {
		p.ProducerWaitMax = time.Duration(*f.ProducerWaitMaxMS) * time.Millisecond
	}
	if f.ConsumerWaitMaxMS != nil {
		p.ConsumerWaitMax = time.Duration(*f.ConsumerWaitMaxMS) * time.Millisecond
	}
	if f.ValueMin != nil {
		p.ValueMin = *f.ValueMin
	}
	if f.ValueMax != nil {
		p.ValueMax = *f.ValueMax
	}
	if f.LogPath != nil {
		p.LogPath = *f.LogPath
	}
}

// FromFile loads parameters from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json. Fields absent from the file keep
// their Default() values. The result is validated before it is returned.
func FromFile(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Params{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data over the defaults and validates the result.
func FromYAML(data []byte) (Params, error) {
	var f fileParams
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Params{}, fmt.Errorf("parse yaml: %w", err)
	}
	p := Default()
	f.apply(&p)
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// FromJSON parses JSON data over the defaults and validates the result.
func FromJSON(data []byte) (Params, error) {
	var f fileParams
	if err := json.Unmarshal(data, &f); err != nil {
		return Params{}, fmt.Errorf("parse json: %w", err)
	}
	p := Default()
	f.apply(&p)
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}
