// Package config loads the YAML description of a referencing run: the
// streams, their devices and channel masks, and processor settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/neuropixelscar/pkg/car"
	"github.com/justyntemme/neuropixelscar/pkg/dsp"
	"github.com/justyntemme/neuropixelscar/pkg/framework/debug"
	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

// ErrNoStreams is returned when a configuration lists no streams
var ErrNoStreams = errors.New("no streams configured")

// Config is the top-level configuration
type Config struct {
	MaxBlockSize int            `yaml:"max_block_size"` // accumulator capacity per stream
	Strategy     string         `yaml:"strategy"`       // block | sample
	LogLevel     string         `yaml:"log_level"`
	Profile      bool           `yaml:"profile"`
	Streams      []StreamConfig `yaml:"streams"`
}

// StreamConfig describes one acquisition stream
type StreamConfig struct {
	ID         uint16  `yaml:"id"`
	Name       string  `yaml:"name"`
	Channels   int     `yaml:"channels"` // including the sync channel
	SampleRate float64 `yaml:"sample_rate"`

	// Device metadata. Without a device the stream is displayed as
	// "No device detected."; without an ADC count it passes through.
	Device string `yaml:"device"`
	Probe  string `yaml:"probe"` // np1 | np2, implies adcs
	ADCs   int    `yaml:"adcs"`

	Enabled *bool `yaml:"enabled"` // default true
	Include []int `yaml:"include"` // channel mask; empty = all
	Exclude []int `yaml:"exclude"`

	HighpassHz float64 `yaml:"highpass_hz"` // 0 = off
	NotchHz    float64 `yaml:"notch_hz"`    // line-noise notch, 0 = off
	Input      string  `yaml:"input"`
	Output     string  `yaml:"output"`
}

// IsEnabled reports whether the stream is switched on
func (s *StreamConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Default returns the configuration of a single Neuropixels 1.0 probe
func Default() *Config {
	return FromTopology(stream.NewSingleProbe(stream.ProbeNP1))
}

// FromTopology returns a configuration with default processor settings and
// one entry per stream of streams
func FromTopology(streams *stream.Configuration) *Config {
	c := &Config{
		MaxBlockSize: car.DefaultMaxBlockSize,
		Strategy:     car.StrategyBlock.String(),
		LogLevel:     "info",
	}
	for _, info := range streams.All() {
		sc := StreamConfig{
			ID:         uint16(info.ID),
			Name:       info.Name,
			Channels:   info.ChannelCount,
			SampleRate: info.SampleRate,
		}
		if d := info.Device; d != nil {
			sc.Device = d.Name
			if d.Probe != stream.ProbeUnknown {
				sc.Probe = strings.ToLower(d.Probe.String())
			} else if n, ok := d.ADCCount(); ok {
				sc.ADCs = n
			}
		}
		c.Streams = append(c.Streams, sc)
	}
	return c
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML configuration and fills in defaults
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.MaxBlockSize == 0 {
		c.MaxBlockSize = d.MaxBlockSize
	}
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	for i := range c.Streams {
		s := &c.Streams[i]
		if s.Name == "" {
			s.Name = fmt.Sprintf("Stream%d", s.ID)
		}
		if s.Channels == 0 {
			s.Channels = stream.ProbeChannels + stream.SyncChannels
		}
		if s.SampleRate == 0 {
			s.SampleRate = dsp.SampleRateAP
		}
	}
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	var errs []error

	if c.MaxBlockSize <= 0 {
		errs = append(errs, fmt.Errorf("max_block_size must be positive, got %d", c.MaxBlockSize))
	}
	if _, err := car.ParseStrategy(c.Strategy); err != nil {
		errs = append(errs, err)
	}
	if _, err := debug.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(c.Streams) == 0 {
		errs = append(errs, ErrNoStreams)
	}

	for _, s := range c.Streams {
		if s.Probe != "" {
			if _, err := stream.ParseProbeType(s.Probe); err != nil {
				errs = append(errs, fmt.Errorf("stream %d: %w", s.ID, err))
			}
		}
		if s.ADCs < 0 {
			errs = append(errs, fmt.Errorf("stream %d: negative adcs %d", s.ID, s.ADCs))
		}
		for _, ch := range slices.Concat(s.Include, s.Exclude) {
			if ch < 0 || ch >= s.Channels {
				errs = append(errs, fmt.Errorf("stream %d: channel %d out of range [0,%d)", s.ID, ch, s.Channels))
			}
		}
		if !belowNyquist(s.HighpassHz, s.SampleRate) {
			errs = append(errs, fmt.Errorf("stream %d: highpass_hz %.1f outside (0, %.1f)", s.ID, s.HighpassHz, s.SampleRate/2))
		}
		if !belowNyquist(s.NotchHz, s.SampleRate) {
			errs = append(errs, fmt.Errorf("stream %d: notch_hz %.1f outside (0, %.1f)", s.ID, s.NotchHz, s.SampleRate/2))
		}
	}

	return errors.Join(errs...)
}

// belowNyquist accepts 0 (off) or a frequency in (0, sampleRate/2)
func belowNyquist(hz, sampleRate float64) bool {
	return hz == 0 || (hz > 0 && hz < sampleRate/2)
}

// ParsedStrategy returns the accumulation strategy
func (c *Config) ParsedStrategy() (car.Strategy, error) {
	return car.ParseStrategy(c.Strategy)
}

// Topology builds the stream configuration. The ADC count comes from adcs
// when set, otherwise from the probe type. A probe type or ADC count given
// without a device name describes a device named after the stream.
func (c *Config) Topology() (*stream.Configuration, error) {
	b := stream.NewBuilder()
	for _, s := range c.Streams {
		id := stream.ID(s.ID)
		b.WithStream(id, s.Name, s.Channels, s.SampleRate)

		deviceName := s.Device
		if deviceName == "" && (s.Probe != "" || s.ADCs > 0) {
			deviceName = s.Name
		}
		if deviceName != "" {
			device := stream.NewDevice(deviceName, s.ADCs)
			if s.Probe != "" {
				probe, err := stream.ParseProbeType(s.Probe)
				if err != nil {
					return nil, fmt.Errorf("stream %d: %w", s.ID, err)
				}
				device.Probe = probe
				if s.ADCs == 0 {
					device.SetADCCount(probe.ADCCount())
				}
			}
			b.WithDevice(id, device)
		}
		if len(s.Include) > 0 {
			b.WithChannels(id, s.Include)
		}
		if len(s.Exclude) > 0 {
			b.WithExcludedChannels(id, s.Exclude...)
		}
		b.SetStreamEnabled(id, s.IsEnabled())
	}

	streams, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build topology: %w", err)
	}
	return streams, nil
}
