package car

import (
	"fmt"
	"time"

	"github.com/justyntemme/neuropixelscar/pkg/dsp"
	"github.com/justyntemme/neuropixelscar/pkg/framework/debug"
	"github.com/justyntemme/neuropixelscar/pkg/framework/param"
	"github.com/justyntemme/neuropixelscar/pkg/framework/plugin"
	"github.com/justyntemme/neuropixelscar/pkg/framework/process"
	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

// Display labels for streams without usable device metadata
const (
	NoDeviceName      = "No device detected."
	NoNeuropixelsName = "No Neuropixels detected."
)

// Parameter IDs
const (
	ParamBypass uint32 = iota
	ParamStrategy
)

// PluginInfo identifies the processor
var PluginInfo = plugin.Info{
	ID:       "org.open-ephys.neuropixels-car",
	Name:     "Neuropixels CAR",
	Version:  "0.1.0",
	Vendor:   "Open Ephys",
	Category: "Filter",
}

// Processor references every enabled Neuropixels stream of a host block.
type Processor struct {
	*plugin.Base

	registry *Registry
	logger   *debug.Logger
	profiler *debug.Profiler
	sections map[stream.ID]*debug.Measurement

	bypass       *param.Parameter
	strategy     *param.Parameter
	maxBlockSize int
}

var _ plugin.Processor = (*Processor)(nil)

// Option configures a Processor
type Option func(*Processor)

// WithStrategy selects the initial accumulation strategy
func WithStrategy(s Strategy) Option {
	return func(p *Processor) {
		p.strategy.SetPlainValue(float64(s))
	}
}

// WithMaxBlockSize sets the minimum accumulator capacity in samples
func WithMaxBlockSize(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxBlockSize = n
		}
	}
}

// WithLogger sets the logger; the default discards everything
func WithLogger(l *debug.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProfiler records the processing time of every block per stream
func WithProfiler(prof *debug.Profiler) Option {
	return func(p *Processor) {
		p.profiler = prof
	}
}

// NewProcessor creates a processor with no streams. Call UpdateSettings
// before the first block.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		Base:         plugin.NewBase(PluginInfo),
		logger:       debug.Discard(),
		sections:     make(map[stream.ID]*debug.Measurement),
		maxBlockSize: DefaultMaxBlockSize,
	}

	p.bypass = param.BypassParameter(ParamBypass, "Bypass").Build()
	p.strategy = param.Choice(ParamStrategy, "Strategy", []param.ChoiceOption{
		{Value: float64(StrategyBlock), Name: "Block", Aliases: []string{"buffer"}},
		{Value: float64(StrategySample), Name: "Sample", Aliases: []string{"per-sample", "scalar"}},
	}).Build()
	p.GetParameters().Add(p.bypass, p.strategy)

	for _, opt := range opts {
		opt(p)
	}
	p.registry = NewRegistry(p.Strategy(), p.maxBlockSize)
	return p
}

// Registry returns the per-stream state registry
func (p *Processor) Registry() *Registry {
	return p.registry
}

// Strategy returns the strategy selected by the Strategy parameter. A change
// takes effect on the next UpdateSettings.
func (p *Processor) Strategy() Strategy {
	return Strategy(p.strategy.Index())
}

// SetStrategy changes the Strategy parameter
func (p *Processor) SetStrategy(s Strategy) {
	p.strategy.SetPlainValue(float64(s))
}

// Bypassed reports whether every stream passes through
func (p *Processor) Bypassed() bool {
	return p.bypass.Enabled()
}

// SetBypass switches processing off for all streams
func (p *Processor) SetBypass(on bool) {
	p.bypass.SetEnabled(on)
}

// UpdateSettings discovers the topology of every host stream and rebuilds
// state for it. Streams that disappeared are dropped. Must not run while a
// block is being processed.
func (p *Processor) UpdateSettings(host process.Host) {
	ids := host.StreamIDs()
	p.registry.Sync(ids)
	for id := range p.sections {
		if _, ok := p.registry.Lookup(id); !ok {
			delete(p.sections, id)
		}
	}
	p.registry.Configure(p.Strategy(), max(p.maxBlockSize, host.MaxBlockSize()))

	for _, id := range ids {
		name, hasDevice := host.DeviceName(id)
		adcs, hasADCs := host.AdcCount(id)
		switch {
		case !hasDevice:
			name, adcs = NoDeviceName, 0
		case !hasADCs:
			name, adcs = NoNeuropixelsName, 0
		}
		p.OnTopologyChange(id, adcs, name)

		if p.profiler != nil {
			p.sections[id] = p.profiler.Section(fmt.Sprintf("stream %d: %s", id, name), host.SampleRate(id))
		}
	}
}

// OnTopologyChange rebuilds one stream's state for an ADC count
func (p *Processor) OnTopologyChange(id stream.ID, adcCount int, deviceName string) {
	prev, existed := p.registry.Lookup(id)
	changed := !existed || prev.NumADCs() != adcCount || prev.DeviceName != deviceName ||
		prev.Strategy() != p.registry.Strategy() || prev.Overflow() > 0

	s := p.registry.OnTopologyChange(id, adcCount, deviceName)
	if !changed {
		return
	}

	log := p.logger.With(deviceName)
	switch {
	case s.Enabled():
		log.Info("stream %d: %d ADCs, %d groups, %s strategy",
			id, adcCount, s.Groups().Count(), s.Strategy())
	case adcCount == 0:
		log.Info("stream %d: ADC count unknown, passing through", id)
	default:
		log.Warn("stream %d: unsupported ADC count %d, passing through", id, adcCount)
	}
}

// DisplayName returns the device label of a stream
func (p *Processor) DisplayName(id stream.ID) string {
	return p.registry.DisplayName(id)
}

// ProcessBlock references every stream of the current host block
func (p *Processor) ProcessBlock(host process.Host) {
	for _, id := range host.StreamIDs() {
		p.Process(host, id)
	}
}

// Process references the current block of one stream in place. Disabled,
// bypassed, unsupported and empty streams are left untouched.
func (p *Processor) Process(host process.Host, id stream.ID) {
	if p.bypass.Enabled() || !host.StreamEnabled(id) {
		return
	}

	s := p.registry.Get(id)
	if !s.Enabled() {
		return
	}

	n := host.NumSamples(id)
	if n <= 0 {
		return
	}
	if n > s.Capacity() {
		if s.overflow == 0 {
			p.logger.With(s.DeviceName).Warn(
				"stream %d: block of %d samples exceeds capacity %d, passing through until settings are updated",
				id, n, s.Capacity())
		}
		s.overflow = max(s.overflow, n)
		return
	}

	start := time.Now()

	p.registry.ResetPerBlockState(id, n)
	p.resolveMembers(host, s, n)

	switch s.strategy {
	case StrategySample:
		referenceSamples(s, n)
	default:
		referenceBlock(s)
	}

	if m := p.sections[id]; m != nil {
		m.Record(time.Since(start), n)
	}
}

// resolveMembers collects the enabled probe channels of a stream with their
// group and block view. Channels outside the probe or without a full block
// are skipped.
func (p *Processor) resolveMembers(host process.Host, s *StreamState, n int) {
	for _, ch := range host.EnabledChannels(s.ID) {
		group := s.groups.Group(ch)
		if group < 0 {
			continue
		}
		global := host.GlobalChannelIndex(s.ID, ch)
		if global < 0 {
			continue
		}
		samples := host.ChannelSamples(global)
		if len(samples) < n {
			continue
		}
		s.members = append(s.members, member{channel: ch, group: group, samples: samples[:n]})
	}
}

// referenceBlock sums every member into its group row, normalizes the rows
// and subtracts them
func referenceBlock(s *StreamState) {
	acc := s.block
	for _, m := range s.members {
		acc.Accumulate(m.group, m.samples)
	}
	acc.ComputeMeans()
	for _, m := range s.members {
		dsp.Subtract(m.samples, acc.Mean(m.group))
	}
}

// referenceSamples computes and subtracts the group means one sample at a
// time
func referenceSamples(s *StreamState, n int) {
	acc := s.sample
	for _, m := range s.members {
		acc.AddChannel(m.group)
	}
	for i := 0; i < n; i++ {
		acc.ClearSums()
		for _, m := range s.members {
			acc.Accumulate(m.group, m.samples[i])
		}
		acc.ComputeMeans()
		for _, m := range s.members {
			m.samples[i] -= acc.Mean(m.group)
		}
	}
}
