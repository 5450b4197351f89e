package car

import (
	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

// member is an enabled channel resolved for the current block
type member struct {
	channel int
	group   int
	samples []float32
}

// StreamState is the referencing state of one stream. It is rebuilt on
// topology change; its accumulators and member list are reused every block.
type StreamState struct {
	ID         stream.ID
	DeviceName string

	groups   Groups
	strategy Strategy
	block    *BlockAccumulator
	sample   *SampleAccumulator
	members  []member

	// Largest block seen that did not fit; applied on the next rebuild
	overflow int
}

func newStreamState(id stream.ID) *StreamState {
	return &StreamState{ID: id}
}

// configure rebuilds groups and accumulators. Off the processing path.
func (s *StreamState) configure(adcCount int, deviceName string, strategy Strategy, capacity int) {
	s.DeviceName = deviceName
	s.groups, _ = ComputeGroups(adcCount)
	s.strategy = strategy
	s.block, s.sample = nil, nil
	s.members = s.members[:0]
	s.overflow = 0

	if !s.groups.Enabled() {
		return
	}
	switch strategy {
	case StrategySample:
		s.sample = NewSampleAccumulator(s.groups.Count())
	default:
		s.strategy = StrategyBlock
		s.block = NewBlockAccumulator(s.groups.Count(), capacity)
	}
	if cap(s.members) < ProbeChannels {
		s.members = make([]member, 0, ProbeChannels)
	}
}

// Enabled reports whether the stream has a supported topology
func (s *StreamState) Enabled() bool {
	return s.groups.Enabled()
}

// NumADCs returns the ADC count of the current topology, 0 if disabled
func (s *StreamState) NumADCs() int {
	return s.groups.ADCCount()
}

// Groups returns the channel to group assignment
func (s *StreamState) Groups() *Groups {
	return &s.groups
}

// Strategy returns the accumulation strategy of the state
func (s *StreamState) Strategy() Strategy {
	return s.strategy
}

// Capacity returns the longest block the state can reference. The sample
// strategy has no limit.
func (s *StreamState) Capacity() int {
	if s.block != nil {
		return s.block.Capacity()
	}
	if s.sample != nil {
		return int(^uint(0) >> 1)
	}
	return 0
}

// ActiveCount returns the number of channels that contributed to a group in
// the last processed block.
func (s *StreamState) ActiveCount(group int) int {
	if group < 0 || group >= s.groups.Count() {
		return 0
	}
	switch {
	case s.block != nil:
		return s.block.Count(group)
	case s.sample != nil:
		return s.sample.Count(group)
	}
	return 0
}

// ActiveChannels returns the number of channels referenced in the last
// processed block.
func (s *StreamState) ActiveChannels() int {
	switch {
	case s.block != nil:
		return s.block.ActiveChannels()
	case s.sample != nil:
		return s.sample.ActiveChannels()
	}
	return 0
}

// Overflow returns the largest block rejected since the last rebuild
func (s *StreamState) Overflow() int {
	return s.overflow
}

// resetBlock clears the accumulators and member list before a block
func (s *StreamState) resetBlock(numSamples int) {
	s.members = s.members[:0]
	switch {
	case s.block != nil:
		s.block.Reset(numSamples)
	case s.sample != nil:
		s.sample.Reset()
	}
}
