package car

import (
	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

const (
	// ProbeChannels is the number of channels that take part in referencing.
	// Higher indices (the sync channel, auxiliary inputs) are never touched.
	ProbeChannels = stream.ProbeChannels

	// DefaultMaxBlockSize is the accumulator capacity in samples per stream
	DefaultMaxBlockSize = 10000

	// channelsPerSlot is the number of adjacent channels one ADC converts
	// per sample slot
	channelsPerSlot = 2
)

// GroupCount returns the number of referencing groups for an ADC count, or
// 0 if the count is not a supported probe topology.
func GroupCount(adcCount int) int {
	switch adcCount {
	case 32: // Neuropixels 1.0
		return 12
	case 24: // Neuropixels 2.0
		return 16
	}
	return 0
}

// Groups is the channel to ADC group assignment of one probe topology.
// The zero value is a disabled assignment with no groups.
type Groups struct {
	adcCount int
	count    int
	table    [ProbeChannels]int
}

// ComputeGroups derives the group assignment for an ADC count. It returns
// false, and a disabled assignment, for unsupported counts including 0.
func ComputeGroups(adcCount int) (Groups, bool) {
	n := GroupCount(adcCount)
	if n == 0 {
		return Groups{}, false
	}

	g := Groups{adcCount: adcCount, count: n}
	for ch := range g.table {
		g.table[ch] = (ch / channelsPerSlot) % n
	}
	return g, true
}

// ADCCount returns the ADC count the assignment was computed for
func (g *Groups) ADCCount() int {
	return g.adcCount
}

// Count returns the number of groups
func (g *Groups) Count() int {
	return g.count
}

// Enabled reports whether the assignment has any groups
func (g *Groups) Enabled() bool {
	return g.count > 0
}

// Group returns the group of a channel, or -1 if the channel is outside the
// probe or the assignment is disabled.
func (g *Groups) Group(ch int) int {
	if g.count == 0 || ch < 0 || ch >= ProbeChannels {
		return -1
	}
	return g.table[ch]
}

// Members returns the channels assigned to a group in ascending order
func (g *Groups) Members(group int) []int {
	if group < 0 || group >= g.count {
		return nil
	}
	members := make([]int, 0, ProbeChannels/g.count)
	for ch, gr := range g.table {
		if gr == group {
			members = append(members, ch)
		}
	}
	return members
}
