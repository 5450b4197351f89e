package car

import (
	"errors"
	"fmt"
	"strings"

	"github.com/justyntemme/neuropixelscar/pkg/dsp"
)

// ErrUnknownStrategy is returned when parsing an unsupported strategy name
var ErrUnknownStrategy = errors.New("unknown referencing strategy")

// Strategy selects how group means are accumulated
type Strategy int

const (
	// StrategyBlock sums whole channel blocks into per-group rows
	StrategyBlock Strategy = iota
	// StrategySample keeps one scalar sum per group, sample by sample
	StrategySample
)

// String returns the configuration name of the strategy
func (s Strategy) String() string {
	switch s {
	case StrategyBlock:
		return "block"
	case StrategySample:
		return "sample"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a configuration name to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "block", "buffer":
		return StrategyBlock, nil
	case "sample", "per-sample", "scalar":
		return StrategySample, nil
	}
	return StrategyBlock, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// BlockAccumulator holds one running-sum row per group, capacity samples
// long, in a single contiguous allocation.
type BlockAccumulator struct {
	backing  []float32
	rows     [][]float32
	counts   []int
	capacity int
	n        int // length of the current block
}

// NewBlockAccumulator allocates rows for groups × capacity samples
func NewBlockAccumulator(groups, capacity int) *BlockAccumulator {
	a := &BlockAccumulator{
		backing:  make([]float32, groups*capacity),
		rows:     make([][]float32, groups),
		counts:   make([]int, groups),
		capacity: capacity,
	}
	for g := range a.rows {
		a.rows[g] = a.backing[g*capacity : (g+1)*capacity : (g+1)*capacity]
	}
	return a
}

// Capacity returns the longest block the accumulator can hold
func (a *BlockAccumulator) Capacity() int {
	return a.capacity
}

// Groups returns the number of rows
func (a *BlockAccumulator) Groups() int {
	return len(a.rows)
}

// Reset prepares for a block of numSamples samples: the used columns of
// every row and all counts are zeroed. numSamples is clamped to capacity.
func (a *BlockAccumulator) Reset(numSamples int) {
	a.n = min(max(numSamples, 0), a.capacity)
	for g, row := range a.rows {
		dsp.Clear(row[:a.n])
		a.counts[g] = 0
	}
}

// Accumulate adds one channel's block to a group's sum
func (a *BlockAccumulator) Accumulate(group int, samples []float32) {
	dsp.Add(a.rows[group][:a.n], samples)
	a.counts[group]++
}

// ComputeMeans turns every non-empty group's sum into its mean in place.
// Empty groups keep their zeroed row.
func (a *BlockAccumulator) ComputeMeans() {
	for g, count := range a.counts {
		if count > 0 {
			dsp.Scale(a.rows[g][:a.n], 1/float32(count))
		}
	}
}

// Mean returns a group's row for the current block. It holds the mean only
// after ComputeMeans.
func (a *BlockAccumulator) Mean(group int) []float32 {
	return a.rows[group][:a.n]
}

// Count returns the number of channels accumulated into a group this block
func (a *BlockAccumulator) Count(group int) int {
	return a.counts[group]
}

// ActiveChannels returns the number of channels accumulated this block
func (a *BlockAccumulator) ActiveChannels() int {
	total := 0
	for _, c := range a.counts {
		total += c
	}
	return total
}

// SampleAccumulator keeps one scalar sum per group.
type SampleAccumulator struct {
	sums   []float32
	counts []int
}

// NewSampleAccumulator allocates scalars for groups
func NewSampleAccumulator(groups int) *SampleAccumulator {
	return &SampleAccumulator{
		sums:   make([]float32, groups),
		counts: make([]int, groups),
	}
}

// Groups returns the number of scalars
func (a *SampleAccumulator) Groups() int {
	return len(a.sums)
}

// Reset zeroes all sums and counts
func (a *SampleAccumulator) Reset() {
	clear(a.sums)
	clear(a.counts)
}

// AddChannel counts a contributing channel. Called once per channel per
// block, before the sample loop.
func (a *SampleAccumulator) AddChannel(group int) {
	a.counts[group]++
}

// ClearSums zeroes the sums before the next sample
func (a *SampleAccumulator) ClearSums() {
	clear(a.sums)
}

// Accumulate adds one channel's sample to a group's sum
func (a *SampleAccumulator) Accumulate(group int, v float32) {
	a.sums[group] += v
}

// ComputeMeans divides every non-empty group's sum by its count
func (a *SampleAccumulator) ComputeMeans() {
	for g, count := range a.counts {
		if count > 0 {
			a.sums[g] /= float32(count)
		} else {
			a.sums[g] = 0
		}
	}
}

// Mean returns a group's scalar. It holds the mean only after ComputeMeans.
func (a *SampleAccumulator) Mean(group int) float32 {
	return a.sums[group]
}

// Count returns the number of channels counted for a group this block
func (a *SampleAccumulator) Count(group int) int {
	return a.counts[group]
}

// ActiveChannels returns the number of channels counted this block
func (a *SampleAccumulator) ActiveChannels() int {
	total := 0
	for _, c := range a.counts {
		total += c
	}
	return total
}
