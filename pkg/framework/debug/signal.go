package debug

import (
	"fmt"
	"math"
)

// SignalAnalyzer inspects blocks of raw probe samples in ADC units.
type SignalAnalyzer struct {
	ClipLevel        float32 // magnitude treated as saturated
	DCThreshold      float32 // 0 disables the offset check
	SilenceThreshold float32
}

// NewSignalAnalyzer creates an analyzer for 16-bit ADC data.
func NewSignalAnalyzer() *SignalAnalyzer {
	return &SignalAnalyzer{
		ClipLevel:        32767,
		DCThreshold:      50,
		SilenceThreshold: 0.5,
	}
}

// AnalysisResult contains the results of block analysis.
type AnalysisResult struct {
	Peak           float32
	RMS            float32
	DC             float32
	Clipping       bool
	ClippedSamples int
	Silent         bool
	HasNaN         bool
	NaNCount       int
}

// Analyze computes level statistics of a block. NaN samples are counted and
// excluded from the other figures.
func (a *SignalAnalyzer) Analyze(buffer []float32) AnalysisResult {
	var result AnalysisResult
	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	valid := 0
	for _, sample := range buffer {
		if math.IsNaN(float64(sample)) {
			result.HasNaN = true
			result.NaNCount++
			continue
		}
		valid++

		abs := sample
		if abs < 0 {
			abs = -abs
		}
		if abs > result.Peak {
			result.Peak = abs
		}
		if abs >= a.ClipLevel {
			result.Clipping = true
			result.ClippedSamples++
		}
		sum += float64(sample)
		sumSquares += float64(sample) * float64(sample)
	}

	if valid > 0 {
		result.RMS = float32(math.Sqrt(sumSquares / float64(valid)))
		result.DC = float32(sum / float64(valid))
	}
	result.Silent = result.RMS < a.SilenceThreshold
	return result
}

// Check returns human-readable problems found in a block, or nil. The
// block is only analyzed; name is used for the messages.
func (a *SignalAnalyzer) Check(buffer []float32, name string) []string {
	var issues []string
	result := a.Analyze(buffer)

	if result.HasNaN {
		issues = append(issues, fmt.Sprintf("%s: contains %d NaN values", name, result.NaNCount))
	}
	if result.Clipping {
		issues = append(issues, fmt.Sprintf("%s: saturated (%d samples)", name, result.ClippedSamples))
	}
	if a.DCThreshold > 0 && math.Abs(float64(result.DC)) > float64(a.DCThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset %.1f", name, result.DC))
	}
	return issues
}

// RunningStats accumulates level statistics of one channel across blocks.
// The zero value is ready to use.
type RunningStats struct {
	count      int64
	sumSquares float64
	peak       float32
}

// Add folds a block into the statistics.
func (r *RunningStats) Add(buffer []float32) {
	for _, s := range buffer {
		v := float64(s)
		r.sumSquares += v * v
		if s < 0 {
			s = -s
		}
		if s > r.peak {
			r.peak = s
		}
	}
	r.count += int64(len(buffer))
}

// Count returns the number of samples seen.
func (r *RunningStats) Count() int64 {
	return r.count
}

// RMS returns the root mean square of all samples seen.
func (r *RunningStats) RMS() float64 {
	if r.count == 0 {
		return 0
	}
	return math.Sqrt(r.sumSquares / float64(r.count))
}

// Peak returns the largest magnitude seen.
func (r *RunningStats) Peak() float32 {
	return r.peak
}
