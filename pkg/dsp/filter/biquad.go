// Package filter provides the per-channel IIR stages that can run ahead of
// common-average referencing.
package filter

import "math"

// Biquad implements a second-order IIR filter (biquad)
// Direct Form I implementation with pre-allocated per-channel state
type Biquad struct {
	// Coefficients
	a1, a2     float32 // denominator, normalized so a0 == 1
	b0, b1, b2 float32 // numerator

	// State variables (per-channel)
	x1, x2 []float32 // input delay line
	y1, y2 []float32 // output delay line
}

// NewBiquad creates a new biquad filter for the specified number of channels.
// A new filter passes samples through unchanged until a design is applied.
func NewBiquad(channels int) *Biquad {
	return &Biquad{
		b0: 1,
		x1: make([]float32, channels),
		x2: make([]float32, channels),
		y1: make([]float32, channels),
		y2: make([]float32, channels),
	}
}

// Channels returns the number of channels the filter keeps state for
func (b *Biquad) Channels() int {
	return len(b.x1)
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	for i := range b.x1 {
		b.x1[i] = 0
		b.x2[i] = 0
		b.y1[i] = 0
		b.y2[i] = 0
	}
}

// SetCoefficients sets the filter coefficients directly
func (b *Biquad) SetCoefficients(b0, b1, b2, a0, a1, a2 float32) {
	invA0 := 1.0 / a0
	b.b0 = b0 * invA0
	b.b1 = b1 * invA0
	b.b2 = b2 * invA0
	b.a1 = a1 * invA0
	b.a2 = a2 * invA0
}

// Process applies the filter to one channel's block in place - no allocations.
// Channels outside the allocated state are left untouched.
func (b *Biquad) Process(buffer []float32, channel int) {
	if channel < 0 || channel >= len(b.x1) {
		return
	}

	x1 := b.x1[channel]
	x2 := b.x2[channel]
	y1 := b.y1[channel]
	y2 := b.y2[channel]

	for i := range buffer {
		x0 := buffer[i]

		// Direct Form I
		y0 := b.b0*x0 + b.b1*x1 + b.b2*x2 - b.a1*y1 - b.a2*y2

		x2 = x1
		x1 = x0
		y2 = y1
		y1 = y0

		buffer[i] = y0
	}

	b.x1[channel] = x1
	b.x2[channel] = x2
	b.y1[channel] = y1
	b.y2[channel] = y2
}

// Design functions (RBJ cookbook)

// SetHighpass configures as a highpass filter
func (b *Biquad) SetHighpass(sampleRate, frequency, q float64) {
	omega := 2.0 * math.Pi * frequency / sampleRate
	sinOmega := math.Sin(omega)
	cosOmega := math.Cos(omega)
	alpha := sinOmega / (2.0 * q)

	b.SetCoefficients(
		float32((1.0+cosOmega)/2.0), float32(-(1.0 + cosOmega)), float32((1.0+cosOmega)/2.0),
		float32(1.0+alpha), float32(-2.0*cosOmega), float32(1.0-alpha))
}

// SetNotch configures as a notch (band-reject) filter, e.g. for line noise
func (b *Biquad) SetNotch(sampleRate, frequency, q float64) {
	omega := 2.0 * math.Pi * frequency / sampleRate
	sinOmega := math.Sin(omega)
	cosOmega := math.Cos(omega)
	alpha := sinOmega / (2.0 * q)

	b.SetCoefficients(
		1.0, float32(-2.0*cosOmega), 1.0,
		float32(1.0+alpha), float32(-2.0*cosOmega), float32(1.0-alpha))
}
