// Package dsp provides the vector primitives used by the referencing engine.
package dsp

// Buffer utilities for per-channel sample blocks. None of them allocate and
// all of them operate over the shorter of their arguments.

// Clear zeroes a buffer - no allocations
func Clear(buffer []float32) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// Add adds source to destination - no allocations
func Add(dst, src []float32) {
	n := min(len(dst), len(src))
	dst, src = dst[:n], src[:n]
	for i := range dst {
		dst[i] += src[i]
	}
}

// Subtract subtracts source from destination - no allocations
func Subtract(dst, src []float32) {
	n := min(len(dst), len(src))
	dst, src = dst[:n], src[:n]
	for i := range dst {
		dst[i] -= src[i]
	}
}

// Scale multiplies buffer by a constant - no allocations
func Scale(buffer []float32, scale float32) {
	for i := range buffer {
		buffer[i] *= scale
	}
}
