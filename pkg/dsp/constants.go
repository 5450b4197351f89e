package dsp

// Acquisition constants shared by the filter stage, the stream templates
// and the recording host.
const (
	// SampleRateAP is the action-potential band rate of Neuropixels probes.
	SampleRateAP = 30000.0

	// DefaultQ gives a Butterworth response for a single biquad section.
	DefaultQ = 0.707
	// DefaultHighpassHz is the usual spike-band corner applied before CAR.
	DefaultHighpassHz = 300.0
	// NotchQ keeps a line-noise notch a few Hz wide.
	NotchQ = 10.0

	// Int16Min and Int16Max bound raw recording samples.
	Int16Min = -32768
	Int16Max = 32767
)
