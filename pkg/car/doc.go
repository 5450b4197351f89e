// Package car implements common-average referencing for Neuropixels probe
// streams.
//
// Channels of a probe are multiplexed onto a fixed number of ADCs, and
// channels sampled by the same converter share its noise. For every block
// the processor sums the enabled channels of each ADC group, divides by the
// number of contributing channels and subtracts the resulting mean from
// every member, in place in the host's buffer.
//
// Two accumulation strategies produce the same result: StrategyBlock sums
// whole channel blocks into a groups × capacity matrix and is the default;
// StrategySample keeps one scalar per group and walks the block sample by
// sample.
//
// Topology (ADC count, device name) is discovered through
// Processor.UpdateSettings and must never change while a block is being
// processed. Streams whose ADC count is unknown or unsupported pass through
// untouched.
package car
