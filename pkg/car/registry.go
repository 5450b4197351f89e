package car

import (
	"slices"

	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

// Registry owns the StreamState of every stream, keyed by stream ID.
// Not safe for concurrent use; topology changes and processing must be
// serialized by the caller.
type Registry struct {
	states   map[stream.ID]*StreamState
	strategy Strategy
	capacity int
}

// NewRegistry creates a registry whose states use strategy and hold blocks
// of up to capacity samples.
func NewRegistry(strategy Strategy, capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultMaxBlockSize
	}
	return &Registry{
		states:   make(map[stream.ID]*StreamState),
		strategy: strategy,
		capacity: capacity,
	}
}

// Configure sets the strategy and capacity used by later topology changes
func (r *Registry) Configure(strategy Strategy, capacity int) {
	r.strategy = strategy
	if capacity > 0 {
		r.capacity = capacity
	}
}

// Strategy returns the configured strategy
func (r *Registry) Strategy() Strategy {
	return r.strategy
}

// Capacity returns the configured block capacity
func (r *Registry) Capacity() int {
	return r.capacity
}

// Len returns the number of streams with state
func (r *Registry) Len() int {
	return len(r.states)
}

// Get returns the state of a stream, creating a disabled one if absent
func (r *Registry) Get(id stream.ID) *StreamState {
	s, ok := r.states[id]
	if !ok {
		s = newStreamState(id)
		r.states[id] = s
	}
	return s
}

// Lookup returns the state of a stream without creating it
func (r *Registry) Lookup(id stream.ID) (*StreamState, bool) {
	s, ok := r.states[id]
	return s, ok
}

// OnTopologyChange recomputes a stream's groups and resizes its
// accumulators. An unsupported adcCount leaves the stream disabled. A block
// rejected for size since the last change grows the capacity to fit it.
func (r *Registry) OnTopologyChange(id stream.ID, adcCount int, deviceName string) *StreamState {
	s := r.Get(id)
	capacity := max(r.capacity, s.overflow)
	s.configure(adcCount, deviceName, r.strategy, capacity)
	return s
}

// ResetPerBlockState clears a stream's counts and accumulators for a block
// of numSamples samples.
func (r *Registry) ResetPerBlockState(id stream.ID, numSamples int) {
	if s, ok := r.states[id]; ok {
		s.resetBlock(numSamples)
	}
}

// Sync drops the state of streams not in ids
func (r *Registry) Sync(ids []stream.ID) {
	for id := range r.states {
		if !slices.Contains(ids, id) {
			delete(r.states, id)
		}
	}
}

// DisplayName returns the label of a stream's device
func (r *Registry) DisplayName(id stream.ID) string {
	if s, ok := r.states[id]; ok && s.DeviceName != "" {
		return s.DeviceName
	}
	return NoDeviceName
}
