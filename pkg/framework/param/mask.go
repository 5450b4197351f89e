package param

import (
	"slices"
	"sync/atomic"
)

// ChannelMask is a stream-scoped set of selected channel indices.
//
// The processing thread reads the current selection once per block with
// Channels; a control thread replaces it with Set. Each Set publishes a
// fresh sorted, de-duplicated slice, so readers never observe a partially
// written mask and Channels never allocates.
type ChannelMask struct {
	Name     string
	capacity int
	channels atomic.Pointer[[]int]
}

// NewChannelMask creates a mask over [0, capacity) with every channel selected
func NewChannelMask(name string, capacity int) *ChannelMask {
	m := &ChannelMask{Name: name, capacity: capacity}
	m.SelectAll()
	return m
}

// Capacity returns the number of channels the mask can address
func (m *ChannelMask) Capacity() int {
	return m.capacity
}

// Channels returns the selected channels in ascending order.
// The returned slice is shared and must not be modified.
func (m *ChannelMask) Channels() []int {
	if p := m.channels.Load(); p != nil {
		return *p
	}
	return nil
}

// Len returns the number of selected channels
func (m *ChannelMask) Len() int {
	return len(m.Channels())
}

// Contains reports whether a channel is selected
func (m *ChannelMask) Contains(ch int) bool {
	_, found := slices.BinarySearch(m.Channels(), ch)
	return found
}

// Set replaces the selection. Indices outside [0, capacity) are dropped.
func (m *ChannelMask) Set(channels []int) {
	selected := make([]int, 0, len(channels))
	for _, ch := range channels {
		if ch >= 0 && ch < m.capacity {
			selected = append(selected, ch)
		}
	}
	slices.Sort(selected)
	selected = slices.Compact(selected)
	m.channels.Store(&selected)
}

// SelectAll selects every channel
func (m *ChannelMask) SelectAll() {
	all := make([]int, m.capacity)
	for i := range all {
		all[i] = i
	}
	m.channels.Store(&all)
}

// Exclude removes channels from the current selection
func (m *ChannelMask) Exclude(channels ...int) {
	current := m.Channels()
	kept := make([]int, 0, len(current))
	for _, ch := range current {
		if !slices.Contains(channels, ch) {
			kept = append(kept, ch)
		}
	}
	m.channels.Store(&kept)
}
