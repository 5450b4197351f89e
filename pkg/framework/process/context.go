// Package process provides the block context a host hands to the processor:
// one multichannel buffer shared by every stream, with per-stream block
// lengths, channel masks and device metadata.
package process

import (
	"errors"
	"fmt"

	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

// ErrBlockTooLarge is returned when a block exceeds the context capacity
var ErrBlockTooLarge = errors.New("block exceeds context capacity")

// Host is the view of the signal chain the processor consumes.
//
// ChannelSamples returns a mutable view of exactly NumSamples samples of the
// owning stream; the processor may write into it but never retains it past
// the current block.
type Host interface {
	StreamIDs() []stream.ID
	StreamEnabled(id stream.ID) bool
	SampleRate(id stream.ID) float64
	AdcCount(id stream.ID) (int, bool)
	DeviceName(id stream.ID) (string, bool)
	EnabledChannels(id stream.ID) []int
	NumSamples(id stream.ID) int
	GlobalChannelIndex(id stream.ID, local int) int
	ChannelSamples(global int) []float32
	MaxBlockSize() int
}

// Context provides a clean API for block processing with zero allocations
type Context struct {
	streams *stream.Configuration

	// Pre-allocated channel buffers, one row per global channel
	backing  []float32
	channels [][]float32

	numSamples   []int // per stream position
	maxBlockSize int
}

var _ Host = (*Context)(nil)

// NewContext creates a new process context with pre-allocated buffers
func NewContext(streams *stream.Configuration, maxBlockSize int) *Context {
	c := &Context{
		streams:    streams,
		numSamples: make([]int, streams.Count()),
	}
	c.Resize(maxBlockSize)
	return c
}

// Resize reallocates the channel buffers. Not safe while a block is in flight.
func (c *Context) Resize(maxBlockSize int) {
	total := c.streams.TotalChannels()
	c.maxBlockSize = maxBlockSize
	c.backing = make([]float32, total*maxBlockSize)
	c.channels = make([][]float32, total)
	for ch := range c.channels {
		c.channels[ch] = c.backing[ch*maxBlockSize : (ch+1)*maxBlockSize : (ch+1)*maxBlockSize]
	}
	for i := range c.numSamples {
		c.numSamples[i] = 0
	}
}

// Streams returns the stream configuration
func (c *Context) Streams() *stream.Configuration {
	return c.streams
}

// MaxBlockSize returns the capacity of each channel buffer
func (c *Context) MaxBlockSize() int {
	return c.maxBlockSize
}

// NumChannels returns the number of global channels
func (c *Context) NumChannels() int {
	return len(c.channels)
}

// SetNumSamples sets the length of the current block of a stream
func (c *Context) SetNumSamples(id stream.ID, n int) error {
	i, ok := c.streams.Index(id)
	if !ok {
		return fmt.Errorf("%w: %d", stream.ErrUnknownStream, id)
	}
	if n < 0 || n > c.maxBlockSize {
		return fmt.Errorf("%w: %d samples, capacity %d", ErrBlockTooLarge, n, c.maxBlockSize)
	}
	c.numSamples[i] = n
	return nil
}

// Channel returns the full-capacity buffer of a global channel for filling
func (c *Context) Channel(global int) []float32 {
	if global < 0 || global >= len(c.channels) {
		return nil
	}
	return c.channels[global]
}

// StreamIDs implements Host
func (c *Context) StreamIDs() []stream.ID {
	return c.streams.IDs()
}

// StreamEnabled implements Host
func (c *Context) StreamEnabled(id stream.ID) bool {
	s := c.streams.Get(id)
	return s != nil && s.IsEnabled()
}

// SampleRate implements Host
func (c *Context) SampleRate(id stream.ID) float64 {
	if s := c.streams.Get(id); s != nil {
		return s.SampleRate
	}
	return 0
}

// AdcCount implements Host
func (c *Context) AdcCount(id stream.ID) (int, bool) {
	s := c.streams.Get(id)
	if s == nil {
		return 0, false
	}
	return s.Device.ADCCount()
}

// DeviceName implements Host
func (c *Context) DeviceName(id stream.ID) (string, bool) {
	s := c.streams.Get(id)
	if s == nil || s.Device == nil {
		return "", false
	}
	return s.Device.Name, true
}

// EnabledChannels implements Host
func (c *Context) EnabledChannels(id stream.ID) []int {
	s := c.streams.Get(id)
	if s == nil || s.Channels == nil {
		return nil
	}
	return s.Channels.Channels()
}

// NumSamples implements Host
func (c *Context) NumSamples(id stream.ID) int {
	if i, ok := c.streams.Index(id); ok {
		return c.numSamples[i]
	}
	return 0
}

// GlobalChannelIndex implements Host
func (c *Context) GlobalChannelIndex(id stream.ID, local int) int {
	s := c.streams.Get(id)
	if s == nil {
		return -1
	}
	return s.GlobalChannelIndex(local)
}

// ChannelSamples implements Host
func (c *Context) ChannelSamples(global int) []float32 {
	owner := c.streams.Owner(global)
	if owner < 0 {
		return nil
	}
	return c.channels[global][:c.numSamples[owner]]
}
