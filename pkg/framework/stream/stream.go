// Package stream describes the independently-timed multichannel data
// streams a host delivers for processing, and the devices behind them.
package stream

import (
	"github.com/justyntemme/neuropixelscar/pkg/framework/param"
)

// ID identifies a stream within the host signal chain
type ID uint16

// Device describes the acquisition hardware behind a stream
type Device struct {
	Name         string
	SerialNumber string
	Probe        ProbeType

	// adcCount is the "neuropixels.adcs" device metadata; 0 when the
	// device does not report it.
	adcCount int
}

// NewDevice creates a device description. An adcCount of 0 means the
// device carries no ADC metadata.
func NewDevice(name string, adcCount int) *Device {
	return &Device{Name: name, adcCount: adcCount}
}

// ADCCount returns the number of ADCs reported by the device, if any
func (d *Device) ADCCount() (int, bool) {
	if d == nil || d.adcCount <= 0 {
		return 0, false
	}
	return d.adcCount, true
}

// SetADCCount updates the ADC metadata, e.g. after a probe is swapped
func (d *Device) SetADCCount(count int) {
	d.adcCount = count
}

// Info contains the configuration of one stream
type Info struct {
	ID           ID
	Name         string
	SampleRate   float64
	ChannelCount int
	Device       *Device

	// Stream-scoped parameters
	Enable   *param.Parameter
	Channels *param.ChannelMask

	firstChannel int
}

// FirstChannel returns the global index of the stream's channel 0
func (i *Info) FirstChannel() int {
	return i.firstChannel
}

// GlobalChannelIndex maps a stream-local channel to the host-wide index.
// It returns -1 for channels the stream does not have.
func (i *Info) GlobalChannelIndex(local int) int {
	if local < 0 || local >= i.ChannelCount {
		return -1
	}
	return i.firstChannel + local
}

// IsEnabled reports whether the stream's enable switch is on
func (i *Info) IsEnabled() bool {
	return i.Enable == nil || i.Enable.Enabled()
}

// Configuration is an ordered set of streams sharing one global channel space
type Configuration struct {
	streams []*Info
	ids     []ID
	index   map[ID]int
	owner   []int // global channel -> stream position
}

// Count returns the number of streams
func (c *Configuration) Count() int {
	return len(c.streams)
}

// IDs returns the stream IDs in order. The slice is shared.
func (c *Configuration) IDs() []ID {
	return c.ids
}

// All returns the streams in order. The slice is shared.
func (c *Configuration) All() []*Info {
	return c.streams
}

// Get returns a stream by ID, or nil
func (c *Configuration) Get(id ID) *Info {
	if i, ok := c.index[id]; ok {
		return c.streams[i]
	}
	return nil
}

// Index returns the position of a stream within the configuration
func (c *Configuration) Index(id ID) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// TotalChannels returns the number of channels across all streams
func (c *Configuration) TotalChannels() int {
	return len(c.owner)
}

// Owner returns the position of the stream a global channel belongs to,
// or -1 if the index is out of range
func (c *Configuration) Owner(global int) int {
	if global < 0 || global >= len(c.owner) {
		return -1
	}
	return c.owner[global]
}
