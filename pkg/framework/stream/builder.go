package stream

import (
	"errors"
	"fmt"

	"github.com/justyntemme/neuropixelscar/pkg/framework/param"
)

// MaxChannelsPerStream bounds a single stream's channel count
const MaxChannelsPerStream = 4096

var (
	// ErrNoStreams is returned when a configuration has no streams
	ErrNoStreams = errors.New("configuration has no streams")
	// ErrDuplicateStream is returned when two streams share an ID
	ErrDuplicateStream = errors.New("duplicate stream id")
	// ErrUnknownStream is returned when a builder call names a missing stream
	ErrUnknownStream = errors.New("unknown stream id")
	// ErrInvalidChannelCount is returned for empty or oversized streams
	ErrInvalidChannelCount = errors.New("invalid channel count")
)

// Builder provides a fluent API for building stream configurations
type Builder struct {
	streams []*Info
	errors  []error
}

// NewBuilder creates a new stream configuration builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithStream adds a stream with every channel selected and enabled
func (b *Builder) WithStream(id ID, name string, channels int, sampleRate float64) *Builder {
	for _, s := range b.streams {
		if s.ID == id {
			b.errors = append(b.errors, fmt.Errorf("%w: %d", ErrDuplicateStream, id))
			return b
		}
	}

	info := &Info{
		ID:           id,
		Name:         name,
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Enable:       param.EnableParameter(uint32(id), "enable_stream").Build(),
	}
	if channels > 0 && channels <= MaxChannelsPerStream {
		info.Channels = param.NewChannelMask("Channels", channels)
	}
	b.streams = append(b.streams, info)
	return b
}

// WithDevice attaches a device to a stream
func (b *Builder) WithDevice(id ID, device *Device) *Builder {
	if s := b.find(id, "WithDevice"); s != nil {
		s.Device = device
	}
	return b
}

// WithProbe attaches a Neuropixels probe device of the given type
func (b *Builder) WithProbe(id ID, deviceName string, probe ProbeType) *Builder {
	return b.WithDevice(id, NewProbeDevice(deviceName, probe))
}

// WithChannels replaces a stream's channel selection
func (b *Builder) WithChannels(id ID, channels []int) *Builder {
	if s := b.find(id, "WithChannels"); s != nil && s.Channels != nil {
		s.Channels.Set(channels)
	}
	return b
}

// WithExcludedChannels removes channels from a stream's selection
func (b *Builder) WithExcludedChannels(id ID, channels ...int) *Builder {
	if s := b.find(id, "WithExcludedChannels"); s != nil && s.Channels != nil {
		s.Channels.Exclude(channels...)
	}
	return b
}

// SetStreamEnabled sets a stream's enable switch
func (b *Builder) SetStreamEnabled(id ID, enabled bool) *Builder {
	if s := b.find(id, "SetStreamEnabled"); s != nil {
		s.Enable.SetEnabled(enabled)
	}
	return b
}

func (b *Builder) find(id ID, op string) *Info {
	for _, s := range b.streams {
		if s.ID == id {
			return s
		}
	}
	b.errors = append(b.errors, fmt.Errorf("%s: %w: %d", op, ErrUnknownStream, id))
	return nil
}

// Validate checks if the configuration is valid
func (b *Builder) Validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("builder errors: %w", errors.Join(b.errors...))
	}

	if len(b.streams) == 0 {
		return ErrNoStreams
	}

	for _, s := range b.streams {
		if s.ChannelCount <= 0 || s.ChannelCount > MaxChannelsPerStream {
			return fmt.Errorf("%w: %d for stream %s", ErrInvalidChannelCount, s.ChannelCount, s.Name)
		}
		if s.SampleRate <= 0 {
			return fmt.Errorf("invalid sample rate %g for stream %s", s.SampleRate, s.Name)
		}
	}

	return nil
}

// Build returns the built configuration or an error
func (b *Builder) Build() (*Configuration, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	c := &Configuration{
		streams: b.streams,
		ids:     make([]ID, len(b.streams)),
		index:   make(map[ID]int, len(b.streams)),
	}

	offset := 0
	for i, s := range b.streams {
		s.firstChannel = offset
		offset += s.ChannelCount
		c.ids[i] = s.ID
		c.index[s.ID] = i
	}

	c.owner = make([]int, offset)
	for i, s := range b.streams {
		for ch := 0; ch < s.ChannelCount; ch++ {
			c.owner[s.firstChannel+ch] = i
		}
	}

	return c, nil
}

// MustBuild returns the built configuration or panics on error
func (b *Builder) MustBuild() *Configuration {
	config, err := b.Build()
	if err != nil {
		panic(err)
	}
	return config
}
