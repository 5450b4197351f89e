package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	streams, err := stream.NewBuilder().
		WithStream(1, "ProbeA-AP", 4, 30000).
		WithDevice(1, stream.NewDevice("Neuropix-PXI Probe A", 32)).
		WithStream(2, "NI-DAQ", 2, 30000).
		Build()
	require.NoError(t, err)
	return NewContext(streams, 8)
}

func TestContextHost(t *testing.T) {
	ctx := newTestContext(t)

	assert.Equal(t, []stream.ID{1, 2}, ctx.StreamIDs())
	assert.Equal(t, 6, ctx.NumChannels())
	assert.Equal(t, 8, ctx.MaxBlockSize())

	t.Run("Metadata", func(t *testing.T) {
		n, ok := ctx.AdcCount(1)
		assert.True(t, ok)
		assert.Equal(t, 32, n)

		_, ok = ctx.AdcCount(2)
		assert.False(t, ok)
		_, ok = ctx.AdcCount(9)
		assert.False(t, ok)

		name, ok := ctx.DeviceName(1)
		assert.True(t, ok)
		assert.Equal(t, "Neuropix-PXI Probe A", name)
		_, ok = ctx.DeviceName(2)
		assert.False(t, ok)
	})

	t.Run("SampleRate", func(t *testing.T) {
		assert.Equal(t, 30000.0, ctx.SampleRate(1))
		assert.Zero(t, ctx.SampleRate(9))
	})

	t.Run("Enabled", func(t *testing.T) {
		assert.True(t, ctx.StreamEnabled(1))
		assert.False(t, ctx.StreamEnabled(9))
		ctx.Streams().Get(1).Enable.SetEnabled(false)
		assert.False(t, ctx.StreamEnabled(1))
		ctx.Streams().Get(1).Enable.SetEnabled(true)
	})

	t.Run("ChannelMapping", func(t *testing.T) {
		assert.Equal(t, 4, ctx.GlobalChannelIndex(2, 0))
		assert.Equal(t, -1, ctx.GlobalChannelIndex(2, 2))
		assert.Equal(t, -1, ctx.GlobalChannelIndex(9, 0))
		assert.Equal(t, []int{0, 1, 2, 3}, ctx.EnabledChannels(1))
		assert.Nil(t, ctx.EnabledChannels(9))
	})
}

func TestContextBlocks(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.SetNumSamples(1, 3))
	require.NoError(t, ctx.SetNumSamples(2, 5))

	assert.Len(t, ctx.ChannelSamples(0), 3)
	assert.Len(t, ctx.ChannelSamples(4), 5)
	assert.Nil(t, ctx.ChannelSamples(6))
	assert.Nil(t, ctx.ChannelSamples(-1))
	assert.Equal(t, 0, ctx.NumSamples(9))

	t.Run("WritesThroughViews", func(t *testing.T) {
		copy(ctx.Channel(1), []float32{1, 2, 3, 4})
		ctx.ChannelSamples(1)[0] = 10
		assert.Equal(t, []float32{10, 2, 3}, ctx.ChannelSamples(1))
	})

	t.Run("ChannelsDoNotOverlap", func(t *testing.T) {
		for i := range ctx.Channel(2) {
			ctx.Channel(2)[i] = 7
		}
		assert.Equal(t, float32(10), ctx.Channel(1)[0])
		assert.Equal(t, float32(0), ctx.Channel(3)[0])
	})

	t.Run("Errors", func(t *testing.T) {
		assert.ErrorIs(t, ctx.SetNumSamples(1, 9), ErrBlockTooLarge)
		assert.ErrorIs(t, ctx.SetNumSamples(1, -1), ErrBlockTooLarge)
		assert.ErrorIs(t, ctx.SetNumSamples(9, 1), stream.ErrUnknownStream)
		assert.Equal(t, 3, ctx.NumSamples(1))
	})

	t.Run("ProcessStream", func(t *testing.T) {
		var seen []int
		ctx.ProcessStream(2, func(local int, samples []float32) {
			seen = append(seen, local)
			assert.Len(t, samples, 5)
		})
		assert.Equal(t, []int{0, 1}, seen)

		ctx.ProcessStream(9, func(int, []float32) { t.Fatal("unknown stream visited") })
	})

	t.Run("Resize", func(t *testing.T) {
		ctx.Resize(16)
		assert.Len(t, ctx.Channel(0), 16)
		assert.Equal(t, 0, ctx.NumSamples(1))
		assert.NoError(t, ctx.SetNumSamples(1, 16))
	})

	t.Run("HostCallsDoNotAllocate", func(t *testing.T) {
		require.NoError(t, ctx.SetNumSamples(1, 4))
		var h Host = ctx
		allocs := testing.AllocsPerRun(100, func() {
			_ = h.NumSamples(1)
			_ = h.EnabledChannels(1)
			_ = h.GlobalChannelIndex(1, 2)
			_ = h.ChannelSamples(2)
			_, _ = h.AdcCount(1)
		})
		assert.Zero(t, allocs)
	})
}
