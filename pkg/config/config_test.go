package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/neuropixelscar/pkg/car"
	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

const sampleConfig = `
max_block_size: 4096
strategy: sample
log_level: debug
profile: true
streams:
  - id: 1
    name: ProbeA-AP
    device: Neuropix-PXI Probe A
    probe: np2
    exclude: [191]
    highpass_hz: 300
    notch_hz: 60
    input: probeA.ap.bin
    output: probeA.ap.car.bin
  - id: 2
    name: ProbeB-AP
    device: Neuropix-PXI Probe B
    adcs: 32
    include: [0, 1, 24, 25]
    enabled: false
  - id: 3
    name: NI-DAQ
    channels: 8
    sample_rate: 25000
`

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	s, err := c.ParsedStrategy()
	require.NoError(t, err)
	assert.Equal(t, car.StrategyBlock, s)

	topo, err := c.Topology()
	require.NoError(t, err)
	n, ok := topo.Get(1).Device.ADCCount()
	assert.True(t, ok)
	assert.Equal(t, 32, n)
	assert.Equal(t, 385, topo.Get(1).ChannelCount)
	assert.Equal(t, "np1", c.Streams[0].Probe)
	assert.Equal(t, "Neuropix-PXI Probe A", c.Streams[0].Device)
}

func TestFromTopology(t *testing.T) {
	c := FromTopology(stream.NewMultiProbe(stream.ProbeNP1, stream.ProbeNP2))
	require.NoError(t, c.Validate())
	require.Len(t, c.Streams, 2)
	assert.Equal(t, "ProbeB-AP", c.Streams[1].Name)
	assert.Equal(t, "np2", c.Streams[1].Probe)
	assert.Equal(t, car.DefaultMaxBlockSize, c.MaxBlockSize)

	t.Run("DeviceWithoutProbeType", func(t *testing.T) {
		streams := stream.NewBuilder().
			WithStream(4, "Custom", 385, 30000).
			WithDevice(4, stream.NewDevice("Custom headstage", 24)).
			MustBuild()
		c := FromTopology(streams)
		assert.Equal(t, 24, c.Streams[0].ADCs)
		assert.Empty(t, c.Streams[0].Probe)
	})

	t.Run("RoundTripsThroughTopology", func(t *testing.T) {
		topo, err := c.Topology()
		require.NoError(t, err)
		n, _ := topo.Get(2).Device.ADCCount()
		assert.Equal(t, 24, n)
		assert.Equal(t, "Neuropix-PXI Probe B", topo.Get(2).Device.Name)
	})
}

func TestTopologyWithoutDeviceName(t *testing.T) {
	tests := []struct {
		name    string
		stream  StreamConfig
		wantADC int
	}{
		{"ADCs", StreamConfig{ID: 1, Name: "imec0", ADCs: 24}, 24},
		{"Probe", StreamConfig{ID: 1, Name: "imec0", Probe: "np1"}, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Streams = []StreamConfig{tt.stream}
			applyDefaults(c)
			require.NoError(t, c.Validate())

			topo, err := c.Topology()
			require.NoError(t, err)
			d := topo.Get(1).Device
			require.NotNil(t, d)
			assert.Equal(t, "imec0", d.Name)
			n, ok := d.ADCCount()
			assert.True(t, ok)
			assert.Equal(t, tt.wantADC, n)
		})
	}

	t.Run("NoMetadataNoDevice", func(t *testing.T) {
		c, err := Parse([]byte("streams:\n  - id: 1\n"))
		require.NoError(t, err)
		topo, err := c.Topology()
		require.NoError(t, err)
		assert.Nil(t, topo.Get(1).Device)
	})
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 4096, c.MaxBlockSize)
	assert.Equal(t, "sample", c.Strategy)
	assert.True(t, c.Profile)
	require.Len(t, c.Streams, 3)

	t.Run("Defaults", func(t *testing.T) {
		a := c.Streams[0]
		assert.Equal(t, 385, a.Channels)
		assert.Equal(t, 30000.0, a.SampleRate)
		assert.True(t, a.IsEnabled())
		assert.False(t, c.Streams[1].IsEnabled())
		assert.Equal(t, 25000.0, c.Streams[2].SampleRate)
		assert.Equal(t, 60.0, a.NotchHz)
	})

	t.Run("Topology", func(t *testing.T) {
		topo, err := c.Topology()
		require.NoError(t, err)
		require.Equal(t, []stream.ID{1, 2, 3}, topo.IDs())

		a := topo.Get(1)
		n, _ := a.Device.ADCCount()
		assert.Equal(t, 24, n, "probe type implies the ADC count")
		assert.Equal(t, stream.ProbeNP2, a.Device.Probe)
		assert.False(t, a.Channels.Contains(191))
		assert.Equal(t, 384, a.Channels.Len())

		b := topo.Get(2)
		n, _ = b.Device.ADCCount()
		assert.Equal(t, 32, n)
		assert.Equal(t, []int{0, 1, 24, 25}, b.Channels.Channels())
		assert.False(t, b.IsEnabled())

		assert.Nil(t, topo.Get(3).Device)
		assert.Equal(t, 385*2+8, topo.TotalChannels())
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "npxcar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Parse([]byte("streams: [oops"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"NoStreams", func(c *Config) { c.Streams = nil }, "no streams configured"},
		{"BlockSize", func(c *Config) { c.MaxBlockSize = -1 }, "max_block_size"},
		{"Strategy", func(c *Config) { c.Strategy = "hybrid" }, "unknown referencing strategy"},
		{"LogLevel", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
		{"Probe", func(c *Config) { c.Streams[0].Probe = "np3" }, "unknown probe type"},
		{"ADCs", func(c *Config) { c.Streams[0].ADCs = -1 }, "negative adcs"},
		{"Channel", func(c *Config) { c.Streams[0].Exclude = []int{385} }, "channel 385 out of range"},
		{"Highpass", func(c *Config) { c.Streams[0].HighpassHz = 20000 }, "highpass_hz"},
		{"NegativeHighpass", func(c *Config) { c.Streams[0].HighpassHz = -1 }, "highpass_hz"},
		{"Notch", func(c *Config) { c.Streams[0].NotchHz = 15000 }, "notch_hz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("NoStreamsSentinel", func(t *testing.T) {
		c := Default()
		c.Streams = nil
		assert.ErrorIs(t, c.Validate(), ErrNoStreams)
	})

	t.Run("CollectsAllProblems", func(t *testing.T) {
		c := Default()
		c.MaxBlockSize = 0
		c.Strategy = "x"
		err := c.Validate()
		assert.Contains(t, err.Error(), "max_block_size")
		assert.Contains(t, err.Error(), "strategy")
	})

	t.Run("DuplicateStreamsFailTopology", func(t *testing.T) {
		c := Default()
		c.Streams = append(c.Streams, c.Streams[0])
		_, err := c.Topology()
		assert.ErrorIs(t, err, stream.ErrDuplicateStream)
	})
}
