package stream

import (
	"fmt"
	"strings"

	"github.com/justyntemme/neuropixelscar/pkg/dsp"
)

// Neuropixels probe topology
const (
	// ProbeChannels is the number of recording channels on a probe
	ProbeChannels = 384
	// SyncChannels is the number of digital sync channels appended to each
	// probe stream
	SyncChannels = 1
)

// ProbeType identifies a Neuropixels probe generation
type ProbeType int

const (
	ProbeUnknown ProbeType = iota
	// ProbeNP1 is Neuropixels 1.0: 32 ADCs, separate AP and LFP streams
	ProbeNP1
	// ProbeNP2 is Neuropixels 2.0 (single or four shank): 24 ADCs, one
	// wideband stream
	ProbeNP2
)

// String returns the string representation of a ProbeType
func (p ProbeType) String() string {
	switch p {
	case ProbeNP1:
		return "NP1"
	case ProbeNP2:
		return "NP2"
	default:
		return "Unknown"
	}
}

// ADCCount returns the number of ADCs on the probe, 0 if unknown
func (p ProbeType) ADCCount() int {
	switch p {
	case ProbeNP1:
		return 32
	case ProbeNP2:
		return 24
	default:
		return 0
	}
}

// ParseProbeType parses "np1"/"1.0" or "np2"/"2.0" style names
func ParseProbeType(s string) (ProbeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "np1", "1.0", "neuropixels 1.0":
		return ProbeNP1, nil
	case "np2", "2.0", "neuropixels 2.0":
		return ProbeNP2, nil
	}
	return ProbeUnknown, fmt.Errorf("unknown probe type %q", s)
}

// NewProbeDevice creates a device with the probe's ADC metadata
func NewProbeDevice(name string, probe ProbeType) *Device {
	d := NewDevice(name, probe.ADCCount())
	d.Probe = probe
	return d
}

// probeLetter names probes A, B, C... the way acquisition software does
func probeLetter(i int) string {
	return string(rune('A' + i%26))
}

// NewSingleProbe creates one action-potential stream of 384 channels plus
// the sync channel. It is the default layout of the recording host.
func NewSingleProbe(probe ProbeType) *Configuration {
	return NewBuilder().
		WithStream(1, "ProbeA-AP", ProbeChannels+SyncChannels, dsp.SampleRateAP).
		WithProbe(1, "Neuropix-PXI Probe A", probe).
		MustBuild()
}

// NewMultiProbe creates one AP stream per probe, IDs starting at 1
func NewMultiProbe(probes ...ProbeType) *Configuration {
	b := NewBuilder()
	for i, probe := range probes {
		id := ID(i + 1)
		letter := probeLetter(i)
		b.WithStream(id, "Probe"+letter+"-AP", ProbeChannels+SyncChannels, dsp.SampleRateAP).
			WithProbe(id, "Neuropix-PXI Probe "+letter, probe)
	}
	return b.MustBuild()
}
