// Package plugin defines the contract between a host signal chain and a
// stream processor.
package plugin

import (
	"github.com/justyntemme/neuropixelscar/pkg/framework/param"
	"github.com/justyntemme/neuropixelscar/pkg/framework/process"
	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

// Processor is the interface a stream processor implements.
//
// UpdateSettings and OnTopologyChange run on the control thread while no
// block is in flight. Process and ProcessBlock run on the processing thread
// and must not allocate.
type Processor interface {
	Info() Info

	// GetParameters returns the processor-wide parameters
	GetParameters() *param.Registry

	// UpdateSettings rebuilds per-stream state from host metadata
	UpdateSettings(host process.Host)

	// OnTopologyChange rebuilds one stream's state for a newly discovered
	// ADC count and device
	OnTopologyChange(id stream.ID, adcCount int, deviceName string)

	// Process transforms the current block of one stream in place
	Process(host process.Host, id stream.ID)

	// ProcessBlock processes every stream of the current block
	ProcessBlock(host process.Host)

	// DisplayName returns the label shown for a stream
	DisplayName(id stream.ID) string
}
