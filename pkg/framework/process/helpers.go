package process

import (
	"github.com/justyntemme/neuropixelscar/pkg/framework/stream"
)

// ProcessStream calls fn for every channel of a stream with the current
// block view, selected or not. Unknown streams are ignored.
func (c *Context) ProcessStream(id stream.ID, fn func(local int, samples []float32)) {
	s := c.streams.Get(id)
	if s == nil {
		return
	}
	i, _ := c.streams.Index(id)
	n := c.numSamples[i]
	for local := 0; local < s.ChannelCount; local++ {
		fn(local, c.channels[s.FirstChannel()+local][:n])
	}
}
