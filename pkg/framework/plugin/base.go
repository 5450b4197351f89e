package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/justyntemme/neuropixelscar/pkg/framework/param"
)

// ErrUnknownParameter is returned when no parameter has the requested name
var ErrUnknownParameter = errors.New("unknown parameter")

// Base provides core functionality for all processors
type Base struct {
	info   Info
	params *param.Registry
}

// NewBase creates a new processor base
func NewBase(info Info) *Base {
	return &Base{
		info:   info,
		params: param.NewRegistry(),
	}
}

// Info returns the processor metadata
func (b *Base) Info() Info {
	return b.info
}

// GetParameters returns the parameter registry
func (b *Base) GetParameters() *param.Registry {
	return b.params
}

// SetParameterText sets the parameter called name (case-insensitive) from
// its display text, e.g. "Strategy" to "Sample".
func (b *Base) SetParameterText(name, text string) error {
	for i := 0; i < b.params.Count(); i++ {
		p := b.params.GetByIndex(i)
		if !strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			continue
		}
		v, err := p.ParseValue(text)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
		p.SetValue(v)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// ParameterSummary formats every parameter as "Name=Value", in
// registration order
func (b *Base) ParameterSummary() string {
	params := b.params.All()
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + "=" + p.FormatValue(p.GetValue())
	}
	return strings.Join(parts, ", ")
}
