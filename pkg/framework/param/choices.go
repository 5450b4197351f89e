package param

import (
	"fmt"
	"strings"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a parameter builder for a multiple choice parameter.
// Option values are expected to be the indices 0..len(options)-1.
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	formatter := func(value float64) string {
		for _, opt := range options {
			if opt.Value == value {
				return opt.Name
			}
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for _, opt := range options {
			if strings.EqualFold(str, opt.Name) {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(str, alias) {
					return opt.Value, nil
				}
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	maxVal := 0.0
	if len(options) > 0 {
		maxVal = options[len(options)-1].Value
	}

	b := New(id, name).
		Range(0, maxVal).
		Steps(int32(max(len(options)-1, 0))).
		Flags(IsList).
		Formatter(formatter, parser)
	if len(options) > 0 {
		b.Default(options[0].Value)
	}
	return b
}

// BypassParameter creates a bypass on/off switch
func BypassParameter(id uint32, name string) *Builder {
	return Choice(id, name, []ChoiceOption{
		{Value: 0, Name: "Active"},
		{Value: 1, Name: "Bypassed"},
	}).Bypass()
}

// EnableParameter creates a stream-scoped on/off switch that defaults to on
func EnableParameter(id uint32, name string) *Builder {
	return New(id, name).
		Toggle().
		On().
		Flags(IsStreamWide).
		Formatter(func(v float64) string {
			if v > 0.5 {
				return "On"
			}
			return "Off"
		}, nil)
}
