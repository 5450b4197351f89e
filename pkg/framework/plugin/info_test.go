package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/neuropixelscar/pkg/framework/param"
)

func TestUIDGeneration(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"CAR", "org.open-ephys.neuropixels-car"},
		{"Other", "org.open-ephys.bandpass"},
		{"Empty", ""},
	}

	seen := map[[16]byte]string{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Info{ID: tt.id}
			uid := info.UID()

			assert.Equal(t, uid, info.UID(), "UID must be deterministic")
			assert.Equal(t, byte(0x50), uid[6]&0xf0, "version nibble")
			assert.Equal(t, byte(0x80), uid[8]&0xc0, "variant bits")

			_, dup := seen[uid]
			assert.False(t, dup, "UID collides with %s", seen[uid])
			seen[uid] = tt.id
		})
	}
}

func TestFormatUID(t *testing.T) {
	uid := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	assert.Equal(t, "12345678-9abc-def0-1122-334455667788", FormatUID(uid))
	assert.Len(t, FormatUID(Info{ID: "x"}.UID()), 36)
}

func TestBase(t *testing.T) {
	info := Info{ID: "org.open-ephys.neuropixels-car", Name: "Neuropixels CAR", Version: "0.1.0"}
	b := NewBase(info)

	assert.Equal(t, info, b.Info())
	assert.Equal(t, "Neuropixels CAR 0.1.0 (org.open-ephys.neuropixels-car)", b.Info().String())

	b.GetParameters().Add(param.BypassParameter(0, "Bypass").Build())
	assert.Equal(t, 1, b.GetParameters().Count())
}

func TestParameterText(t *testing.T) {
	b := NewBase(Info{ID: "x"})
	b.GetParameters().Add(
		param.BypassParameter(0, "Bypass").Build(),
		param.Choice(1, "Strategy", []param.ChoiceOption{
			{Value: 0, Name: "Block"},
			{Value: 1, Name: "Sample"},
		}).Build(),
	)
	assert.Equal(t, "Bypass=Active, Strategy=Block", b.ParameterSummary())

	require.NoError(t, b.SetParameterText("strategy", "sample"))
	require.NoError(t, b.SetParameterText(" Bypass ", "Bypassed"))
	assert.Equal(t, "Bypass=Bypassed, Strategy=Sample", b.ParameterSummary())

	err := b.SetParameterText("Gain", "3")
	assert.ErrorIs(t, err, ErrUnknownParameter)

	err = b.SetParameterText("Strategy", "hybrid")
	assert.ErrorContains(t, err, "Strategy:")
	assert.Equal(t, "Bypass=Bypassed, Strategy=Sample", b.ParameterSummary())
}

