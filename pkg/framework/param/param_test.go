package param

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameter(t *testing.T) {
	t.Run("PlainAndNormalized", func(t *testing.T) {
		p := New(1, "Max Block").Range(0, 20000).Default(10000).Build()

		assert.Equal(t, 0.5, p.GetValue())
		assert.Equal(t, 10000.0, p.GetPlainValue())

		p.SetPlainValue(5000)
		assert.Equal(t, 0.25, p.GetValue())

		p.Reset()
		assert.Equal(t, 10000.0, p.GetPlainValue())
	})

	t.Run("Clamping", func(t *testing.T) {
		p := New(1, "x").Build()
		p.SetValue(2)
		assert.Equal(t, 1.0, p.GetValue())
		p.SetValue(-1)
		assert.Equal(t, 0.0, p.GetValue())
		assert.Equal(t, 0.0, p.Normalize(-5))
	})

	t.Run("DegenerateRange", func(t *testing.T) {
		p := New(1, "x").Range(3, 3).Build()
		assert.Equal(t, 0.0, p.Normalize(3))
	})

	t.Run("FormatAndParse", func(t *testing.T) {
		p := New(1, "Cutoff").Range(0, 1000).Unit("Hz").Build()
		assert.Equal(t, "500.00", p.FormatValue(0.5))

		v, err := p.ParseValue("250")
		require.NoError(t, err)
		assert.Equal(t, 0.25, v)

		_, err = p.ParseValue("fast")
		assert.Error(t, err)
	})

	t.Run("ReadOnly", func(t *testing.T) {
		p := New(1, "Meter").ReadOnly().Build()
		assert.NotZero(t, p.Flags&IsReadOnly)
		assert.Zero(t, p.Flags&CanAutomate)
	})
}

func TestToggleParameters(t *testing.T) {
	t.Run("EnableDefaultsOn", func(t *testing.T) {
		p := EnableParameter(7, "enable_stream").Build()
		assert.True(t, p.Enabled())
		assert.NotZero(t, p.Flags&IsStreamWide)
		assert.Equal(t, "On", p.FormatValue(p.GetValue()))

		p.SetEnabled(false)
		assert.False(t, p.Enabled())
		assert.Equal(t, "Off", p.FormatValue(p.GetValue()))
	})

	t.Run("Bypass", func(t *testing.T) {
		p := BypassParameter(0, "Bypass").Build()
		assert.False(t, p.Enabled())
		assert.NotZero(t, p.Flags&IsBypass)
		assert.Equal(t, "Active", p.FormatValue(0))
		assert.Equal(t, "Bypassed", p.FormatValue(1))
	})
}

func TestChoice(t *testing.T) {
	p := Choice(3, "Strategy", []ChoiceOption{
		{Value: 0, Name: "Block"},
		{Value: 1, Name: "Sample", Aliases: []string{"per-sample"}},
		{Value: 2, Name: "Other"},
	}).Build()

	assert.Equal(t, 0, p.Index())
	assert.Equal(t, int32(2), p.StepCount)
	assert.NotZero(t, p.Flags&IsList)

	v, err := p.ParseValue("PER-SAMPLE")
	require.NoError(t, err)
	p.SetValue(v)
	assert.Equal(t, 1, p.Index())
	assert.Equal(t, "Sample", p.FormatValue(p.GetValue()))

	_, err = p.ParseValue("hybrid")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := New(1, "a").Build()
	b := New(2, "b").Build()
	dup := New(1, "duplicate").Build()

	r.Add(a, b, dup)

	assert.Equal(t, 2, r.Count())
	assert.Same(t, a, r.Get(1))
	assert.Same(t, b, r.GetByIndex(1))
	assert.Nil(t, r.GetByIndex(2))
	assert.Nil(t, r.Get(99))
	assert.Equal(t, []*Parameter{a, b}, r.All())
}

func TestChannelMask(t *testing.T) {
	t.Run("DefaultsToAll", func(t *testing.T) {
		m := NewChannelMask("Channels", 385)
		assert.Equal(t, 385, m.Len())
		assert.Equal(t, 385, m.Capacity())
		assert.True(t, m.Contains(384))
	})

	t.Run("SetSortsAndDeduplicates", func(t *testing.T) {
		m := NewChannelMask("Channels", 10)
		m.Set([]int{5, 1, 5, -1, 3, 10, 1})
		assert.Equal(t, []int{1, 3, 5}, m.Channels())
		assert.False(t, m.Contains(2))
	})

	t.Run("Exclude", func(t *testing.T) {
		m := NewChannelMask("Channels", 6)
		m.Exclude(0, 4)
		assert.Equal(t, []int{1, 2, 3, 5}, m.Channels())
	})

	t.Run("ChannelsDoesNotAllocate", func(t *testing.T) {
		m := NewChannelMask("Channels", 384)
		assert.Zero(t, testing.AllocsPerRun(100, func() {
			_ = m.Channels()
		}))
	})

	t.Run("ConcurrentSwap", func(t *testing.T) {
		m := NewChannelMask("Channels", 384)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if i%2 == 0 {
					m.Set([]int{1, 2, 3})
				} else {
					m.SelectAll()
				}
			}
		}()
		for i := 0; i < 200; i++ {
			n := len(m.Channels())
			assert.True(t, n == 3 || n == 384, "torn mask of length %d", n)
		}
		wg.Wait()
	})
}
