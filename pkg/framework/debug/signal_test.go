package debug

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalAnalyzer(t *testing.T) {
	a := NewSignalAnalyzer()

	t.Run("Levels", func(t *testing.T) {
		r := a.Analyze([]float32{10, -30, 10, 10})
		assert.Equal(t, float32(30), r.Peak)
		assert.Equal(t, float32(0), r.DC)
		assert.InDelta(t, math.Sqrt(300), r.RMS, 1e-4)
		assert.False(t, r.Silent)
		assert.False(t, r.Clipping)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, AnalysisResult{}, a.Analyze(nil))
	})

	t.Run("NaNExcluded", func(t *testing.T) {
		nan := float32(math.NaN())
		r := a.Analyze([]float32{nan, 4, nan, 4})
		assert.True(t, r.HasNaN)
		assert.Equal(t, 2, r.NaNCount)
		assert.Equal(t, float32(4), r.DC)
	})

	t.Run("SaturationAndSilence", func(t *testing.T) {
		r := a.Analyze([]float32{32767, -32768, 0})
		assert.True(t, r.Clipping)
		assert.Equal(t, 2, r.ClippedSamples)

		assert.True(t, a.Analyze([]float32{0, 0, 0}).Silent)
	})

	t.Run("Check", func(t *testing.T) {
		assert.Empty(t, a.Check([]float32{1, -1}, "ch0"))

		issues := a.Check([]float32{200, 200, 32767}, "ch5")
		assert.Len(t, issues, 2)
		assert.Contains(t, issues[0], "ch5: saturated")
		assert.Contains(t, issues[1], "DC offset")
	})

	t.Run("OffsetCheckDisabled", func(t *testing.T) {
		raw := NewSignalAnalyzer()
		raw.DCThreshold = 0
		assert.Empty(t, raw.Check([]float32{900, 910, 905}, "ch1"))

		nan := float32(math.NaN())
		issues := raw.Check([]float32{nan, 1}, "ch1")
		assert.Equal(t, []string{"ch1: contains 1 NaN values"}, issues)
	})
}

func TestRunningStats(t *testing.T) {
	var r RunningStats
	assert.Zero(t, r.RMS())

	r.Add([]float32{3, -3})
	r.Add([]float32{3, -3, -5})

	assert.Equal(t, int64(5), r.Count())
	assert.InDelta(t, math.Sqrt((4*9+25)/5.0), r.RMS(), 1e-12)
	assert.Equal(t, float32(5), r.Peak())
}
