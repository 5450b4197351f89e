package car

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGroups(t *testing.T) {
	tests := []struct {
		name       string
		adcCount   int
		wantGroups int
		wantOK     bool
	}{
		{"NP1", 32, 12, true},
		{"NP2", 24, 16, true},
		{"Unknown", 0, 0, false},
		{"Sixteen", 16, 0, false},
		{"ThirtyThree", 33, 0, false},
		{"Negative", -32, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := ComputeGroups(tt.adcCount)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantGroups, g.Count())
			assert.Equal(t, tt.wantGroups, GroupCount(tt.adcCount))
			assert.Equal(t, tt.wantOK, g.Enabled())

			if !ok {
				assert.Equal(t, -1, g.Group(0))
				return
			}
			assert.Equal(t, tt.adcCount, g.ADCCount())
			for ch := 0; ch < ProbeChannels; ch++ {
				require.Equal(t, (ch/2)%tt.wantGroups, g.Group(ch), "channel %d", ch)
			}
		})
	}
}

func TestGroupsBoundaries(t *testing.T) {
	g, _ := ComputeGroups(32)
	assert.Equal(t, -1, g.Group(ProbeChannels))
	assert.Equal(t, -1, g.Group(ProbeChannels+1))
	assert.Equal(t, -1, g.Group(-1))

	var zero Groups
	assert.False(t, zero.Enabled())
	assert.Nil(t, zero.Members(0))
}

func TestGroupsIdempotent(t *testing.T) {
	a, _ := ComputeGroups(24)
	b, _ := ComputeGroups(24)
	assert.Equal(t, a, b)
}

func TestGroupMembers(t *testing.T) {
	t.Run("NP1", func(t *testing.T) {
		g, _ := ComputeGroups(32)
		members := g.Members(0)
		assert.Len(t, members, ProbeChannels/12)
		assert.Equal(t, []int{0, 1, 24, 25, 48, 49}, members[:6])
	})

	t.Run("NP2PairsAdjacentChannels", func(t *testing.T) {
		g, _ := ComputeGroups(24)
		assert.Equal(t, 1, g.Group(2))
		assert.Equal(t, 1, g.Group(3))
		members := g.Members(1)
		assert.Len(t, members, ProbeChannels/16)
		assert.Equal(t, []int{2, 3, 34, 35}, members[:4])
	})

	t.Run("EveryChannelInExactlyOneGroup", func(t *testing.T) {
		for _, adcs := range []int{24, 32} {
			g, _ := ComputeGroups(adcs)
			seen := make(map[int]int)
			for group := 0; group < g.Count(); group++ {
				for _, ch := range g.Members(group) {
					seen[ch]++
				}
			}
			assert.Len(t, seen, ProbeChannels)
			for ch, n := range seen {
				assert.Equal(t, 1, n, "channel %d", ch)
			}
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		g, _ := ComputeGroups(32)
		assert.Nil(t, g.Members(12))
		assert.Nil(t, g.Members(-1))
	})
}
