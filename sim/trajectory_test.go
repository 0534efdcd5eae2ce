package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompound_ZeroGrowth_ConstantTrajectory(t *testing.T) {
	// GIVEN a growth path of all zeros
	levels := Compound(250, []float64{0, 0, 0, 0, 0})

	// THEN every period equals the base value
	require.Len(t, levels, 6)
	for i, v := range levels {
		if v != 250 {
			t.Errorf("level[%d] = %v, want 250", i, v)
		}
	}
}

func TestCompound_RecursiveScan(t *testing.T) {
	levels := Compound(100, []float64{0.1, -0.5, 1.0})
	want := []float64{100, 100 * 1.1, 100 * 1.1 * 0.5, 100 * 1.1 * 0.5 * 2}
	require.Len(t, levels, len(want))
	for i := range want {
		assert.InDelta(t, want[i], levels[i], 1e-9, "level[%d]", i)
	}
}

func TestCompound_GrowthBelowMinusOne_NegativeLevels(t *testing.T) {
	// Not an error: the level simply flips sign.
	levels := Compound(100, []float64{-1.5, 0})
	assert.Equal(t, []float64{100, -50, -50}, levels)
}

func TestCompound_EmptyPath_BaseOnly(t *testing.T) {
	assert.Equal(t, []float64{42}, Compound(42, nil))
}

func TestSamplePath_LengthAndDeterminism(t *testing.T) {
	s := &GaussianSampler{mean: 0.1, std: 0.05}
	a := SamplePath(s, testSource(3), 7)
	b := SamplePath(s, testSource(3), 7)
	assert.Len(t, a, 7)
	assert.Equal(t, a, b)
}
