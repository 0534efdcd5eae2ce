package sim

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func testSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, pcgIncrement)
}

func TestNewGrowthSampler_Families(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
		want any
	}{
		{"empty type is gaussian", DistSpec{Mean: 0.1, Std: 0.02}, &GaussianSampler{}},
		{"gaussian", DistSpec{Type: DistGaussian, Mean: 0.1, Std: 0.02}, &GaussianSampler{}},
		{"uniform", DistSpec{Type: DistUniform, Params: map[string]float64{"min": -0.1, "max": 0.3}}, &UniformSampler{}},
		{"degenerate uniform", DistSpec{Type: DistUniform, Params: map[string]float64{"min": 0.2, "max": 0.2}}, &ConstantSampler{}},
		{"triangular", DistSpec{Type: DistTriangular, Params: map[string]float64{"min": 0, "mode": 0.1, "max": 0.4}}, &TriangularSampler{}},
		{"student_t", DistSpec{Type: DistStudentT, Mean: 0.1, Std: 0.05, Params: map[string]float64{"nu": 4}}, &StudentTSampler{}},
		{"constant", DistSpec{Type: DistConstant, Mean: 0.07}, &ConstantSampler{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewGrowthSampler(tt.spec)
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestNewGrowthSampler_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
	}{
		{"unknown type", DistSpec{Type: "lognormal"}},
		{"negative std", DistSpec{Mean: 0.1, Std: -0.01}},
		{"NaN mean", DistSpec{Mean: math.NaN()}},
		{"infinite std", DistSpec{Std: math.Inf(1)}},
		{"uniform missing max", DistSpec{Type: DistUniform, Params: map[string]float64{"min": 0}}},
		{"uniform inverted", DistSpec{Type: DistUniform, Params: map[string]float64{"min": 0.3, "max": 0.1}}},
		{"triangular missing mode", DistSpec{Type: DistTriangular, Params: map[string]float64{"min": 0, "max": 1}}},
		{"triangular mode outside", DistSpec{Type: DistTriangular, Params: map[string]float64{"min": 0, "mode": 2, "max": 1}}},
		{"triangular zero width", DistSpec{Type: DistTriangular, Params: map[string]float64{"min": 1, "mode": 1, "max": 1}}},
		{"student_t missing nu", DistSpec{Type: DistStudentT, Std: 0.1}},
		{"student_t non-positive nu", DistSpec{Type: DistStudentT, Std: 0.1, Params: map[string]float64{"nu": 0}}},
		{"infinite param", DistSpec{Type: DistUniform, Params: map[string]float64{"min": 0, "max": math.Inf(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrowthSampler(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestGaussianSampler_ZeroStd_ReturnsMean(t *testing.T) {
	// GIVEN a gaussian with std = 0
	s, err := NewGrowthSampler(DistSpec{Mean: 0.15, Std: 0})
	require.NoError(t, err)

	// THEN every draw equals the mean exactly
	src := testSource(1)
	for i := 0; i < 100; i++ {
		if v := s.Sample(src); v != 0.15 {
			t.Fatalf("draw %d = %v, want 0.15", i, v)
		}
	}
}

func TestGaussianSampler_Moments(t *testing.T) {
	s, err := NewGrowthSampler(DistSpec{Mean: 0.15, Std: 0.05})
	require.NoError(t, err)

	draws := SamplePath(s, testSource(42), 20000)
	mean, std := stat.PopMeanStdDev(draws, nil)
	assert.InDelta(t, 0.15, mean, 0.002)
	assert.InDelta(t, 0.05, std, 0.002)
}

func TestBoundedSamplers_StayInSupport(t *testing.T) {
	specs := []DistSpec{
		{Type: DistUniform, Params: map[string]float64{"min": -0.05, "max": 0.25}},
		{Type: DistTriangular, Params: map[string]float64{"min": -0.05, "mode": 0.1, "max": 0.25}},
	}
	for _, spec := range specs {
		t.Run(spec.Type, func(t *testing.T) {
			s, err := NewGrowthSampler(spec)
			require.NoError(t, err)
			for _, v := range SamplePath(s, testSource(7), 5000) {
				if v < -0.05 || v > 0.25 {
					t.Fatalf("draw %v outside [-0.05, 0.25]", v)
				}
			}
		})
	}
}

func TestConstantSampler_ConsumesNoEntropy(t *testing.T) {
	s, err := NewGrowthSampler(DistSpec{Type: DistConstant, Mean: 0.3})
	require.NoError(t, err)

	used := testSource(5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, 0.3, s.Sample(used))
	}
	assert.Equal(t, testSource(5).Uint64(), used.Uint64(), "constant sampler advanced the source")
}

func TestStudentTSampler_Deterministic(t *testing.T) {
	s, err := NewGrowthSampler(DistSpec{Type: DistStudentT, Mean: 0.1, Std: 0.05, Params: map[string]float64{"nu": 5}})
	require.NoError(t, err)
	a := SamplePath(s, testSource(11), 50)
	b := SamplePath(s, testSource(11), 50)
	assert.Equal(t, a, b)
}

func TestDistSpec_PracticalFloor(t *testing.T) {
	assert.InDelta(t, -0.2, DistSpec{Mean: 0.1, Std: 0.1}.practicalFloor(), 1e-12)
	assert.Equal(t, -0.5, DistSpec{Type: DistUniform, Params: map[string]float64{"min": -0.5, "max": 0}}.practicalFloor())
	assert.Equal(t, 0.04, DistSpec{Type: DistConstant, Mean: 0.04}.practicalFloor())
}
