package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalRevenue_SumsStreamsPerPeriod(t *testing.T) {
	levels := map[string][]float64{
		"a": {100, 110, 121},
		"b": {50, 40, 30},
	}
	got, err := TotalRevenue(levels, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{150, 150, 151}, got)
}

func TestTotalRevenue_DoesNotMutateInputs(t *testing.T) {
	a := []float64{1, 2, 3}
	levels := map[string][]float64{"a": a, "b": {1, 1, 1}}
	_, err := TotalRevenue(levels, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, a)
}

func TestTotalRevenue_MismatchedLengths_ConfigurationError(t *testing.T) {
	levels := map[string][]float64{
		"a": {100, 110, 121},
		"b": {50, 40},
	}
	_, err := TotalRevenue(levels, []string{"a", "b"})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "revenue_trajectory[b]", cfgErr.Field)
}

func TestTotalRevenue_MissingStream_ConfigurationError(t *testing.T) {
	_, err := TotalRevenue(map[string][]float64{"a": {1}}, []string{"a", "b"})
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestFreeCashFlow_AppliesMargins(t *testing.T) {
	fcf := FreeCashFlow([]float64{100, 200}, 0.3, 0.1)
	assert.InDelta(t, 20, fcf[0], 1e-12)
	assert.InDelta(t, 40, fcf[1], 1e-12)
}

func TestPresentValue_ZeroRate_UndiscountedFutureSum(t *testing.T) {
	// GIVEN discount_rate = 0
	fcf := []float64{1000, 10, 20, 30}

	// WHEN valued
	pv, err := PresentValue(fcf, 0)
	require.NoError(t, err)

	// THEN pv is the plain sum of periods 1..H; period 0 never counts
	assert.Equal(t, 60.0, pv)
}

func TestPresentValue_ExcludesPeriodZero(t *testing.T) {
	withBase, err := PresentValue([]float64{1e9, 5, 5}, 0.1)
	require.NoError(t, err)
	withoutBase, err := PresentValue([]float64{0, 5, 5}, 0.1)
	require.NoError(t, err)
	assert.Equal(t, withoutBase, withBase)
}

func TestPresentValue_DiscountsByPeriodIndex(t *testing.T) {
	pv, err := PresentValue([]float64{0, 110, 121}, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 200, pv, 1e-9)
}

func TestPresentValue_InvalidRate(t *testing.T) {
	for _, rate := range []float64{-1, -1.5} {
		_, err := PresentValue([]float64{0, 1}, rate)
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "discount_rate" {
			t.Errorf("rate %v: got %v, want discount_rate ConfigurationError", rate, err)
		}
	}
}

func TestValuate_SinglePeriodClosedForm(t *testing.T) {
	// GIVEN horizon 1, deterministic growth g on one stream
	const (
		base = 250.0
		g    = 0.07
		m    = 0.4
		o    = 0.15
		r    = 0.09
	)
	a := AssumptionSet{
		BaseValues:            map[string]float64{"a": base},
		GrowthDistributions:   map[string]DistSpec{"a": {Mean: g}},
		GrossMargin:           m,
		OperatingExpenseRatio: o,
		DiscountRate:          r,
		HorizonPeriods:        1,
	}
	levels := map[string][]float64{"a": Compound(base, []float64{g})}

	// WHEN valued
	v, err := Valuate(levels, &a)
	require.NoError(t, err)

	// THEN pv = B(1+g)(m-o)/(1+r)
	assert.InDelta(t, base*(1+g)*(m-o)/(1+r), v.PresentValue, 1e-9)
	assert.Len(t, v.TotalRevenue, 2)
	assert.Len(t, v.FreeCashFlow, 2)
}

func TestValuate_EndToEndExample(t *testing.T) {
	a := AssumptionSet{
		BaseValues:            map[string]float64{"A": 100},
		GrowthDistributions:   map[string]DistSpec{"A": {Mean: 0, Std: 0}},
		GrossMargin:           0.3,
		OperatingExpenseRatio: 0.1,
		DiscountRate:          0.1,
		HorizonPeriods:        2,
	}
	levels := map[string][]float64{"A": Compound(100, []float64{0, 0})}
	v, err := Valuate(levels, &a)
	require.NoError(t, err)

	assert.Equal(t, []float64{100, 100, 100}, v.TotalRevenue)
	for i, f := range v.FreeCashFlow {
		assert.InDelta(t, 20, f, 1e-12, "fcf[%d]", i)
	}
	assert.InDelta(t, 20/1.1+20/1.21, v.PresentValue, 1e-9)
	assert.InDelta(t, 34.71, v.PresentValue, 0.005)
}

func TestValuate_NegativeMargin_NegativePV(t *testing.T) {
	// Negative free cash flow is a legitimate outcome.
	a := AssumptionSet{
		BaseValues:            map[string]float64{"a": 100},
		GrowthDistributions:   map[string]DistSpec{"a": {}},
		GrossMargin:           0.1,
		OperatingExpenseRatio: 0.3,
		DiscountRate:          0,
		HorizonPeriods:        1,
	}
	v, err := Valuate(map[string][]float64{"a": {100, 100}}, &a)
	require.NoError(t, err)
	assert.InDelta(t, -20, v.PresentValue, 1e-9)
}
