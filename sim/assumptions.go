package sim

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/sirupsen/logrus"
)

// AssumptionSet is the immutable configuration of one simulation run.
// Every stream in BaseValues needs a matching entry in GrowthDistributions.
type AssumptionSet struct {
	BaseValues            map[string]float64  // period-0 level per stream
	GrowthDistributions   map[string]DistSpec // per-period growth rate per stream
	GrossMargin           float64             // fraction of revenue, in [0,1]
	OperatingExpenseRatio float64             // fraction of revenue, in [0,1]
	DiscountRate          float64             // per-period rate, > -1
	HorizonPeriods        int                 // future periods simulated, >= 1
}

// DefaultAssumptions returns the five-year, two-stream plan the engine was
// built around: a direct-to-consumer and a business stream.
func DefaultAssumptions() AssumptionSet {
	return AssumptionSet{
		BaseValues: map[string]float64{
			"d2c": 52_600_000,
			"b2b": 35_600_000,
		},
		GrowthDistributions: map[string]DistSpec{
			"d2c": {Type: DistGaussian, Mean: 0.15, Std: 0.05},
			"b2b": {Type: DistGaussian, Mean: 0.20, Std: 0.08},
		},
		GrossMargin:           0.28,
		OperatingExpenseRatio: 0.25,
		DiscountRate:          0.12,
		HorizonPeriods:        5,
	}
}

// StreamNames returns the stream names in sorted order. All per-stream
// iteration goes through this order so that draws are reproducible.
func (a *AssumptionSet) StreamNames() []string {
	return slices.Sorted(maps.Keys(a.BaseValues))
}

// CashMargin is the fraction of revenue that becomes free cash flow.
func (a *AssumptionSet) CashMargin() float64 {
	return a.GrossMargin - a.OperatingExpenseRatio
}

// Clone returns a deep copy so that callers cannot mutate a running set.
func (a *AssumptionSet) Clone() AssumptionSet {
	out := *a
	out.BaseValues = maps.Clone(a.BaseValues)
	out.GrowthDistributions = make(map[string]DistSpec, len(a.GrowthDistributions))
	for name, d := range a.GrowthDistributions {
		d.Params = maps.Clone(d.Params)
		out.GrowthDistributions[name] = d
	}
	return out
}

// Validate checks every invariant of the set and returns the first
// violation as a *ConfigurationError.
func (a *AssumptionSet) Validate() error {
	if a.HorizonPeriods < 1 {
		return configErrorf("horizon_periods", "must be at least 1, got %d", a.HorizonPeriods)
	}
	if len(a.BaseValues) == 0 {
		return configErrorf("base_values", "at least one revenue stream required")
	}
	for _, name := range a.StreamNames() {
		field := fmt.Sprintf("base_values[%s]", name)
		base := a.BaseValues[name]
		if math.IsNaN(base) || math.IsInf(base, 0) {
			return configErrorf(field, "must be a finite number, got %f", base)
		}
		if base < 0 {
			return configErrorf(field, "must be non-negative, got %g", base)
		}
		dist, ok := a.GrowthDistributions[name]
		if !ok {
			return configErrorf(fmt.Sprintf("growth_distributions[%s]", name), "missing distribution for stream %q", name)
		}
		if _, err := NewGrowthSampler(dist); err != nil {
			return configErrorf(fmt.Sprintf("growth_distributions[%s]", name), "%v", err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(a.GrowthDistributions)) {
		if _, ok := a.BaseValues[name]; !ok {
			return configErrorf(fmt.Sprintf("growth_distributions[%s]", name), "no base value for stream %q", name)
		}
	}
	if err := validateFraction("gross_margin", a.GrossMargin); err != nil {
		return err
	}
	if err := validateFraction("operating_expense_ratio", a.OperatingExpenseRatio); err != nil {
		return err
	}
	if err := validateDiscountRate(a.DiscountRate); err != nil {
		return err
	}
	return nil
}

// warnDegenerate logs conditions that are valid but usually unintended.
func (a *AssumptionSet) warnDegenerate() {
	if a.CashMargin() < 0 {
		logrus.Warnf("gross_margin %.4f is below operating_expense_ratio %.4f; every period has negative free cash flow",
			a.GrossMargin, a.OperatingExpenseRatio)
	}
	for _, name := range a.StreamNames() {
		if floor := a.GrowthDistributions[name].practicalFloor(); floor < -1 {
			logrus.Warnf("stream %q can draw growth rates below -1 (floor %.3f); revenue levels may turn negative", name, floor)
		}
	}
}

func validateFraction(field string, val float64) error {
	if math.IsNaN(val) || val < 0 || val > 1 {
		return configErrorf(field, "must be in [0, 1], got %g", val)
	}
	return nil
}

func validateDiscountRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return configErrorf("discount_rate", "must be a finite number, got %f", rate)
	}
	if rate <= -1 {
		return configErrorf("discount_rate", "must be greater than -1, got %g", rate)
	}
	return nil
}
