package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Valuation is the cash-flow view of one set of stream trajectories.
// Index 0 of each slice is the base period.
type Valuation struct {
	TotalRevenue []float64
	FreeCashFlow []float64
	PresentValue float64
}

// TotalRevenue sums the stream trajectories period by period, visiting
// streams in the given order. All trajectories must share one length.
func TotalRevenue(levels map[string][]float64, order []string) ([]float64, error) {
	if len(order) == 0 {
		return nil, configErrorf("revenue_trajectory", "no streams to combine")
	}
	var total []float64
	for _, name := range order {
		traj, ok := levels[name]
		if !ok {
			return nil, configErrorf(fmt.Sprintf("revenue_trajectory[%s]", name), "missing trajectory")
		}
		if total == nil {
			total = make([]float64, len(traj))
		}
		if len(traj) != len(total) {
			return nil, configErrorf(fmt.Sprintf("revenue_trajectory[%s]", name),
				"length %d does not match %d of stream %q", len(traj), len(total), order[0])
		}
		floats.Add(total, traj)
	}
	return total, nil
}

// FreeCashFlow applies gross margin and operating expense ratio to each
// period's revenue: revenue*grossMargin - revenue*opexRatio.
func FreeCashFlow(revenue []float64, grossMargin, opexRatio float64) []float64 {
	fcf := make([]float64, len(revenue))
	for i, r := range revenue {
		fcf[i] = r*grossMargin - r*opexRatio
	}
	return fcf
}

// PresentValue discounts periods 1..H of fcf at rate and sums them.
// Period 0 is the current year and never contributes.
func PresentValue(fcf []float64, rate float64) (float64, error) {
	if err := validateDiscountRate(rate); err != nil {
		return 0, err
	}
	pv := 0.0
	for i := 1; i < len(fcf); i++ {
		pv += fcf[i] / math.Pow(1+rate, float64(i))
	}
	return pv, nil
}

// Valuate runs the full cash-flow transform over one trial's trajectories.
func Valuate(levels map[string][]float64, a *AssumptionSet) (Valuation, error) {
	revenue, err := TotalRevenue(levels, a.StreamNames())
	if err != nil {
		return Valuation{}, err
	}
	fcf := FreeCashFlow(revenue, a.GrossMargin, a.OperatingExpenseRatio)
	pv, err := PresentValue(fcf, a.DiscountRate)
	if err != nil {
		return Valuation{}, err
	}
	return Valuation{TotalRevenue: revenue, FreeCashFlow: fcf, PresentValue: pv}, nil
}
