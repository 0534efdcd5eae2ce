package sim

import (
	"math"
	"math/rand/v2"
)

// Trial is one independently sampled outcome. It is built fresh per trial
// and shares no mutable state with any other trial.
type Trial struct {
	Index             int
	GrowthPaths       map[string][]float64 // H rates per stream
	RevenueTrajectory map[string][]float64 // H+1 levels per stream, index 0 = base
	TotalRevenue      []float64
	FreeCashFlow      []float64
	PresentValue      float64
}

// forecastModel is the compiled, read-only form of an AssumptionSet.
type forecastModel struct {
	assumptions AssumptionSet
	streams     []string
	samplers    map[string]GrowthSampler
}

func newForecastModel(a AssumptionSet) (*forecastModel, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	m := &forecastModel{
		assumptions: a.Clone(),
		streams:     a.StreamNames(),
		samplers:    make(map[string]GrowthSampler, len(a.BaseValues)),
	}
	for _, name := range m.streams {
		s, err := NewGrowthSampler(a.GrowthDistributions[name])
		if err != nil {
			return nil, configErrorf("growth_distributions["+name+"]", "%v", err)
		}
		m.samplers[name] = s
	}
	return m, nil
}

// runTrial samples every stream from src in sorted stream order, compounds
// the paths and values the result.
func (m *forecastModel) runTrial(index int, src rand.Source) (*Trial, error) {
	horizon := m.assumptions.HorizonPeriods
	t := &Trial{
		Index:             index,
		GrowthPaths:       make(map[string][]float64, len(m.streams)),
		RevenueTrajectory: make(map[string][]float64, len(m.streams)),
	}
	for _, name := range m.streams {
		path := SamplePath(m.samplers[name], src, horizon)
		t.GrowthPaths[name] = path
		t.RevenueTrajectory[name] = Compound(m.assumptions.BaseValues[name], path)
	}
	v, err := Valuate(t.RevenueTrajectory, &m.assumptions)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v.PresentValue) || math.IsInf(v.PresentValue, 0) {
		return nil, &NumericError{Trial: index, Value: v.PresentValue}
	}
	t.TotalRevenue = v.TotalRevenue
	t.FreeCashFlow = v.FreeCashFlow
	t.PresentValue = v.PresentValue
	return t, nil
}
