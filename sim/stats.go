package sim

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultPercentiles are the percentiles reported when the caller asks for none.
var DefaultPercentiles = []float64{5, 50, 95}

// Summary holds distribution statistics over a set of present values.
type Summary struct {
	Mean        float64
	Std         float64 // population standard deviation
	Min         float64
	Max         float64
	Skewness    float64            // 0 when fewer than 3 outcomes or zero spread
	ProbLoss    float64            // fraction of outcomes below zero
	Percentiles map[string]float64 // keyed by PercentileLabel
}

// PercentileLabel formats p as a map key: 5 -> "p5", 2.5 -> "p2.5".
func PercentileLabel(p float64) string {
	return "p" + strconv.FormatFloat(p, 'f', -1, 64)
}

// SortedPercentileLabels returns the keys of pcts in ascending percentile
// order. Keys that are not percentile labels sort last, by name.
func SortedPercentileLabels(pcts map[string]float64) []string {
	labels := make([]string, 0, len(pcts))
	for l := range pcts {
		labels = append(labels, l)
	}
	value := func(l string) float64 {
		v, err := strconv.ParseFloat(strings.TrimPrefix(l, "p"), 64)
		if err != nil || !strings.HasPrefix(l, "p") {
			return math.Inf(1)
		}
		return v
	}
	sort.Slice(labels, func(i, j int) bool {
		vi, vj := value(labels[i]), value(labels[j])
		if vi != vj {
			return vi < vj
		}
		return labels[i] < labels[j]
	})
	return labels
}

// CalculatePercentile returns the p-th percentile of sorted data using linear
// interpolation between the two closest ranks (rank = p/100 * (n-1)).
// data must be sorted ascending and non-empty.
func CalculatePercentile(data []float64, p float64) float64 {
	n := len(data)

	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))

	if upperIdx >= n {
		return data[n-1]
	}
	if lowerIdx == upperIdx {
		return data[lowerIdx]
	}
	lowerVal := data[lowerIdx]
	upperVal := data[upperIdx]
	return lowerVal + (upperVal-lowerVal)*(rank-float64(lowerIdx))
}

// Percentiles evaluates every requested percentile over outcomes without
// modifying it.
func Percentiles(outcomes []float64, ps []float64) (map[string]float64, error) {
	if len(outcomes) == 0 {
		return nil, ErrEmptyInput
	}
	if err := validatePercentiles(ps); err != nil {
		return nil, err
	}
	sorted := slices.Clone(outcomes)
	sort.Float64s(sorted)
	out := make(map[string]float64, len(ps))
	for _, p := range ps {
		out[PercentileLabel(p)] = CalculatePercentile(sorted, p)
	}
	return out, nil
}

// Summarize computes the full Summary of outcomes.
func Summarize(outcomes []float64, ps []float64) (Summary, error) {
	if len(outcomes) == 0 {
		return Summary{}, ErrEmptyInput
	}
	pcts, err := Percentiles(outcomes, ps)
	if err != nil {
		return Summary{}, err
	}
	mean, std := stat.PopMeanStdDev(outcomes, nil)
	s := Summary{
		Mean:        mean,
		Std:         std,
		Min:         floats.Min(outcomes),
		Max:         floats.Max(outcomes),
		Percentiles: pcts,
	}
	if len(outcomes) >= 3 && std > 0 {
		s.Skewness = stat.Skew(outcomes, nil)
	}
	losses := 0
	for _, v := range outcomes {
		if v < 0 {
			losses++
		}
	}
	s.ProbLoss = float64(losses) / float64(len(outcomes))
	return s, nil
}

func validatePercentiles(ps []float64) error {
	for _, p := range ps {
		if math.IsNaN(p) || p < 0 || p > 100 {
			return configErrorf("percentiles", "%g is outside [0, 100]", p)
		}
	}
	return nil
}
