package sim

import "math/rand/v2"

// SamplePath draws horizon independent growth rates from s, in period order.
func SamplePath(s GrowthSampler, src rand.Source, horizon int) []float64 {
	path := make([]float64, horizon)
	for i := range path {
		path[i] = s.Sample(src)
	}
	return path
}

// Compound turns a base level and a growth path of length H into a level
// trajectory of length H+1:
//
//	level[0] = base
//	level[i] = level[i-1] * (1 + growth[i-1])
//
// Rates below -1 yield negative levels; that is a valid outcome, not an error.
func Compound(base float64, growth []float64) []float64 {
	levels := make([]float64, len(growth)+1)
	levels[0] = base
	for i, g := range growth {
		levels[i+1] = levels[i] * (1 + g)
	}
	return levels
}
