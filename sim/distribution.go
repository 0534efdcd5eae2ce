package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution family names accepted in DistSpec.Type.
const (
	DistGaussian   = "gaussian"
	DistUniform    = "uniform"
	DistTriangular = "triangular"
	DistStudentT   = "student_t"
	DistConstant   = "constant"
)

var validDistTypes = map[string]bool{
	"": true, DistGaussian: true, DistUniform: true, DistTriangular: true, DistStudentT: true, DistConstant: true,
}

// DistSpec describes the per-period growth-rate distribution of one stream.
// An empty Type means gaussian. Families that need more than a location and
// scale read the rest from Params.
type DistSpec struct {
	Type   string             `yaml:"type,omitempty"`
	Mean   float64            `yaml:"mean"`
	Std    float64            `yaml:"std"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Family returns the normalized family name.
func (d DistSpec) Family() string {
	if d.Type == "" {
		return DistGaussian
	}
	return d.Type
}

// GrowthSampler draws one growth rate per call from src.
type GrowthSampler interface {
	Sample(src rand.Source) float64
}

// GaussianSampler draws N(mean, std). std = 0 yields mean on every draw.
type GaussianSampler struct {
	mean, std float64
}

func (s *GaussianSampler) Sample(src rand.Source) float64 {
	return distuv.Normal{Mu: s.mean, Sigma: s.std, Src: src}.Rand()
}

// UniformSampler draws from U[min, max).
type UniformSampler struct {
	min, max float64
}

func (s *UniformSampler) Sample(src rand.Source) float64 {
	return distuv.Uniform{Min: s.min, Max: s.max, Src: src}.Rand()
}

// TriangularSampler draws from a triangle on [min, max] peaking at mode.
type TriangularSampler struct {
	min, mode, max float64
}

func (s *TriangularSampler) Sample(src rand.Source) float64 {
	return distuv.NewTriangle(s.min, s.max, s.mode, src).Rand()
}

// StudentTSampler draws a location/scale Student's t with nu degrees of freedom.
// Heavier tails than gaussian for the same scale.
type StudentTSampler struct {
	mean, scale, nu float64
}

func (s *StudentTSampler) Sample(src rand.Source) float64 {
	return distuv.StudentsT{Mu: s.mean, Sigma: s.scale, Nu: s.nu, Src: src}.Rand()
}

// ConstantSampler always returns the same rate and consumes no entropy.
type ConstantSampler struct {
	value float64
}

func (s *ConstantSampler) Sample(_ rand.Source) float64 {
	return s.value
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewGrowthSampler creates a GrowthSampler from a DistSpec.
func NewGrowthSampler(spec DistSpec) (GrowthSampler, error) {
	if !validDistTypes[spec.Type] {
		return nil, fmt.Errorf("unknown distribution type %q; valid: gaussian, uniform, triangular, student_t, constant", spec.Type)
	}
	if err := checkFinite("mean", spec.Mean); err != nil {
		return nil, err
	}
	if err := checkFinite("std", spec.Std); err != nil {
		return nil, err
	}
	for name, val := range spec.Params {
		if err := checkFinite("params."+name, val); err != nil {
			return nil, err
		}
	}

	switch spec.Family() {
	case DistGaussian:
		if spec.Std < 0 {
			return nil, fmt.Errorf("std must be non-negative, got %g", spec.Std)
		}
		return &GaussianSampler{mean: spec.Mean, std: spec.Std}, nil

	case DistUniform:
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		lo, hi := spec.Params["min"], spec.Params["max"]
		if lo > hi {
			return nil, fmt.Errorf("uniform min %g exceeds max %g", lo, hi)
		}
		if lo == hi {
			return &ConstantSampler{value: lo}, nil
		}
		return &UniformSampler{min: lo, max: hi}, nil

	case DistTriangular:
		if err := requireParam(spec.Params, "min", "mode", "max"); err != nil {
			return nil, err
		}
		lo, mode, hi := spec.Params["min"], spec.Params["mode"], spec.Params["max"]
		if lo >= hi {
			return nil, fmt.Errorf("triangular min %g must be below max %g", lo, hi)
		}
		if mode < lo || mode > hi {
			return nil, fmt.Errorf("triangular mode %g outside [%g, %g]", mode, lo, hi)
		}
		return &TriangularSampler{min: lo, mode: mode, max: hi}, nil

	case DistStudentT:
		if err := requireParam(spec.Params, "nu"); err != nil {
			return nil, err
		}
		if spec.Std < 0 {
			return nil, fmt.Errorf("std must be non-negative, got %g", spec.Std)
		}
		nu := spec.Params["nu"]
		if nu <= 0 {
			return nil, fmt.Errorf("student_t nu must be positive, got %g", nu)
		}
		return &StudentTSampler{mean: spec.Mean, scale: spec.Std, nu: nu}, nil

	default:
		return &ConstantSampler{value: spec.Mean}, nil
	}
}

// practicalFloor is the lowest rate the distribution produces with non-negligible
// probability: the support minimum for bounded families, mean - 3 scale
// otherwise.
func (d DistSpec) practicalFloor() float64 {
	switch d.Family() {
	case DistGaussian, DistStudentT:
		return d.Mean - 3*d.Std
	case DistUniform, DistTriangular:
		return d.Params["min"]
	default:
		return d.Mean
	}
}

func checkFinite(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	return nil
}
