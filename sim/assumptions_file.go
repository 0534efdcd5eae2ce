package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AssumptionsFile is the YAML layout of an assumption set.
// Loaded from disk via LoadAssumptions(path).
type AssumptionsFile struct {
	Version               string                `yaml:"version"`
	HorizonPeriods        int                   `yaml:"horizon_periods"`
	GrossMargin           float64               `yaml:"gross_margin"`
	OperatingExpenseRatio float64               `yaml:"operating_expense_ratio"`
	DiscountRate          float64               `yaml:"discount_rate"`
	Streams               map[string]StreamSpec `yaml:"streams"`
}

// StreamSpec configures one revenue stream.
type StreamSpec struct {
	BaseValue float64  `yaml:"base_value"`
	Growth    DistSpec `yaml:"growth"`
}

const assumptionsFileVersion = "1"

// ParseAssumptions decodes YAML into an AssumptionSet.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func ParseAssumptions(data []byte) (AssumptionSet, error) {
	var f AssumptionsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return AssumptionSet{}, fmt.Errorf("parsing assumptions: %w", err)
	}
	if f.Version != "" && f.Version != assumptionsFileVersion {
		return AssumptionSet{}, fmt.Errorf("unsupported assumptions version %q; want %q", f.Version, assumptionsFileVersion)
	}
	return f.AssumptionSet(), nil
}

// LoadAssumptions reads and parses a YAML assumptions file. The returned
// set is not validated; NewSimulator does that.
func LoadAssumptions(path string) (AssumptionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AssumptionSet{}, fmt.Errorf("reading assumptions: %w", err)
	}
	return ParseAssumptions(data)
}

// AssumptionSet converts the file layout into the engine's form.
func (f *AssumptionsFile) AssumptionSet() AssumptionSet {
	a := AssumptionSet{
		BaseValues:            make(map[string]float64, len(f.Streams)),
		GrowthDistributions:   make(map[string]DistSpec, len(f.Streams)),
		GrossMargin:           f.GrossMargin,
		OperatingExpenseRatio: f.OperatingExpenseRatio,
		DiscountRate:          f.DiscountRate,
		HorizonPeriods:        f.HorizonPeriods,
	}
	for name, s := range f.Streams {
		a.BaseValues[name] = s.BaseValue
		a.GrowthDistributions[name] = s.Growth
	}
	return a
}

// MarshalAssumptions renders a into the YAML file layout. One stream entry
// is written per base value.
func MarshalAssumptions(a AssumptionSet) ([]byte, error) {
	f := AssumptionsFile{
		Version:               assumptionsFileVersion,
		HorizonPeriods:        a.HorizonPeriods,
		GrossMargin:           a.GrossMargin,
		OperatingExpenseRatio: a.OperatingExpenseRatio,
		DiscountRate:          a.DiscountRate,
		Streams:               make(map[string]StreamSpec, len(a.BaseValues)),
	}
	for name, base := range a.BaseValues {
		f.Streams[name] = StreamSpec{BaseValue: base, Growth: a.GrowthDistributions[name]}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return nil, fmt.Errorf("encoding assumptions: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding assumptions: %w", err)
	}
	return buf.Bytes(), nil
}
