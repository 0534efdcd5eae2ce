package sim

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an assumption set or run option that violates
// an engine invariant. Field names the offending input, e.g.
// "growth_distributions[b2b]" or "discount_rate".
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NumericError aborts a run when a trial produces a non-finite present value.
type NumericError struct {
	Trial int
	Value float64
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("trial %d produced non-finite present value %v", e.Trial, e.Value)
}

var (
	// ErrEmptyInput is returned when statistics are requested over zero outcomes.
	ErrEmptyInput = errors.New("aggregation requested on zero outcomes")

	// ErrNotCompleted is returned when a result is queried before Run has finished.
	ErrNotCompleted = errors.New("simulation has not completed")

	// ErrRunning is returned when Run is called on a simulator that is already running.
	ErrRunning = errors.New("simulation is already running")
)
