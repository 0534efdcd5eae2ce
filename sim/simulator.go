// sim/simulator.go
package sim

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle position of a Simulator.
type State int

const (
	StateConfigured State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options controls how a run executes.
type Options struct {
	Trials      int       // number of independent trials, >= 1
	Seed        int64     // master seed for every random draw of the run
	Percentiles []float64 // reported percentiles; DefaultPercentiles when empty
	Workers     int       // <= 1 runs sequentially

	// PerTrialStreams gives every trial its own source derived from the seed
	// and trial index instead of one shared source. Always on when
	// Workers > 1, so sequential and parallel runs agree bit for bit.
	PerTrialStreams bool
}

// Result is the aggregate output of a completed run. Every Result handed
// out by a Simulator is a separate copy; changing one does not affect the
// simulator or later calls.
type Result struct {
	RunID           string
	Seed            int64
	Trials          int
	HorizonPeriods  int
	Workers         int
	PerTrialStreams bool
	Summary
	// MeanRevenue is the per-period mean total revenue across trials,
	// index 0 = base period.
	MeanRevenue []float64
	Elapsed     time.Duration

	outcomes []float64
}

// Outcomes returns a copy of the present values in trial-index order.
func (r *Result) Outcomes() []float64 {
	return slices.Clone(r.outcomes)
}

func (r *Result) clone() *Result {
	c := *r
	c.Summary.Percentiles = maps.Clone(r.Summary.Percentiles)
	c.MeanRevenue = slices.Clone(r.MeanRevenue)
	return &c
}

// Percentiles evaluates additional percentiles over the stored outcomes.
func (r *Result) Percentiles(ps []float64) (map[string]float64, error) {
	return Percentiles(r.outcomes, ps)
}

// Simulator owns one configured run: Configured -> Running -> Completed.
// Once Completed it keeps its Result and answers further queries from it.
type Simulator struct {
	model *forecastModel
	opts  Options
	key   SimulationKey

	mu     sync.Mutex
	state  State
	result *Result
}

// NewSimulator validates the assumption set and options and returns a
// simulator in the Configured state.
func NewSimulator(a AssumptionSet, opts Options) (*Simulator, error) {
	if opts.Trials < 1 {
		return nil, configErrorf("trial_count", "must be at least 1, got %d", opts.Trials)
	}
	if len(opts.Percentiles) == 0 {
		opts.Percentiles = DefaultPercentiles
	}
	if err := validatePercentiles(opts.Percentiles); err != nil {
		return nil, err
	}
	opts.Percentiles = slices.Clone(opts.Percentiles)
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Workers > 1 {
		opts.PerTrialStreams = true
	}
	model, err := newForecastModel(a)
	if err != nil {
		return nil, err
	}
	model.assumptions.warnDegenerate()
	logrus.Debugf("simulation configured: streams=%v horizon=%d trials=%d seed=%d workers=%d",
		model.streams, model.assumptions.HorizonPeriods, opts.Trials, opts.Seed, opts.Workers)
	return &Simulator{
		model: model,
		opts:  opts,
		key:   NewSimulationKey(opts.Seed),
		state: StateConfigured,
	}, nil
}

// State returns the current lifecycle state.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Assumptions returns a copy of the assumption set the simulator runs.
func (s *Simulator) Assumptions() AssumptionSet {
	return s.model.assumptions.Clone()
}

// Run executes every trial and aggregates the outcomes. A completed
// simulator returns a copy of its existing result without re-running.
// Cancellation is checked between trials; a cancelled run discards its
// partial outcomes and returns to Configured.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	switch s.state {
	case StateCompleted:
		defer s.mu.Unlock()
		return s.result.clone(), nil
	case StateRunning:
		s.mu.Unlock()
		return nil, ErrRunning
	}
	s.state = StateRunning
	s.mu.Unlock()

	start := time.Now()
	result, err := s.execute(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateConfigured
		return nil, err
	}
	result.Elapsed = time.Since(start)
	s.result = result
	s.state = StateCompleted
	logrus.Debugf("simulation %s completed: trials=%d mean=%.2f std=%.2f elapsed=%s",
		result.RunID, result.Trials, result.Mean, result.Std, result.Elapsed)
	return result.clone(), nil
}

// Result returns the completed result, or ErrNotCompleted.
func (s *Simulator) Result() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted {
		return nil, ErrNotCompleted
	}
	return s.result.clone(), nil
}

// Percentiles answers additional percentile queries on a completed run
// without re-running any trial.
func (s *Simulator) Percentiles(ps []float64) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted {
		return nil, ErrNotCompleted
	}
	return s.result.Percentiles(ps)
}

// Trial reconstructs trial index in full for inspection. With per-trial
// streams this is a single replay; with the shared stream every earlier
// trial is replayed to advance the source to the same position.
func (s *Simulator) Trial(index int) (*Trial, error) {
	if index < 0 || index >= s.opts.Trials {
		return nil, fmt.Errorf("trial index %d out of range [0, %d)", index, s.opts.Trials)
	}
	if s.opts.PerTrialStreams {
		return s.model.runTrial(index, s.key.ForTrial(index))
	}
	src := NewPartitionedRNG(s.key).ForSubsystem(SubsystemShared)
	for i := 0; ; i++ {
		t, err := s.model.runTrial(i, src)
		if err != nil || i == index {
			return t, err
		}
	}
}

func (s *Simulator) execute(ctx context.Context) (*Result, error) {
	logrus.Debugf("simulation running: %d trials", s.opts.Trials)
	var (
		out *trialOutputs
		err error
	)
	if s.opts.Workers > 1 {
		out, err = s.runParallel(ctx)
	} else {
		out, err = s.runSequential(ctx)
	}
	if err != nil {
		return nil, err
	}
	summary, err := Summarize(out.presentValues, s.opts.Percentiles)
	if err != nil {
		return nil, err
	}
	return &Result{
		RunID:           uuid.NewString(),
		Seed:            s.opts.Seed,
		Trials:          s.opts.Trials,
		HorizonPeriods:  s.model.assumptions.HorizonPeriods,
		Workers:         s.opts.Workers,
		PerTrialStreams: s.opts.PerTrialStreams,
		Summary:         summary,
		MeanRevenue:     out.meanRevenue(),
		outcomes:        out.presentValues,
	}, nil
}

// Run is the one-call entry point: validate, simulate sequentially with a
// shared stream, and summarize.
func Run(ctx context.Context, a AssumptionSet, trials int, seed int64, percentiles []float64) (*Result, error) {
	s, err := NewSimulator(a, Options{Trials: trials, Seed: seed, Percentiles: percentiles})
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}
