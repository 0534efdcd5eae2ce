package sim

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// trialOutputs holds per-trial results indexed by trial number, so the
// reduction order is the same whichever executor filled them.
type trialOutputs struct {
	presentValues []float64
	revenues      [][]float64
}

func newTrialOutputs(n int) *trialOutputs {
	return &trialOutputs{
		presentValues: make([]float64, n),
		revenues:      make([][]float64, n),
	}
}

func (o *trialOutputs) record(t *Trial) {
	o.presentValues[t.Index] = t.PresentValue
	o.revenues[t.Index] = t.TotalRevenue
}

// meanRevenue averages total revenue per period in trial-index order.
func (o *trialOutputs) meanRevenue() []float64 {
	if len(o.revenues) == 0 {
		return nil
	}
	mean := make([]float64, len(o.revenues[0]))
	for _, rev := range o.revenues {
		for i, v := range rev {
			mean[i] += v
		}
	}
	n := float64(len(o.revenues))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}

// runSequential executes trials in index order on the calling goroutine.
func (s *Simulator) runSequential(ctx context.Context) (*trialOutputs, error) {
	out := newTrialOutputs(s.opts.Trials)
	shared := NewPartitionedRNG(s.key).ForSubsystem(SubsystemShared)
	for i := 0; i < s.opts.Trials; i++ {
		if err := ctx.Err(); err != nil {
			logrus.Debugf("simulation cancelled after %d trials", i)
			return nil, err
		}
		src := shared
		if s.opts.PerTrialStreams {
			src = s.key.ForTrial(i)
		}
		t, err := s.model.runTrial(i, src)
		if err != nil {
			return nil, err
		}
		out.record(t)
	}
	return out, nil
}

// runParallel stripes trials across workers. Worker w runs trials
// w, w+W, w+2W, ... each from its own ForTrial source, so the outcome of a
// trial does not depend on which worker ran it.
func (s *Simulator) runParallel(ctx context.Context) (*trialOutputs, error) {
	out := newTrialOutputs(s.opts.Trials)
	workers := min(s.opts.Workers, s.opts.Trials)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; i < s.opts.Trials; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				t, err := s.model.runTrial(i, s.key.ForTrial(i))
				if err != nil {
					return err
				}
				// Each index is written by exactly one worker.
				out.record(t)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logrus.Debugf("simulation cancelled: %v", ctxErr)
			return nil, ctxErr
		}
		return nil, err
	}
	return out, nil
}
