package mdo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

// SweepRange is the uniform range of one design variable. A range with Max == Min fixes it.
type SweepRange struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max" validate:"gtefield=Min"`
}

func (r SweepRange) sample(src rand.Source) float64 {
	if r.Max == r.Min {
		return r.Min
	}
	return distuv.Uniform{Min: r.Min, Max: r.Max, Src: src}.Rand()
}

// SweepSpace defines which design variables a sweep explores. Zero ranges keep the base value.
type SweepSpace struct {
	WingSpan      SweepRange `mapstructure:"wing_span"`
	WingRootChord SweepRange `mapstructure:"wing_root_chord"`
	WingTaper     SweepRange `mapstructure:"wing_taper"`
	TailX         SweepRange `mapstructure:"tail_x"`
	TailSpan      SweepRange `mapstructure:"tail_span"`
}

// Sample returns n designs derived from base. The same seed always returns the same designs.
func (s SweepSpace) Sample(base Design, n int, seed uint64) ([]Design, error) {
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("%w: sweep space: %s", ErrInvalidPhysicalInput, err)
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	set := func(r SweepRange, v *float64) {
		if r != (SweepRange{}) {
			*v = r.sample(src)
		}
	}
	designs := make([]Design, n)
	for i := range designs {
		d := base
		d.Name = fmt.Sprintf("%s-%04d", base.Name, i)
		set(s.WingSpan, &d.WingSpan)
		set(s.WingRootChord, &d.WingRootChord)
		set(s.WingTaper, &d.WingTaper)
		set(s.TailX, &d.TailX)
		set(s.TailSpan, &d.TailSpan)
		designs[i] = d
	}
	return designs, nil
}

// Sweep evaluates many designs concurrently.
type Sweep struct {
	Evaluator *Evaluator
	Airfoils  AirfoilCatalog
	Mass      MassModel
	Workers   int // defaults to the number of CPUs
}

// Run evaluates all designs and sends one record per design on out, in completion order. It
// returns the identifier of the run. Designs which cannot be built are sent as records whose
// every stage failed. Only a canceled context stops the sweep early; out is never closed.
func (s Sweep) Run(ctx context.Context, designs []Design, out chan<- ExportRecord) (string, error) {
	run := uuid.NewString()
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, design := range designs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec := ExportRecord{Run: run, Index: i, Design: design}
			geo, err := design.Airframe(s.Airfoils, s.Mass)
			if err != nil {
				rec.Evaluation = failedEvaluation(design.Name, err)
			} else if rec.Evaluation, err = s.Evaluator.Evaluate(ctx, geo); err != nil {
				if ctx.Err() != nil {
					return err
				}
				rec.Evaluation = failedEvaluation(design.Name, err)
			}
			select {
			case out <- rec:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return run, err
	}
	return run, ctx.Err()
}

func failedEvaluation(name string, err error) Evaluation {
	ev := Evaluation{Geometry: name, Record: ScoreRecord{Geometry: name}}
	for _, stage := range Stages {
		ev.Outcomes = append(ev.Outcomes, StageOutcome{Stage: stage, Err: &StageError{Stage: stage, Err: err}})
	}
	return ev
}
