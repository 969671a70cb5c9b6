package mdo

import (
	"fmt"

	"github.com/ChristopherRabotin/ode"
)

const (
	// DefaultGroundRunStep is the time step of the ground run integration, in seconds.
	DefaultGroundRunStep = 0.01
	groundRunMaxSteps    = 1000000
)

// GroundRunResult is the time history summary of a ground roll.
type GroundRunResult struct {
	Time     float64 // s, from brake release to lift-off
	Distance float64 // m
	Speed    float64 // lift-off speed, m/s
	Steps    uint64
}

func (r GroundRunResult) String() string {
	return fmt.Sprintf("lift-off at %.2f m/s after %.3f s and %.2f m (%d steps)", r.Speed, r.Time, r.Distance, r.Steps)
}

// groundRun is an ode.Integrable of the state [x, v] of the aircraft on the runway.
type groundRun struct {
	model    *TakeoffModel
	mass     float64
	liftOff  float64
	state    []float64
	previous []float64
	steps    uint64
	stuck    error
}

// GetState implements the ode.Integrable interface.
func (g *groundRun) GetState() []float64 {
	return g.state
}

// SetState implements the ode.Integrable interface.
func (g *groundRun) SetState(t float64, s []float64) {
	g.previous = g.state
	g.state = append([]float64(nil), s...)
	g.steps++
}

// Stop implements the ode.Integrable interface.
func (g *groundRun) Stop(t float64) bool {
	if g.steps >= groundRunMaxSteps && g.stuck == nil {
		g.stuck = fmt.Errorf("ground run %w after %d steps", ErrNoConvergence, g.steps)
	}
	return g.stuck != nil || g.state[1] >= g.liftOff
}

func (g *groundRun) Func(t float64, s []float64) []float64 {
	a := g.model.Acceleration(g.mass, s[1])
	if a <= 0 && g.stuck == nil {
		g.stuck = fmt.Errorf("%w: a=%.4f m/s² at v=%.3f m/s after %.2f s", ErrNonPositiveAcceleration, a, s[1], t)
	}
	return []float64{s[1], a}
}

// GroundRun integrates the ground roll in time with an RK4 of the provided step (in seconds),
// until the lift-off speed is reached. The lift-off point is linearly interpolated within the
// last step.
func (t *TakeoffModel) GroundRun(m, step float64) (GroundRunResult, error) {
	if step <= 0 {
		step = DefaultGroundRunStep
	}
	// The time integration would only creep towards the equilibrium speed.
	if _, err := t.GroundRoll(m); err != nil {
		return GroundRunResult{}, err
	}
	run := &groundRun{model: t, mass: m, liftOff: t.LiftOffSpeed(m), state: []float64{0, 0}}
	ode.NewRK4(0, step, run).Solve() // Blocking.
	if run.stuck != nil {
		return GroundRunResult{Steps: run.steps}, run.stuck
	}
	end := float64(run.steps) * step
	rslt := GroundRunResult{Time: end, Distance: run.state[0], Speed: run.state[1], Steps: run.steps}
	if run.previous != nil && run.state[1] > run.previous[1] {
		frac := (run.liftOff - run.previous[1]) / (run.state[1] - run.previous[1])
		rslt.Time = end - step + frac*step
		rslt.Distance = run.previous[0] + frac*(run.state[0]-run.previous[0])
		rslt.Speed = run.liftOff
	}
	return rslt, nil
}
