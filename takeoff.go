package mdo

import (
	"errors"
	"fmt"
	"math"
)

const (
	liftOffFactor    = 1.2  // lift-off speed over stall speed
	transitionFactor = 1.15 // transition speed over stall speed
	rotationTime     = 3.0  // s, used as a divisor of the lift-off speed
	transitionTol    = 1e-10
)

// TakeoffCoefficients are the aerodynamic inputs of the takeoff model.
type TakeoffCoefficients struct {
	Area         float64 // wing reference area, m²
	CLGround     float64 // lift coefficient during the ground roll (in ground effect)
	CDGround     float64 // drag coefficient during the ground roll (in ground effect)
	CLMax        float64 // usable lift coefficient at stall
	CDTransition float64 // drag coefficient during the transition and climb
}

// TakeoffModel is the takeoff distance model of one aircraft at one atmosphere.
// All the methods take the trial total mass in kg.
type TakeoffModel struct {
	Coefficients   TakeoffCoefficients
	Thruster       Thruster
	Atmosphere     Atmosphere
	Gravity        float64
	Friction       float64 // rolling friction coefficient
	LoadFactor     float64 // during the transition arc
	ObstacleHeight float64
	Nodes          int // Gauss-Legendre nodes of the ground roll integral
	ρ              float64
}

// NewTakeoffModel returns a takeoff model using the physical constants of the regulations.
func NewTakeoffModel(atm Atmosphere, thruster Thruster, coeffs TakeoffCoefficients, reg Regulations) *TakeoffModel {
	return &TakeoffModel{
		Coefficients:   coeffs,
		Thruster:       thruster,
		Atmosphere:     atm,
		Gravity:        reg.Gravity,
		Friction:       reg.Friction,
		LoadFactor:     reg.LoadFactor,
		ObstacleHeight: reg.ObstacleHeight,
		Nodes:          reg.QuadratureNodes,
		ρ:              atm.Density(),
	}
}

func (t *TakeoffModel) density() float64 {
	if t.ρ == 0 {
		t.ρ = t.Atmosphere.Density()
	}
	return t.ρ
}

// qs returns the dynamic pressure times the reference area.
func (t *TakeoffModel) qs(v float64) float64 {
	return DynamicPressure(t.density(), v) * t.Coefficients.Area
}

// StallSpeed returns the stall speed in m/s.
func (t *TakeoffModel) StallSpeed(m float64) float64 {
	return math.Sqrt(math.Abs(2 * m * t.Gravity / (t.density() * t.Coefficients.Area * t.Coefficients.CLMax)))
}

// LiftOffSpeed returns the speed at which the ground roll ends.
func (t *TakeoffModel) LiftOffSpeed(m float64) float64 {
	return liftOffFactor * t.StallSpeed(m)
}

// FrictionForce returns the rolling friction on the unlifted weight, which vanishes once
// the rotation has started.
func (t *TakeoffModel) FrictionForce(m, v float64) float64 {
	if v > t.LiftOffSpeed(m) {
		return 0
	}
	return t.Friction * (m*t.Gravity - t.qs(v)*t.Coefficients.CLGround)
}

// Acceleration returns the acceleration on the ground at speed v.
func (t *TakeoffModel) Acceleration(m, v float64) float64 {
	thrust := t.Thruster.Thrust(t.Atmosphere, v)
	drag := t.qs(v) * t.Coefficients.CDGround
	return (thrust - drag - t.FrictionForce(m, v)) / m
}

// GroundRoll returns the distance needed to accelerate from rest to the lift-off speed, i.e.
// the integral of v/a(v) dv. The integral is undefined if the acceleration is not positive at
// one of the quadrature nodes.
func (t *TakeoffModel) GroundRoll(m float64) (float64, error) {
	var stuck error
	integrand := func(v float64) float64 {
		a := t.Acceleration(m, v)
		if a <= 0 {
			if stuck == nil {
				stuck = fmt.Errorf("%w: a=%.4f m/s² at v=%.3f m/s for m=%.3f kg", ErrNonPositiveAcceleration, a, v, m)
			}
			return 0
		}
		return v / a
	}
	dist := Quadrature(integrand, 0, t.LiftOffSpeed(m), t.Nodes)
	if stuck != nil {
		return math.Inf(1), stuck
	}
	return dist, nil
}

// Rotation returns the distance covered while rotating.
func (t *TakeoffModel) Rotation(m float64) float64 {
	return t.LiftOffSpeed(m) / rotationTime
}

// TransitionRadius returns the radius of the transition arc.
func (t *TakeoffModel) TransitionRadius(m float64) float64 {
	v := transitionFactor * t.StallSpeed(m)
	return v * v / (t.Gravity * (t.LoadFactor - 1))
}

// ClimbGradient returns the climb angle in radians (small angle approximation) at the stall speed.
func (t *TakeoffModel) ClimbGradient(m float64) float64 {
	vs := t.StallSpeed(m)
	thrust := t.Thruster.Thrust(t.Atmosphere, vs)
	drag := t.qs(vs) * t.Coefficients.CDTransition
	return (thrust - drag) / (m * t.Gravity)
}

// TransitionHeight returns the height gained at the end of the transition arc.
func (t *TakeoffModel) TransitionHeight(m float64) float64 {
	return t.TransitionRadius(m) * (1 - math.Cos(t.ClimbGradient(m)))
}

// TransitionAngle returns the angle along the transition arc at which the obstacle is cleared.
func (t *TakeoffModel) TransitionAngle(m float64) (float64, error) {
	r := t.TransitionRadius(m)
	clearance := func(γ float64) float64 {
		return t.ObstacleHeight - r*(1-math.Cos(γ))
	}
	hi := math.Pi / 4
	if clearance(hi) > 0 {
		// Steep climbers only clear the obstacle past 45°.
		hi = math.Min(t.ClimbGradient(m), math.Pi)
	}
	return Bisect(clearance, 0, hi, transitionTol, bisectMaxIterations)
}

// TakeoffResult is the takeoff distance breakdown at one mass, in meters.
type TakeoffResult struct {
	Mass       float64 // kg
	GroundRoll float64
	Rotation   float64
	Transition float64
	Climb      float64
	Total      float64
}

func (r TakeoffResult) String() string {
	return fmt.Sprintf("m=%.4f kg: roll=%.2f rot=%.2f trans=%.2f climb=%.2f total=%.3f m", r.Mass, r.GroundRoll, r.Rotation, r.Transition, r.Climb, r.Total)
}

// Distance returns the takeoff distance over the obstacle at mass m.
func (t *TakeoffModel) Distance(m float64) (TakeoffResult, error) {
	rslt := TakeoffResult{Mass: m}
	if !(m > 0) {
		return rslt, fmt.Errorf("takeoff mass %g kg is not positive", m)
	}
	if vs := t.StallSpeed(m); !(vs > 0) || math.IsInf(vs, 1) {
		return rslt, fmt.Errorf("stall speed %g m/s is undefined (S=%g m², CLmax=%g)", vs, t.Coefficients.Area, t.Coefficients.CLMax)
	}
	γ := t.ClimbGradient(m)
	if γ <= 0 {
		return rslt, fmt.Errorf("%w: γ=%.5f rad for m=%.3f kg", ErrNoClimb, γ, m)
	}
	var err error
	if rslt.GroundRoll, err = t.GroundRoll(m); err != nil {
		return rslt, err
	}
	rslt.Rotation = t.Rotation(m)
	r := t.TransitionRadius(m)
	if h := r * (1 - math.Cos(γ)); h >= t.ObstacleHeight {
		γtr, err := t.TransitionAngle(m)
		if err != nil {
			return rslt, fmt.Errorf("transition angle: %w", err)
		}
		rslt.Transition = r * math.Sin(γtr)
	} else {
		rslt.Transition = r * math.Sin(γ)
		rslt.Climb = (t.ObstacleHeight - h) / math.Tan(γ)
	}
	rslt.Total = rslt.GroundRoll + rslt.Rotation + rslt.Transition + rslt.Climb
	return rslt, nil
}

// tooLong reports whether an error means that the aircraft cannot take off at all.
func tooLong(err error) bool {
	return errors.Is(err, ErrNonPositiveAcceleration) || errors.Is(err, ErrNoClimb)
}
