package mdo

import (
	"context"
	"fmt"
	"math"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
	// defaultSectionSlope is the thin airfoil lift slope per degree, used without airfoil data.
	defaultSectionSlope = 2 * math.Pi * deg2rad
)

// LinearGateway is an analytic lifting line stand-in for a vortex lattice code. Each horizontal
// surface has a Helmbold lift slope and an elliptic span loading; the tail sees the wing
// downwash; the ground effect follows Wieselsberger.
type LinearGateway struct {
	ParasiteDrag  float64 // CD0
	Oswald        float64 // span efficiency
	ElevatorTau   float64 // elevator effectiveness, dα/dδe
	Stations      int     // per semispan
	MaxElevator   float64 // deg
	TrimAlphaLow  float64 // deg
	TrimAlphaHigh float64 // deg
}

// NewLinearGateway returns a LinearGateway for small plate fuselage aircraft.
func NewLinearGateway() *LinearGateway {
	return &LinearGateway{
		ParasiteDrag:  0.035,
		Oswald:        0.9,
		ElevatorTau:   0.45,
		Stations:      20,
		MaxElevator:   25,
		TrimAlphaLow:  -10,
		TrimAlphaHigh: 20,
	}
}

// surfaceLoad is the lift of one horizontal surface.
type surfaceLoad struct {
	Surface
	cl       float64
	slope    float64 // per rad, in ground effect if requested
	downwash float64 // dε/dα
	φ        float64 // induced drag factor
}

func sectionSlope(af Airfoil) float64 {
	if af.CLAlpha > 0 {
		return af.CLAlpha
	}
	return defaultSectionSlope
}

// zeroLiftAngle returns the zero lift angle of attack of a section, in degrees.
func zeroLiftAngle(af Airfoil) float64 {
	return -af.CL0 / sectionSlope(af)
}

// helmbold returns the lift slope per radian of a straight surface.
func helmbold(af Airfoil, ar float64) float64 {
	a0 := sectionSlope(af) * rad2deg
	k := a0 / (math.Pi * ar)
	return a0 / (math.Sqrt(1+k*k) + k)
}

// wieselsberger returns the ratio of induced drag in and out of ground effect of a surface.
func wieselsberger(s Surface, ground bool) float64 {
	if !ground || s.Span <= 0 {
		return 1
	}
	r := 16 * s.Z / s.Span
	r *= r
	return math.Max(r/(1+r), 0.05)
}

func (g *LinearGateway) loads(geo Geometry, α, δ float64, ground bool) ([]surfaceLoad, error) {
	surfaces := geo.Surfaces()
	wing, ok := mainWing(surfaces)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no wing", ErrStageFailed, geo.Name())
	}
	load := func(s Surface) surfaceLoad {
		φ := wieselsberger(s, ground)
		return surfaceLoad{Surface: s, slope: helmbold(s.Airfoil, s.AspectRatio()/φ), φ: φ}
	}
	w := load(wing)
	wingAngle := α + wing.Incidence - zeroLiftAngle(wing.Airfoil)
	w.cl = w.slope * wingAngle * deg2rad
	rslt := []surfaceLoad{w}
	for _, s := range surfaces {
		if s.Kind != HorizontalTail && s.Kind != Canard {
			continue
		}
		l := load(s)
		local := α + s.Incidence + g.ElevatorTau*δ
		if s.Kind == HorizontalTail {
			l.downwash = 2 * w.slope / (math.Pi * wing.AspectRatio() / w.φ)
			local -= l.downwash * wingAngle
		}
		l.cl = l.slope * (local - zeroLiftAngle(s.Airfoil)) * deg2rad
		rslt = append(rslt, l)
	}
	return rslt, nil
}

// coefficients returns the coefficients about the CG and the neutral point.
func (g *LinearGateway) coefficients(geo Geometry, loads []surfaceLoad) (AeroCoefficients, float64) {
	sRef, cRef, bRef := geo.ReferenceArea(), geo.MeanAeroChord(), geo.ReferenceSpan()
	xcg, _ := geo.CG()
	var c AeroCoefficients
	var cdi, moment, lift, liftMoment float64
	for _, l := range loads {
		area, xac := l.Area(), l.AerodynamicCenter()
		c.CL += l.cl * area / sRef
		cdi += l.cl * l.cl * area * l.φ / (math.Pi * g.Oswald * l.AspectRatio())
		moment += l.Airfoil.CM0*area*l.MAC() + l.cl*area*(xcg-xac)
		effective := l.slope * (1 - l.downwash) * area
		lift += effective
		liftMoment += effective * xac
	}
	c.CD = g.ParasiteDrag + cdi/sRef
	c.Cm = moment / (sRef * cRef)
	xnp := liftMoment / lift
	c.Cma = lift / sRef * (xcg - xnp) / cRef
	for _, s := range geo.Surfaces() {
		if s.Kind != VerticalTail {
			continue
		}
		c.Cnb += helmbold(s.Airfoil, s.AspectRatio()) * s.Area() * (s.AerodynamicCenter() - xcg) / (sRef * bRef)
	}
	return c, xnp
}

func (g *LinearGateway) strips(loads []surfaceLoad) []StripLoad {
	strips := make([]StripLoad, 0, len(loads)*g.Stations)
	for _, l := range loads {
		half := l.Span / 2
		for k := 0; k < g.Stations; k++ {
			η := (float64(k) + 0.5) / float64(g.Stations)
			y := η * half
			cl := 4 * l.cl * l.Area() * math.Sqrt(1-η*η) / (math.Pi * l.Span * l.ChordAt(y))
			strips = append(strips, StripLoad{Surface: l.Name, Y: y, CL: cl})
		}
	}
	return strips
}

func (g *LinearGateway) pitchingMoment(geo Geometry, α, δ float64, ground bool) (float64, error) {
	loads, err := g.loads(geo, α, δ, ground)
	if err != nil {
		return 0, err
	}
	c, _ := g.coefficients(geo, loads)
	return c.Cm, nil
}

// solveLinear returns x such that f(x) = 0 for a function linear in x.
func solveLinear(f func(float64) (float64, error)) (float64, error) {
	f0, err := f(0)
	if err != nil {
		return 0, err
	}
	f1, err := f(1)
	if err != nil {
		return 0, err
	}
	if math.Abs(f1-f0) < 1e-12 {
		return 0, fmt.Errorf("%w: no pitch authority", ErrStageFailed)
	}
	return -f0 / (f1 - f0), nil
}

// Analyze implements the Gateway interface.
func (g *LinearGateway) Analyze(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisResult{}, err
	}
	α, δ := req.Alpha, 0.0
	var err error
	switch {
	case req.TrimAlpha:
		α, err = solveLinear(func(a float64) (float64, error) { return g.pitchingMoment(geo, a, 0, req.GroundEffect) })
		if err != nil {
			return AnalysisResult{}, err
		}
		if α < g.TrimAlphaLow || α > g.TrimAlphaHigh {
			return AnalysisResult{}, fmt.Errorf("%w: %s: trim α=%.2f° out of range", ErrStageFailed, req.Name, α)
		}
	case req.TrimElevator:
		δ, err = solveLinear(func(d float64) (float64, error) { return g.pitchingMoment(geo, α, d, req.GroundEffect) })
		if err != nil {
			return AnalysisResult{}, err
		}
		if math.Abs(δ) > g.MaxElevator {
			return AnalysisResult{}, fmt.Errorf("%w: %s: elevator saturated (%.2f°)", ErrStageFailed, req.Name, δ)
		}
	}
	loads, err := g.loads(geo, α, δ, req.GroundEffect)
	if err != nil {
		return AnalysisResult{}, err
	}
	c, xnp := g.coefficients(geo, loads)
	c.Elevator = δ
	return AnalysisResult{Coefficients: c, Alpha: α, NeutralPoint: xnp, Strips: g.strips(loads)}, nil
}
