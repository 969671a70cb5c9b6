package mdo

import (
	"fmt"
	"strings"
)

// SurfaceKind defines the role of a lifting surface.
type SurfaceKind uint8

const (
	// Wing is the main lifting surface.
	Wing SurfaceKind = iota + 1
	// HorizontalTail is an aft horizontal stabilizer.
	HorizontalTail
	// VerticalTail is a vertical stabilizer.
	VerticalTail
	// Canard is a forward horizontal surface.
	Canard
)

func (k SurfaceKind) String() string {
	switch k {
	case Wing:
		return "wing"
	case HorizontalTail:
		return "htail"
	case VerticalTail:
		return "vtail"
	case Canard:
		return "canard"
	}
	return "unknown"
}

// SurfaceKindFromString returns the kind of surface from its name.
func SurfaceKindFromString(s string) (SurfaceKind, error) {
	switch strings.ToLower(s) {
	case "wing":
		return Wing, nil
	case "htail", "eh", "horizontal":
		return HorizontalTail, nil
	case "vtail", "ev", "vertical":
		return VerticalTail, nil
	case "canard":
		return Canard, nil
	}
	return 0, fmt.Errorf("unknown surface kind `%s`", s)
}

// Surface is a straight tapered lifting surface.
type Surface struct {
	Name      string
	Kind      SurfaceKind
	Span      float64 // full span (height for a vertical tail), m
	RootChord float64 // m
	TipChord  float64 // m
	X, Z      float64 // root leading edge, m (Z is the height above the ground)
	Incidence float64 // deg
	Airfoil   Airfoil
}

// Area returns the planform area.
func (s Surface) Area() float64 {
	return 0.5 * (s.RootChord + s.TipChord) * s.Span
}

// Taper returns the tip to root chord ratio.
func (s Surface) Taper() float64 {
	if s.RootChord == 0 {
		return 0
	}
	return s.TipChord / s.RootChord
}

// MAC returns the mean aerodynamic chord.
func (s Surface) MAC() float64 {
	λ := s.Taper()
	return 2 / 3. * s.RootChord * (1 + λ + λ*λ) / (1 + λ)
}

// AspectRatio returns b²/S.
func (s Surface) AspectRatio() float64 {
	if s.Area() == 0 {
		return 0
	}
	return s.Span * s.Span / s.Area()
}

// ChordAt returns the local chord at spanwise station y (from the root).
func (s Surface) ChordAt(y float64) float64 {
	half := s.Span / 2
	if half == 0 {
		return s.RootChord
	}
	return s.RootChord + (s.TipChord-s.RootChord)*y/half
}

// AerodynamicCenter returns the x position of the quarter chord of the MAC.
func (s Surface) AerodynamicCenter() float64 {
	λ := s.Taper()
	half := s.Span / 2
	yMAC := half / 3 * (1 + 2*λ) / (1 + λ)
	// Quarter chord line is swept so that the tip quarter chord aligns with the root one.
	sweep := (s.RootChord - s.TipChord) / 4
	return s.X + sweep*yMAC/half + s.MAC()/4
}

// Geometry is what the evaluation needs to know about an aircraft.
type Geometry interface {
	Name() string
	ReferenceArea() float64 // m²
	MeanAeroChord() float64 // m
	ReferenceSpan() float64 // m
	Span() float64          // m, wing tip to tip
	CG() (x, z float64)     // m, z above ground
	EmptyMass() float64     // kg
	Surfaces() []Surface
}

// Airframe is a Geometry built from its lifting surfaces.
type Airframe struct {
	Label    string
	Parts    []Surface
	Mass     float64 // empty mass, kg
	XCG, ZCG float64
}

// NewAirframe returns an airframe whose empty mass and CG are estimated by the mass model.
func NewAirframe(label string, mm MassModel, st Structure, surfaces ...Surface) *Airframe {
	mass, x, z := mm.Estimate(st, surfaces)
	return &Airframe{Label: label, Parts: surfaces, Mass: mass, XCG: x, ZCG: z}
}

// Name implements the Geometry interface.
func (a *Airframe) Name() string { return a.Label }

// Surfaces implements the Geometry interface.
func (a *Airframe) Surfaces() []Surface { return a.Parts }

// EmptyMass implements the Geometry interface.
func (a *Airframe) EmptyMass() float64 { return a.Mass }

// CG implements the Geometry interface.
func (a *Airframe) CG() (x, z float64) { return a.XCG, a.ZCG }

// MainWing returns the first wing surface.
func (a *Airframe) MainWing() (Surface, bool) {
	return mainWing(a.Parts)
}

// ReferenceArea implements the Geometry interface.
func (a *Airframe) ReferenceArea() float64 {
	w, _ := a.MainWing()
	return w.Area()
}

// MeanAeroChord implements the Geometry interface.
func (a *Airframe) MeanAeroChord() float64 {
	w, _ := a.MainWing()
	return w.MAC()
}

// ReferenceSpan implements the Geometry interface.
func (a *Airframe) ReferenceSpan() float64 {
	return a.Span()
}

// Span implements the Geometry interface.
func (a *Airframe) Span() float64 {
	w, _ := a.MainWing()
	return w.Span
}

func (a *Airframe) String() string {
	return fmt.Sprintf("%s: S=%.3f m² b=%.2f m MAC=%.3f m empty=%.3f kg CG=(%.3f, %.3f)", a.Label, a.ReferenceArea(), a.Span(), a.MeanAeroChord(), a.Mass, a.XCG, a.ZCG)
}

func mainWing(surfaces []Surface) (Surface, bool) {
	for _, s := range surfaces {
		if s.Kind == Wing {
			return s, true
		}
	}
	return Surface{}, false
}

// stallLimits returns the section lift limits of each surface of a geometry.
func stallLimits(geo Geometry) StallLimits {
	limits := make(StallLimits)
	for _, s := range geo.Surfaces() {
		limits[s.Name] = s.Airfoil.CLMax
	}
	return limits
}

// cgFraction returns the CG position as a fraction of the wing root chord from its leading edge.
func cgFraction(geo Geometry) float64 {
	w, ok := mainWing(geo.Surfaces())
	if !ok || w.RootChord == 0 {
		return 0
	}
	x, _ := geo.CG()
	return (x - w.X) / w.RootChord
}

// checkGeometry returns an ErrInvalidPhysicalInput if no meaningful score can be computed.
func checkGeometry(geo Geometry) error {
	if af, ok := geo.(*Airframe); geo == nil || ok && af == nil {
		return invalidInput("nil geometry")
	}
	if m := geo.EmptyMass(); !(m > 0) {
		return invalidInput("empty mass %g kg", m)
	}
	if s := geo.ReferenceArea(); !(s > 0) {
		return invalidInput("reference area %g m²", s)
	}
	if c := geo.MeanAeroChord(); !(c > 0) {
		return invalidInput("mean aerodynamic chord %g m", c)
	}
	if b := geo.Span(); !(b > 0) {
		return invalidInput("span %g m", b)
	}
	return nil
}
