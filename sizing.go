package mdo

import (
	"fmt"
	"math"
)

// Constraints are the sizing and stability bands a design must satisfy to be retained.
// They do not change the score: a design outside of them is still scored, but never reported
// as the best of a sweep.
type Constraints struct {
	TrimAlphaMin    float64 `mapstructure:"trim_alpha_min"` // deg
	TrimAlphaMax    float64 `mapstructure:"trim_alpha_max" validate:"gtefield=TrimAlphaMin"`
	CGFractionMin   float64 `mapstructure:"cg_fraction_min"` // of the root chord
	CGFractionMax   float64 `mapstructure:"cg_fraction_max" validate:"gtefield=CGFractionMin"`
	StaticMarginMin float64 `mapstructure:"static_margin_min"` // of the MAC
	StaticMarginMax float64 `mapstructure:"static_margin_max" validate:"gtefield=StaticMarginMin"`
	TailVolumeMin   float64 `mapstructure:"tail_volume_min" validate:"gte=0"`
	TailVolumeMax   float64 `mapstructure:"tail_volume_max" validate:"gtefield=TailVolumeMin"`
	FinVolumeMin    float64 `mapstructure:"fin_volume_min" validate:"gte=0"`
	FinVolumeMax    float64 `mapstructure:"fin_volume_max" validate:"gtefield=FinVolumeMin"`
	WingAspectMin   float64 `mapstructure:"wing_aspect_min" validate:"gte=0"`
	TailAspectMax   float64 `mapstructure:"tail_aspect_max" validate:"gt=0"`
	LowCGMin        float64 `mapstructure:"low_cg_min"`       // m
	StallMarginMin  float64 `mapstructure:"stall_margin_min"` // deg
}

// DefaultConstraints returns the bands of the current design rules.
func DefaultConstraints() Constraints {
	return Constraints{
		TrimAlphaMin:    0,
		TrimAlphaMax:    5,
		CGFractionMin:   0.25,
		CGFractionMax:   0.40,
		StaticMarginMin: 0.05,
		StaticMarginMax: 0.25,
		TailVolumeMin:   0.35,
		TailVolumeMax:   0.60,
		FinVolumeMin:    0.02,
		FinVolumeMax:    0.05,
		WingAspectMin:   5,
		TailAspectMax:   4.8,
		LowCGMin:        -0.03,
		StallMarginMin:  0,
	}
}

// Sizing holds the figures of merit of a design which are not part of its score.
// Values which depend on a failed stage are NaN.
type Sizing struct {
	WingAspectRatio float64
	TailAspectRatio float64
	TailVolume      float64 // horizontal tail volume coefficient
	FinVolume       float64 // vertical tail volume coefficient
	CGFraction      float64 // of the wing root chord
	LowCG           float64 // m, height of the wing above the CG
	TrimAlpha       float64 // deg
	StaticMargin    float64 // of the MAC
	StallMargin     float64 // deg, stall minus trim angle of attack
	Violations      []string
}

// NewSizing returns the geometric figures of merit of geo. The trim dependent values are NaN.
func NewSizing(geo Geometry) Sizing {
	sRef, cRef, bRef := geo.ReferenceArea(), geo.MeanAeroChord(), geo.ReferenceSpan()
	xcg, zcg := geo.CG()
	sz := Sizing{
		CGFraction:   cgFraction(geo),
		LowCG:        math.NaN(),
		TrimAlpha:    math.NaN(),
		StaticMargin: math.NaN(),
		StallMargin:  math.NaN(),
	}
	if wing, ok := mainWing(geo.Surfaces()); ok {
		sz.WingAspectRatio = wing.AspectRatio()
		sz.LowCG = wing.Z - zcg
	}
	tail := false
	for _, s := range geo.Surfaces() {
		arm := s.AerodynamicCenter() - xcg
		switch s.Kind {
		case HorizontalTail:
			sz.TailVolume += s.Area() * arm / (sRef * cRef)
			if !tail {
				sz.TailAspectRatio, tail = s.AspectRatio(), true
			}
		case VerticalTail:
			sz.FinVolume += s.Area() * arm / (sRef * bRef)
		}
	}
	return sz
}

// withStability adds the trim and stall results.
func (sz Sizing) withStability(trim TrimState, stall StallState) Sizing {
	if trim.Valid {
		sz.TrimAlpha = trim.Alpha
		sz.StaticMargin = trim.StaticMargin
		if stall.Valid {
			sz.StallMargin = stall.Alpha - trim.Alpha
		}
	}
	return sz
}

// Violations returns the names of the bands sz is outside of. NaN values are violations.
func (c Constraints) Violations(sz Sizing) []string {
	var violated []string
	check := func(name string, v, min, max float64) {
		if !(v >= min && v <= max) {
			violated = append(violated, name)
		}
	}
	check("trim_alpha", sz.TrimAlpha, c.TrimAlphaMin, c.TrimAlphaMax)
	check("cg_fraction", sz.CGFraction, c.CGFractionMin, c.CGFractionMax)
	check("static_margin", sz.StaticMargin, c.StaticMarginMin, c.StaticMarginMax)
	check("tail_volume", sz.TailVolume, c.TailVolumeMin, c.TailVolumeMax)
	check("fin_volume", sz.FinVolume, c.FinVolumeMin, c.FinVolumeMax)
	check("wing_aspect", sz.WingAspectRatio, c.WingAspectMin, math.Inf(1))
	check("tail_aspect", sz.TailAspectRatio, 0, c.TailAspectMax)
	check("low_cg", sz.LowCG, c.LowCGMin, math.Inf(1))
	check("stall_margin", sz.StallMargin, c.StallMarginMin, math.Inf(1))
	return violated
}

func (sz Sizing) String() string {
	return fmt.Sprintf("AR=%.2f AR(htail)=%.2f VHT=%.4f VVT=%.4f CG=%.3f of the chord, %.3f m below the wing, stall margin %.2f°",
		sz.WingAspectRatio, sz.TailAspectRatio, sz.TailVolume, sz.FinVolume, sz.CGFraction, sz.LowCG, sz.StallMargin)
}
