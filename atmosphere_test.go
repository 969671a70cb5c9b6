package mdo

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestPressureAltitude(t *testing.T) {
	if h := PressureAltitude(1013.25, 15); !scalar.EqualWithinAbs(h, 0, 1e-9) {
		t.Fatalf("ISA sea level should be at 0 m, got %f", h)
	}
	// Competition field conditions.
	if h := PressureAltitude(905.5, 25); !scalar.EqualWithinAbs(h, 1500.4358, 1e-3) {
		t.Fatalf("incorrect pressure altitude %f", h)
	}
}

func TestDensity(t *testing.T) {
	if ρ := Density(1013.25, 15); !scalar.EqualWithinAbs(ρ, 1.2250177777777773, 1e-12) {
		t.Fatalf("sea level density %f", ρ)
	}
	if ρ := Density(905.5, 25); !scalar.EqualWithinAbs(ρ, 1.05805, 1e-4) {
		t.Fatalf("field density %f", ρ)
	}
	// Density decreases with altitude and temperature.
	prev := math.Inf(1)
	for p := 1013.25; p > 800; p -= 10 {
		ρ := Density(p, 20)
		if ρ >= prev {
			t.Fatalf("density not decreasing with pressure at %f hPa", p)
		}
		prev = ρ
	}
	if Density(1000, 35) >= Density(1000, 5) {
		t.Fatal("hot air should be less dense")
	}
}

func TestDynamicPressure(t *testing.T) {
	if q := DynamicPressure(1.2, 10); q != 60 {
		t.Fatalf("q=%f", q)
	}
}
