// Package mdo evaluates small cargo aircraft designs: it predicts the maximum takeoff mass
// from a takeoff-distance model, runs the staged aerodynamic analyses needed to feed it, and
// folds the payload into the competition score.
package mdo

import (
	"fmt"
	"math"
)

const (
	seaLevelPressure    = 1013.25 // hPa
	seaLevelTemperature = 288.15  // K
	lapseRate           = 0.0065  // K/m
	celsiusToKelvin     = 273.15
)

// PressureAltitude returns the pressure altitude in meters for a station pressure in hPa and a
// temperature in Celsius.
func PressureAltitude(p, t float64) float64 {
	return (seaLevelTemperature / lapseRate) * (1 - math.Pow((p/seaLevelPressure)/((t+celsiusToKelvin)/seaLevelTemperature), 0.234959))
}

// Density returns the air density in kg/m^3 from a cubic fit of density against pressure altitude.
func Density(p, t float64) float64 {
	h := PressureAltitude(p, t)
	return 1.2250177777777773 - 0.00011760273526795266*h + 4.359717577108174e-9*h*h - 9.65009064952006e-14*h*h*h
}

// DynamicPressure returns ½ρv².
func DynamicPressure(ρ, v float64) float64 {
	return 0.5 * ρ * v * v
}

// Atmosphere is the ambient state of one evaluation.
type Atmosphere struct {
	Pressure    float64 // hPa
	Temperature float64 // °C
}

// StandardAtmosphere is the ISA sea level reference used to normalize thrust curves.
var StandardAtmosphere = Atmosphere{Pressure: seaLevelPressure, Temperature: 15}

// Density returns the air density of this atmosphere.
func (a Atmosphere) Density() float64 {
	return Density(a.Pressure, a.Temperature)
}

// DensityRatio returns ρ/ρ0 with respect to the standard atmosphere.
func (a Atmosphere) DensityRatio() float64 {
	return a.Density() / StandardAtmosphere.Density()
}

func (a Atmosphere) String() string {
	return fmt.Sprintf("%.2f hPa %.1f °C (ρ=%.4f kg/m^3)", a.Pressure, a.Temperature, a.Density())
}

// FlightCondition is the condition one aerodynamic analysis is run at.
type FlightCondition struct {
	Atmosphere
	Velocity float64 // m/s (true airspeed)
	Mach     float64
}

func (c FlightCondition) String() string {
	return fmt.Sprintf("%s V=%.2f m/s M=%.3f", c.Atmosphere, c.Velocity, c.Mach)
}
