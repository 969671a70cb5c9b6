package mdo

// Thruster defines the available thrust of a propulsion set.
type Thruster interface {
	// Thrust returns the available thrust in Newtons at airspeed v (m/s).
	Thrust(atm Atmosphere, v float64) float64
}

// PowerCurve is a static thrust polynomial in airspeed measured at sea level, lowest order first.
type PowerCurve []float64

// At evaluates the curve at airspeed v.
func (c PowerCurve) At(v float64) float64 {
	// Horner
	rslt := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		rslt = rslt*v + c[i]
	}
	return rslt
}

/* Available thrusters */

// Reference curves of the motor and propeller set, measured at 600 W and 650 W.
var (
	curve600W = PowerCurve{45.384, 0.6374625901805, -0.39434159385213, 0.028296433071339, -0.00068805475237905}
	curve650W = PowerCurve{40.691396530109, 0.6374625901805, -0.39434159385213, 0.028296433071339, -0.00068805475237905}
)

// ElectricThruster interpolates linearly by rated power between two reference power curves.
// Powers outside [LowPower, HighPower] are extrapolated.
type ElectricThruster struct {
	Power               float64 // W
	LowPower, HighPower float64 // W
	Low, High           PowerCurve
}

// Thrust implements the Thruster interface.
func (t ElectricThruster) Thrust(atm Atmosphere, v float64) float64 {
	σ := atm.DensityRatio()
	low := t.Low.At(v) * σ
	high := t.High.At(v) * σ
	span := t.HighPower - t.LowPower
	return (low*(t.HighPower-t.Power) + high*(t.Power-t.LowPower)) / span
}

// NewElectricThruster returns the calibrated 600-650 W thruster at the provided rated power.
func NewElectricThruster(power float64) ElectricThruster {
	return ElectricThruster{Power: power, LowPower: 600, HighPower: 650, Low: curve600W, High: curve650W}
}

// ConstantThruster provides the same thrust at all speeds and densities.
type ConstantThruster float64

// Thrust implements the Thruster interface.
func (t ConstantThruster) Thrust(atm Atmosphere, v float64) float64 {
	return float64(t)
}
