package mdo

// MassModel estimates the empty mass and CG of an airframe from structural densities and
// the masses of the fixed components.
type MassModel struct {
	WingDensity       float64 // kg/m², wing with spar
	StabilizerDensity float64 // kg/m², horizontal and vertical tails
	CanardDensity     float64 // kg/m²
	FuselageDensity   float64 // kg/m², per side panel
	BoomDensity       float64 // kg/m, carbon tail boom

	Battery  float64 // kg, battery and electronics
	Motor    float64 // kg, motor and propeller
	MainGear float64 // kg, main landing gear and wheels
	NoseGear float64 // kg, nose gear fork, wheel and bearings
}

// DefaultMassModel is the plate fuselage and integrated wing construction.
func DefaultMassModel() MassModel {
	return MassModel{
		WingDensity:       1.3025,
		StabilizerDensity: 0.555,
		CanardDensity:     0.208,
		FuselageDensity:   2.35,
		BoomDensity:       0.237,
		Battery:           0.600,
		Motor:             0.530,
		MainGear:          0.250,
		NoseGear:          0.230,
	}
}

// Structure is the non-lifting structure of an airframe.
type Structure struct {
	FuselageHeight float64 // m
	FuselageLength float64 // m
	FuselageZ      float64 // m, bottom of the fuselage above ground
	BoomLength     float64 // m
	MotorX, MotorZ float64 // m
}

type massPoint struct {
	m, x, z float64
}

// Estimate returns the empty mass (kg) and the CG position (m) of the airframe.
func (mm MassModel) Estimate(st Structure, surfaces []Surface) (mass, x, z float64) {
	var tailZ float64
	points := make([]massPoint, 0, len(surfaces)+6)
	for _, s := range surfaces {
		var density float64
		switch s.Kind {
		case Wing:
			density = mm.WingDensity
		case HorizontalTail:
			density = mm.StabilizerDensity
			tailZ = s.Z
		case VerticalTail:
			density = mm.StabilizerDensity
		case Canard:
			density = mm.CanardDensity
		}
		points = append(points, massPoint{density * s.Area(), s.X + s.RootChord/3, s.Z})
	}

	fusZ := st.FuselageZ + 0.5*st.FuselageHeight
	points = append(points,
		massPoint{2 * mm.FuselageDensity * st.FuselageHeight * st.FuselageLength, 0.10 * st.FuselageLength, fusZ},
		massPoint{mm.BoomDensity * st.BoomLength, 0.33*st.BoomLength + 0.35*st.FuselageLength, 0.67*fusZ + 0.33*tailZ},
		massPoint{mm.Battery, 0, fusZ - 0.25*st.FuselageHeight},
		massPoint{mm.Motor, st.MotorX, st.MotorZ},
		massPoint{mm.MainGear, 0.30 * st.FuselageLength, fusZ - 0.75*st.FuselageHeight},
		massPoint{mm.NoseGear, -0.20 * st.FuselageLength, fusZ - 0.5*st.FuselageHeight},
	)
	var mx, mz float64
	for _, p := range points {
		mass += p.m
		mx += p.m * p.x
		mz += p.m * p.z
	}
	if mass == 0 {
		return 0, 0, 0
	}
	return mass, mx / mass, mz / mass
}
