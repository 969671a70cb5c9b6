package mdo

import (
	"fmt"
	"math"

	"github.com/spf13/viper"
)

// Design holds the design variables of a conventional aircraft: a straight tapered wing, a
// horizontal tail at the end of a boom and a single fin above it.
type Design struct {
	Name string `mapstructure:"name" json:"name"`

	WingSpan      float64 `mapstructure:"wing_span" json:"wing_span" validate:"gt=0"`
	WingRootChord float64 `mapstructure:"wing_root_chord" json:"wing_root_chord" validate:"gt=0"`
	WingTaper     float64 `mapstructure:"wing_taper" json:"wing_taper" validate:"gt=0,lte=1"`
	WingZ         float64 `mapstructure:"wing_z" json:"wing_z" validate:"gt=0"`
	WingIncidence float64 `mapstructure:"wing_incidence" json:"wing_incidence"`
	WingAirfoil   string  `mapstructure:"wing_airfoil" json:"wing_airfoil" validate:"required"`

	TailSpan      float64 `mapstructure:"tail_span" json:"tail_span" validate:"gt=0"`
	TailChord     float64 `mapstructure:"tail_chord" json:"tail_chord" validate:"gt=0"`
	TailTaper     float64 `mapstructure:"tail_taper" json:"tail_taper" validate:"gt=0,lte=1"`
	TailX         float64 `mapstructure:"tail_x" json:"tail_x" validate:"gt=0"`
	TailZ         float64 `mapstructure:"tail_z" json:"tail_z" validate:"gt=0"`
	TailIncidence float64 `mapstructure:"tail_incidence" json:"tail_incidence"`
	TailAirfoil   string  `mapstructure:"tail_airfoil" json:"tail_airfoil" validate:"required"`

	FinHeight float64 `mapstructure:"fin_height" json:"fin_height" validate:"gt=0"`
	FinTaper  float64 `mapstructure:"fin_taper" json:"fin_taper" validate:"gt=0,lte=1"`

	MotorX float64 `mapstructure:"motor_x" json:"motor_x"`
	MotorZ float64 `mapstructure:"motor_z" json:"motor_z"`

	// Derived from the wing and tail when zero.
	FuselageHeight float64 `mapstructure:"fuselage_height" json:"fuselage_height" validate:"gte=0"`
	FuselageLength float64 `mapstructure:"fuselage_length" json:"fuselage_length" validate:"gte=0"`
	FuselageZ      float64 `mapstructure:"fuselage_z" json:"fuselage_z" validate:"gte=0"`
	BoomLength     float64 `mapstructure:"boom_length" json:"boom_length" validate:"gte=0"`
}

// DefaultDesign is a 2.4 m span aircraft for the 600 W class.
func DefaultDesign() Design {
	return Design{
		Name:          "default",
		WingSpan:      2.4,
		WingRootChord: 0.42,
		WingTaper:     0.30 / 0.42,
		WingZ:         0.25,
		WingIncidence: 2,
		WingAirfoil:   "high-lift",
		TailSpan:      0.8,
		TailChord:     0.2,
		TailTaper:     1,
		TailX:         1.1,
		TailZ:         0.45,
		TailIncidence: -1,
		TailAirfoil:   "naca0012",
		FinHeight:     0.3,
		FinTaper:      0.8,
		MotorX:        -0.08,
		MotorZ:        0.2,

		FuselageHeight: 0.12,
		FuselageLength: 0.5,
		FuselageZ:      0.1,
		BoomLength:     0.8,
	}
}

// Structure returns the fuselage and boom of the design.
func (d Design) Structure() Structure {
	st := Structure{
		FuselageHeight: d.FuselageHeight,
		FuselageLength: d.FuselageLength,
		FuselageZ:      d.FuselageZ,
		BoomLength:     d.BoomLength,
		MotorX:         d.MotorX,
		MotorZ:         d.MotorZ,
	}
	if st.FuselageHeight == 0 {
		st.FuselageHeight = 0.12 * d.WingRootChord
	}
	if st.FuselageLength == 0 {
		st.FuselageLength = math.Max(1.25*d.WingRootChord, 0.5)
	}
	if st.FuselageZ == 0 {
		st.FuselageZ = math.Max(d.WingZ-st.FuselageHeight/2, 0)
	}
	if st.BoomLength == 0 {
		st.BoomLength = math.Max(d.TailX-0.5*st.FuselageLength, 0)
	}
	return st
}

// Airframe builds the airframe of this design with the airfoils of the catalog.
func (d Design) Airframe(catalog AirfoilCatalog, mm MassModel) (*Airframe, error) {
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: design %s: %s", ErrInvalidPhysicalInput, d.Name, err)
	}
	wingAF, err := catalog.Lookup(d.WingAirfoil)
	if err != nil {
		return nil, err
	}
	tailAF, err := catalog.Lookup(d.TailAirfoil)
	if err != nil {
		return nil, err
	}
	wing := Surface{
		Name: "wing", Kind: Wing, Span: d.WingSpan, RootChord: d.WingRootChord, TipChord: d.WingTaper * d.WingRootChord,
		Z: d.WingZ, Incidence: d.WingIncidence, Airfoil: wingAF,
	}
	htail := Surface{
		Name: "htail", Kind: HorizontalTail, Span: d.TailSpan, RootChord: d.TailChord, TipChord: d.TailTaper * d.TailChord,
		X: d.TailX, Z: d.TailZ, Incidence: d.TailIncidence, Airfoil: tailAF,
	}
	vtail := Surface{
		Name: "vtail", Kind: VerticalTail, Span: d.FinHeight, RootChord: d.TailChord, TipChord: d.FinTaper * d.TailChord,
		X: d.TailX, Z: d.TailZ, Airfoil: tailAF,
	}
	return NewAirframe(d.Name, mm, d.Structure(), wing, htail, vtail), nil
}

// LoadDesign reads a design file on top of DefaultDesign.
func LoadDesign(path string) (Design, error) {
	d := DefaultDesign()
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return d, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := v.Unmarshal(&d); err != nil {
		return d, fmt.Errorf("decoding design: %w", err)
	}
	return d, nil
}
