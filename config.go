package mdo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ConfigEnv names the environment variable holding the directory of the default conf.toml.
const ConfigEnv = "MDO_CONFIG"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Environment is the atmosphere and airspeed all analyses are run at.
type Environment struct {
	Pressure    float64 `mapstructure:"pressure" validate:"gt=0"`       // hPa
	Temperature float64 `mapstructure:"temperature" validate:"gt=-273"` // °C
	Velocity    float64 `mapstructure:"velocity" validate:"gt=0"`       // m/s
	Mach        float64 `mapstructure:"mach" validate:"gte=0"`
}

// Condition returns the flight condition of this environment.
func (e Environment) Condition() FlightCondition {
	return FlightCondition{Atmosphere{e.Pressure, e.Temperature}, e.Velocity, e.Mach}
}

// Regulations are the takeoff rules and the physical constants of the takeoff model.
type Regulations struct {
	RunwayLength    float64 `mapstructure:"runway_length" validate:"gt=0"`   // m
	ObstacleHeight  float64 `mapstructure:"obstacle_height" validate:"gt=0"` // m
	MassMin         float64 `mapstructure:"mass_min" validate:"gt=0"`        // kg
	MassMax         float64 `mapstructure:"mass_max" validate:"gtfield=MassMin"`
	MassTolerance   float64 `mapstructure:"mass_tolerance" validate:"gt=0"` // kg
	MaxIterations   int     `mapstructure:"max_iterations" validate:"gt=0"`
	LoadFactor      float64 `mapstructure:"load_factor" validate:"gt=1"`
	Friction        float64 `mapstructure:"friction" validate:"gte=0,lt=1"`
	Gravity         float64 `mapstructure:"gravity" validate:"gt=0"`
	QuadratureNodes int     `mapstructure:"quadrature_nodes" validate:"gt=0"`
}

// Penalties are the bands outside of which the raw score is penalized.
type Penalties struct {
	TrimAlphaMin  float64 `mapstructure:"trim_alpha_min"` // deg
	TrimAlphaMax  float64 `mapstructure:"trim_alpha_max" validate:"gtefield=TrimAlphaMin"`
	CGFractionMin float64 `mapstructure:"cg_fraction_min"` // of the root chord
	CGFractionMax float64 `mapstructure:"cg_fraction_max" validate:"gtefield=CGFractionMin"`
	Base          float64 `mapstructure:"base" validate:"gte=0"`
	Slope         float64 `mapstructure:"slope" validate:"gte=0"`
}

// ScoreConstants are the competition scoring constants.
type ScoreConstants struct {
	FlightPrediction   float64 `mapstructure:"flight_prediction" validate:"gt=0"` // FPV
	MaxWeight          float64 `mapstructure:"max_weight" validate:"gt=0"`        // kg
	EfficiencyFactor   float64 `mapstructure:"efficiency_factor" validate:"gt=0"` // PEE factor
	HorizontalSurfaces int     `mapstructure:"horizontal_surfaces" validate:"gte=1"`
	ReportGrade        float64 `mapstructure:"report_grade" validate:"gte=0"`
	MinPayload         float64 `mapstructure:"min_payload" validate:"gte=0"` // kg
	Presentation       float64 `mapstructure:"presentation" validate:"gte=0"`
	FlightVideo        float64 `mapstructure:"flight_video" validate:"gte=0"`
}

// Config is the immutable configuration of an Evaluator.
type Config struct {
	Environment Environment    `mapstructure:"environment"`
	RatedPower  float64        `mapstructure:"rated_power" validate:"gt=0"` // W
	Regulations Regulations    `mapstructure:"regulations"`
	Penalties   Penalties      `mapstructure:"penalties"`
	Score       ScoreConstants `mapstructure:"score"`
	Constraints Constraints    `mapstructure:"constraints"`
	Stall       StallSchedule  `mapstructure:"stall" validate:"min=1,dive"`
}

// DefaultRegulations returns the current competition rules.
func DefaultRegulations() Regulations {
	return Regulations{
		RunwayLength:    55,
		ObstacleHeight:  0.7,
		MassMin:         5,
		MassMax:         30,
		MassTolerance:   1e-6,
		MaxIterations:   bisectMaxIterations,
		LoadFactor:      1.2,
		Friction:        0.03,
		Gravity:         9.81,
		QuadratureNodes: DefaultQuadratureNodes,
	}
}

// DefaultScoreConstants returns the current competition scoring constants.
func DefaultScoreConstants() ScoreConstants {
	return ScoreConstants{
		FlightPrediction:   1.1,
		MaxWeight:          20,
		EfficiencyFactor:   25,
		HorizontalSurfaces: 2,
		ReportGrade:        110.38,
		MinPayload:         5,
		Presentation:       30.58,
		FlightVideo:        30,
	}
}

// DefaultConfig returns the configuration of the competition field.
func DefaultConfig() Config {
	return Config{
		Environment: Environment{Pressure: 905.5, Temperature: 25, Velocity: 10},
		RatedPower:  600,
		Regulations: DefaultRegulations(),
		Penalties: Penalties{
			TrimAlphaMin:  0,
			TrimAlphaMax:  5,
			CGFractionMin: 0.25,
			CGFractionMax: 0.35,
			Base:          2,
			Slope:         10,
		},
		Score:       DefaultScoreConstants(),
		Constraints: DefaultConstraints(),
		Stall:       DefaultStallSchedule(),
	}
}

// Validate checks the configuration, returning an ErrInvalidPhysicalInput on failure.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPhysicalInput, err)
	}
	return nil
}

// LoadConfig reads a configuration file on top of DefaultConfig. Any format viper understands
// is accepted. If path is empty, conf.toml is read from the directory in $MDO_CONFIG, and the
// defaults are returned if that variable is unset.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		dir := os.Getenv(ConfigEnv)
		if dir == "" {
			return cfg, nil
		}
		path = filepath.Join(dir, "conf.toml")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	return decodeConfig(v, cfg)
}

func decodeConfig(v *viper.Viper, cfg Config) (Config, error) {
	if v.IsSet("stall") {
		// Slices are merged element-wise, so drop the default passes.
		cfg.Stall = nil
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, cfg.Validate()
}
