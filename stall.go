package mdo

import (
	"errors"
	"fmt"
	"math"
)

// DefaultSectionCLMax is the section lift limit of surfaces without airfoil data.
const DefaultSectionCLMax = 1.2

// SweepPass is one linear pass of a stall sweep, from From to To (inclusive) by Step degrees.
type SweepPass struct {
	From float64 `mapstructure:"from"`
	To   float64 `mapstructure:"to" validate:"gtefield=From"`
	Step float64 `mapstructure:"step" validate:"gt=0"`
}

// StallSchedule is the ordered list of sweep passes used to find the stall angle.
type StallSchedule []SweepPass

// DefaultStallSchedule is a coarse pass from 5 to 11° by 2°, then a fine one from 12 to 30° by 1°.
func DefaultStallSchedule() StallSchedule {
	return StallSchedule{{From: 5, To: 11, Step: 2}, {From: 12, To: 30, Step: 1}}
}

// Angles returns all the angles of attack of this schedule, in sweep order.
func (s StallSchedule) Angles() []float64 {
	var angles []float64
	for _, pass := range s {
		if pass.Step <= 0 {
			continue
		}
		n := int(math.Floor((pass.To-pass.From)/pass.Step+1e-9)) + 1
		for i := 0; i < n; i++ {
			angles = append(angles, pass.From+float64(i)*pass.Step)
		}
	}
	return angles
}

// StripLoad is the local lift coefficient of one spanwise station.
type StripLoad struct {
	Surface string
	Y       float64 // spanwise position of the station leading edge, m
	CL      float64
}

// StallLimits maps a surface name to its section lift limit.
type StallLimits map[string]float64

// Limit returns the limit of a surface, or DefaultSectionCLMax if unknown.
func (l StallLimits) Limit(surface string) float64 {
	if lim, ok := l[surface]; ok && lim > 0 {
		return lim
	}
	return DefaultSectionCLMax
}

// DetectStall returns the first station whose lift coefficient reaches its section limit.
func DetectStall(strips []StripLoad, limits StallLimits) (StripLoad, bool) {
	for _, strip := range strips {
		if strip.CL >= limits.Limit(strip.Surface) {
			return strip, true
		}
	}
	return StripLoad{}, false
}

// StallState is the highest clean angle of attack found by a stall sweep.
type StallState struct {
	Alpha   float64 // deg
	CL      float64
	Stalled bool // false if the whole schedule was swept without a stall
	Valid   bool
}

func (s StallState) String() string {
	if !s.Valid {
		return "stall=unknown"
	}
	return fmt.Sprintf("stall α=%.1f° CLmax=%.4f (found=%v)", s.Alpha, s.CL, s.Stalled)
}

// StallSweep increases the angle of attack along the schedule until lift fails. The returned
// state is the last angle lift succeeded at, starting from start (usually the α=0 result).
// Any lift failure ends the sweep; a failure at the first angle with no valid start state
// is returned as an error.
func StallSweep(schedule StallSchedule, start StallState, lift func(α float64) (float64, error)) (StallState, error) {
	last := start
	for _, α := range schedule.Angles() {
		cl, err := lift(α)
		if err != nil {
			if !last.Valid {
				return last, fmt.Errorf("no clean angle below %.1f°: %w", α, err)
			}
			last.Stalled = errors.Is(err, ErrStalled)
			return last, nil
		}
		last = StallState{Alpha: α, CL: cl, Valid: true}
	}
	if !last.Valid {
		return last, errors.New("empty stall schedule")
	}
	return last, nil
}
