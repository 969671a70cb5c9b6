package mdo

import (
	"fmt"
	"math"
)

// SolveMTOW returns the takeoff at the mass for which the takeoff distance equals the runway
// length, searched by bisection within [reg.MassMin, reg.MassMax].
// A mass at which the aircraft cannot accelerate or climb is considered to need an infinite
// runway. If the bracket does not contain a sign change, the error is a *BracketError.
func SolveMTOW(model *TakeoffModel, reg Regulations) (TakeoffResult, error) {
	margin := func(m float64) (float64, error) {
		rslt, err := model.Distance(m)
		if err != nil {
			if tooLong(err) {
				return math.Inf(-1), err
			}
			return math.NaN(), err
		}
		return reg.RunwayLength - rslt.Total, nil
	}

	lo, hi := reg.MassMin, reg.MassMax
	fLo, errLo := margin(lo)
	fHi, errHi := margin(hi)
	if math.IsNaN(fLo) || math.IsNaN(fHi) || fLo*fHi > 0 {
		berr := &BracketError{Lower: lo, Upper: hi, FLower: fLo, FUpper: fHi}
		if errLo != nil {
			berr.Err = errLo
		} else {
			berr.Err = errHi
		}
		return TakeoffResult{}, berr
	}

	var undefined error
	f := func(m float64) float64 {
		v, err := margin(m)
		if math.IsNaN(v) {
			undefined = err
		}
		return v
	}
	mass, err := Bisect(f, lo, hi, reg.MassTolerance, reg.MaxIterations)
	if err != nil {
		if undefined != nil {
			err = fmt.Errorf("%w: %w", err, undefined)
		}
		return TakeoffResult{Mass: mass}, err
	}
	rslt, err := model.Distance(mass)
	if err != nil {
		return rslt, fmt.Errorf("%w: takeoff at %.6f kg: %s", ErrNoConvergence, mass, err)
	}
	return rslt, nil
}
