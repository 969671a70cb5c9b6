package mdo

import (
	"errors"
	"fmt"
)

var (
	// ErrStageFailed is the root of all recoverable analysis stage failures.
	ErrStageFailed = errors.New("analysis stage failed")
	// ErrStalled is returned when a station exceeds its local section lift limit.
	ErrStalled = fmt.Errorf("%w: stall detected", ErrStageFailed)
	// ErrMissingInput is recorded when a stage cannot run because an earlier stage failed.
	ErrMissingInput = fmt.Errorf("%w: missing input from an earlier stage", ErrStageFailed)
	// ErrInfeasibleBracket is returned when a root finding bracket does not contain a sign change.
	ErrInfeasibleBracket = errors.New("bracket does not contain a sign change")
	// ErrNoConvergence is returned when a root finder exhausts its iterations.
	ErrNoConvergence = errors.New("did not converge")
	// ErrNonPositiveAcceleration is returned when the ground roll integrand is undefined.
	ErrNonPositiveAcceleration = errors.New("non-positive acceleration during ground roll")
	// ErrNoClimb is returned when the aircraft cannot climb at stall speed.
	ErrNoClimb = errors.New("non-positive climb gradient")
	// ErrNegativePayload is returned when the solved MTOW is below the empty mass.
	ErrNegativePayload = errors.New("negative payload")
	// ErrInvalidPhysicalInput is fatal to an evaluation.
	ErrInvalidPhysicalInput = errors.New("invalid physical input")
)

// BracketError reports the function values at both ends of an infeasible bracket.
type BracketError struct {
	Lower, Upper   float64
	FLower, FUpper float64
	Err            error // cause of an unevaluable bound, if any
}

func (e *BracketError) Error() string {
	msg := fmt.Sprintf("%s: f(%g)=%g f(%g)=%g", ErrInfeasibleBracket, e.Lower, e.FLower, e.Upper, e.FUpper)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap allows errors.Is(err, ErrInfeasibleBracket).
func (e *BracketError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInfeasibleBracket, e.Err}
	}
	return []error{ErrInfeasibleBracket}
}

// StageError is the failure of one pipeline stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is makes every stage failure match ErrStageFailed.
func (e *StageError) Is(target error) bool {
	return target == ErrStageFailed
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidPhysicalInput, fmt.Sprintf(format, args...))
}
