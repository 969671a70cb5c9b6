package mdo

import (
	"context"
	"fmt"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Stage is one step of an evaluation.
type Stage uint8

const (
	// StageFreeFlight is the elevator trimmed analysis at zero angle of attack.
	StageFreeFlight Stage = iota + 1
	// StageGroundEffect is the free flight analysis mirrored about the ground.
	StageGroundEffect
	// StageStallSweep finds the highest angle of attack without any stalled station.
	StageStallSweep
	// StageTrim solves the angle of attack for a zero pitching moment.
	StageTrim
	// StageMTOW solves the maximum takeoff mass.
	StageMTOW
	// StageScore assembles the ScoreRecord.
	StageScore
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageFreeFlight, StageGroundEffect, StageStallSweep, StageTrim, StageMTOW, StageScore}

func (s Stage) String() string {
	switch s {
	case StageFreeFlight:
		return "free_flight"
	case StageGroundEffect:
		return "ground_effect"
	case StageStallSweep:
		return "stall_sweep"
	case StageTrim:
		return "trim"
	case StageMTOW:
		return "mtow"
	case StageScore:
		return "score"
	}
	panic("cannot stringify unknown stage")
}

// StageOutcome is the result of one stage. Err is a *StageError, or nil on success.
type StageOutcome struct {
	Stage    Stage
	Err      error
	Duration time.Duration
}

// OK returns whether the stage succeeded.
func (o StageOutcome) OK() bool {
	return o.Err == nil
}

// TrimState is the result of the trim stage.
type TrimState struct {
	Alpha        float64 // deg
	NeutralPoint float64 // m
	StaticMargin float64 // of the MAC
	Valid        bool
}

// untrimmed is the trim state until the trim analysis succeeds.
var untrimmed = TrimState{Alpha: -20, StaticMargin: -0.2}

func (t TrimState) String() string {
	if !t.Valid {
		return "trim=unknown"
	}
	return fmt.Sprintf("trim α=%.2f° Xnp=%.4f m SM=%.3f", t.Alpha, t.NeutralPoint, t.StaticMargin)
}

// Evaluation is everything learned about one geometry.
type Evaluation struct {
	Geometry     string
	FreeFlight   *AnalysisResult
	GroundEffect *AnalysisResult
	Stall        StallState
	Trim         TrimState
	Sizing       Sizing
	Takeoff      *TakeoffResult
	Record       ScoreRecord
	Outcomes     []StageOutcome
}

// Outcome returns the outcome of a stage.
func (e Evaluation) Outcome(stage Stage) (StageOutcome, bool) {
	for _, o := range e.Outcomes {
		if o.Stage == stage {
			return o, true
		}
	}
	return StageOutcome{}, false
}

// Failures returns the failed stages.
func (e Evaluation) Failures() []StageOutcome {
	var failed []StageOutcome
	for _, o := range e.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Evaluator evaluates geometries. It holds no state across evaluations and may be used
// concurrently.
type Evaluator struct {
	cfg      Config
	gateway  Gateway
	thruster Thruster
	logger   kitlog.Logger
	metrics  *Metrics
}

// NewEvaluator returns an Evaluator. The logger and the metrics may be nil.
func NewEvaluator(cfg Config, gateway Gateway, logger kitlog.Logger, metrics *Metrics) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: nil gateway", ErrInvalidPhysicalInput)
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Evaluator{
		cfg:      cfg,
		gateway:  gateway,
		thruster: NewElectricThruster(cfg.RatedPower),
		logger:   kitlog.With(logger, "subsys", "mdo"),
		metrics:  metrics,
	}, nil
}

// Config returns the configuration of this evaluator.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// evaluation is the state of one run of the pipeline.
type evaluation struct {
	*Evaluation
	geo    Geometry
	cond   FlightCondition
	logger kitlog.Logger
}

// Evaluate runs all the stages on geo. A failed stage never aborts the evaluation: the
// returned Evaluation always holds a ScoreRecord. The only errors are an
// ErrInvalidPhysicalInput for a geometry which cannot be scored, and the context error.
func (e *Evaluator) Evaluate(ctx context.Context, geo Geometry) (Evaluation, error) {
	if err := checkGeometry(geo); err != nil {
		e.metrics.evaluation("invalid")
		return Evaluation{}, err
	}
	ev := &evaluation{
		Evaluation: &Evaluation{Geometry: geo.Name(), Trim: untrimmed},
		geo:        geo,
		cond:       e.cfg.Environment.Condition(),
		logger:     kitlog.With(e.logger, "geometry", geo.Name()),
	}
	steps := []func(context.Context, *evaluation) error{
		e.freeFlight, e.groundEffect, e.stallSweep, e.trim, e.mtow, e.score,
	}
	for i, step := range steps {
		if err := e.run(ctx, ev, Stages[i], step); err != nil {
			return *ev.Evaluation, err
		}
	}
	if ev.Record.Feasible {
		e.metrics.evaluation("feasible")
		e.metrics.feasible(ev.Record.Payload)
	} else {
		e.metrics.evaluation("infeasible")
	}
	level.Info(ev.logger).Log("payload(kg)", ev.Record.Payload, "raw", ev.Record.RawScore, "pvoo", ev.Record.CompetitionScore, "failed", len(ev.Failures()))
	return *ev.Evaluation, nil
}

// protect runs step, turning a panic into a stage failure.
func protect(ctx context.Context, ev *evaluation, step func(context.Context, *evaluation) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrStageFailed, r)
		}
	}()
	return step(ctx, ev)
}

// run runs one stage and records its outcome. Only the context error is returned.
func (e *Evaluator) run(ctx context.Context, ev *evaluation, stage Stage, step func(context.Context, *evaluation) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := protect(ctx, ev, step)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	outcome := StageOutcome{Stage: stage, Duration: time.Since(start)}
	if err != nil {
		outcome.Err = &StageError{Stage: stage, Err: err}
		level.Warn(ev.logger).Log("stage", stage, "status", "failed", "err", err)
	} else {
		level.Debug(ev.logger).Log("stage", stage, "status", "ok", "duration", outcome.Duration)
	}
	ev.Outcomes = append(ev.Outcomes, outcome)
	e.metrics.stage(stage, outcome.Duration, err)
	return nil
}

// analyze runs one analysis and fails it if checkStall is set and a station is stalled.
func (e *Evaluator) analyze(ctx context.Context, ev *evaluation, req AnalysisRequest, checkStall bool) (AnalysisResult, error) {
	req.Condition = ev.cond
	rslt, err := e.gateway.Analyze(ctx, ev.geo, req)
	if err != nil {
		return rslt, err
	}
	if checkStall {
		if strip, stalled := DetectStall(rslt.Strips, stallLimits(ev.geo)); stalled {
			return rslt, fmt.Errorf("%w: %s at y=%.3f m (cl=%.3f) for α=%.1f°", ErrStalled, strip.Surface, strip.Y, strip.CL, rslt.Alpha)
		}
	}
	return rslt, nil
}

func (e *Evaluator) freeFlight(ctx context.Context, ev *evaluation) error {
	rslt, err := e.analyze(ctx, ev, AnalysisRequest{Name: "free flight", TrimElevator: true}, true)
	if err != nil {
		return err
	}
	ev.FreeFlight = &rslt
	level.Debug(ev.logger).Log("stage", StageFreeFlight, "coeffs", rslt.Coefficients)
	return nil
}

func (e *Evaluator) groundEffect(ctx context.Context, ev *evaluation) error {
	rslt, err := e.analyze(ctx, ev, AnalysisRequest{Name: "ground effect", TrimElevator: true, GroundEffect: true}, false)
	if err != nil {
		return err
	}
	ev.GroundEffect = &rslt
	level.Debug(ev.logger).Log("stage", StageGroundEffect, "coeffs", rslt.Coefficients)
	return nil
}

func (e *Evaluator) stallSweep(ctx context.Context, ev *evaluation) error {
	var start StallState
	if ev.FreeFlight != nil {
		start = StallState{Alpha: ev.FreeFlight.Alpha, CL: ev.FreeFlight.Coefficients.CL, Valid: true}
	}
	lift := func(α float64) (float64, error) {
		rslt, err := e.analyze(ctx, ev, AnalysisRequest{Name: fmt.Sprintf("stall %.1f", α), Alpha: α, TrimElevator: true}, true)
		if err != nil {
			level.Debug(ev.logger).Log("stage", StageStallSweep, "alpha", α, "err", err)
			return 0, err
		}
		return rslt.Coefficients.CL, nil
	}
	state, err := StallSweep(e.cfg.Stall, start, lift)
	ev.Stall = state
	if err != nil {
		return err
	}
	level.Debug(ev.logger).Log("stage", StageStallSweep, "state", state)
	return nil
}

func (e *Evaluator) trim(ctx context.Context, ev *evaluation) error {
	rslt, err := e.analyze(ctx, ev, AnalysisRequest{Name: "trimmed", TrimAlpha: true}, false)
	if err != nil {
		return err
	}
	xcg, _ := ev.geo.CG()
	ev.Trim = TrimState{
		Alpha:        rslt.Alpha,
		NeutralPoint: rslt.NeutralPoint,
		StaticMargin: (rslt.NeutralPoint - xcg) / ev.geo.MeanAeroChord(),
		Valid:        true,
	}
	level.Debug(ev.logger).Log("stage", StageTrim, "state", ev.Trim)
	return nil
}

func (e *Evaluator) mtow(ctx context.Context, ev *evaluation) error {
	switch {
	case ev.FreeFlight == nil:
		return fmt.Errorf("%w: %s", ErrMissingInput, StageFreeFlight)
	case ev.GroundEffect == nil:
		return fmt.Errorf("%w: %s", ErrMissingInput, StageGroundEffect)
	case !ev.Stall.Valid:
		return fmt.Errorf("%w: %s", ErrMissingInput, StageStallSweep)
	}
	coeffs := TakeoffCoefficients{
		Area:         ev.geo.ReferenceArea(),
		CLGround:     ev.GroundEffect.Coefficients.CL,
		CDGround:     ev.GroundEffect.Coefficients.CD,
		CLMax:        ev.Stall.CL,
		CDTransition: ev.FreeFlight.Coefficients.CD,
	}
	reg := e.cfg.Regulations
	model := NewTakeoffModel(ev.cond.Atmosphere, e.thruster, coeffs, reg)
	rslt, err := SolveMTOW(model, reg)
	if err != nil {
		return err
	}
	if payload := rslt.Mass - ev.geo.EmptyMass(); payload < 0 {
		return fmt.Errorf("%w: MTOW %.3f kg below empty mass %.3f kg", ErrNegativePayload, rslt.Mass, ev.geo.EmptyMass())
	}
	ev.Takeoff = &rslt
	level.Debug(ev.logger).Log("stage", StageMTOW, "takeoff", rslt)
	return nil
}

func (e *Evaluator) score(ctx context.Context, ev *evaluation) error {
	ev.Sizing = NewSizing(ev.geo).withStability(ev.Trim, ev.Stall)
	ev.Sizing.Violations = e.cfg.Constraints.Violations(ev.Sizing)
	empty := ev.geo.EmptyMass()
	trimAlpha := 0.0
	if ev.Trim.Valid {
		trimAlpha = ev.Trim.Alpha
	}
	rec := ScoreRecord{Geometry: ev.Geometry, EmptyMass: empty}
	rec.Penalty = e.cfg.Penalties.Total(trimAlpha, cgFraction(ev.geo))
	if ev.Takeoff != nil {
		rec.MTOW = ev.Takeoff.Mass
		rec.Payload = rec.MTOW - empty
		rec.Feasible = true
	}
	rec.RawScore = rec.Payload - rec.Penalty
	pvoo, err := CompetitionScore(empty, rec.Payload, ev.geo.Span(), e.cfg.Score)
	if err != nil {
		return err
	}
	rec.CompetitionScore = pvoo
	ev.Record = rec
	if !rec.Feasible {
		return fmt.Errorf("%w: %s", ErrMissingInput, StageMTOW)
	}
	return nil
}
