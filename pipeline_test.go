package mdo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	kitlog "github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func defaultAirframe(t *testing.T) *Airframe {
	t.Helper()
	af, err := DefaultDesign().Airframe(BuiltinAirfoils(), DefaultMassModel())
	require.NoError(t, err)
	return af
}

func newTestEvaluator(t *testing.T, gw Gateway, metrics *Metrics) *Evaluator {
	t.Helper()
	ev, err := NewEvaluator(DefaultConfig(), gw, kitlog.NewNopLogger(), metrics)
	require.NoError(t, err)
	return ev
}

// linearStall is a gateway whose lift grows by 0.1 per degree and whose single station carries
// the total lift.
func linearStall(trimAlpha float64) GatewayFunc {
	return func(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
		α := req.Alpha
		if req.TrimAlpha {
			α = trimAlpha
		}
		cl := 0.1 * α
		if req.GroundEffect {
			cl += 0.05
		}
		return AnalysisResult{
			Coefficients: AeroCoefficients{CL: cl, CD: 0.05 + 0.05*cl*cl},
			Alpha:        α,
			NeutralPoint: 0.2,
			Strips:       []StripLoad{{Surface: "wing", Y: 0.5, CL: cl}},
		}, nil
	}
}

func TestEvaluateDefaultAirframe(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	geo := defaultAirframe(t)
	ev, err := newTestEvaluator(t, NewLinearGateway(), metrics).Evaluate(context.Background(), geo)
	require.NoError(t, err)

	require.Len(t, ev.Outcomes, len(Stages))
	for i, o := range ev.Outcomes {
		assert.Equal(t, Stages[i], o.Stage)
		assert.NoError(t, o.Err, "stage %s", o.Stage)
	}
	assert.Empty(t, ev.Failures())

	require.NotNil(t, ev.FreeFlight)
	require.NotNil(t, ev.GroundEffect)
	assert.InDelta(t, 0.4645, ev.FreeFlight.Coefficients.CL, 1e-3)
	assert.InDelta(t, 0, ev.FreeFlight.Coefficients.Cm, 1e-9)
	assert.Greater(t, ev.GroundEffect.Coefficients.CL, ev.FreeFlight.Coefficients.CL)
	assert.Less(t, ev.GroundEffect.Coefficients.CD, ev.FreeFlight.Coefficients.CD)

	assert.True(t, ev.Stall.Valid)
	assert.True(t, ev.Stall.Stalled)
	assert.Equal(t, 14.0, ev.Stall.Alpha)
	assert.InDelta(t, 1.5769, ev.Stall.CL, 1e-3)

	assert.True(t, ev.Trim.Valid)
	assert.InDelta(t, 1.836, ev.Trim.Alpha, 1e-2)
	assert.InDelta(t, 0.2128, ev.Trim.StaticMargin, 1e-3)

	rec := ev.Record
	assert.True(t, rec.Feasible)
	assert.InDelta(t, 3.3257, rec.EmptyMass, 1e-3)
	assert.InDelta(t, 9.968, rec.MTOW, 1e-2)
	assert.InDelta(t, rec.MTOW-rec.EmptyMass, rec.Payload, 1e-12)
	assert.Zero(t, rec.Penalty)
	assert.Equal(t, rec.Payload, rec.RawScore)
	assert.InDelta(t, 37.21, rec.CompetitionScore, 0.1)
	require.NotNil(t, ev.Takeoff)
	assert.InDelta(t, DefaultRegulations().RunwayLength, ev.Takeoff.Total, 1e-3)

	assert.Empty(t, ev.Sizing.Violations, ev.Sizing.String())
	assert.Equal(t, ev.Trim.Alpha, ev.Sizing.TrimAlpha)
	assert.Equal(t, ev.Trim.StaticMargin, ev.Sizing.StaticMargin)
	assert.InDelta(t, ev.Stall.Alpha-ev.Trim.Alpha, ev.Sizing.StallMargin, 1e-12)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evaluations.WithLabelValues("feasible")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.payload))
}

func TestEvaluateImmediateStall(t *testing.T) {
	stalled := GatewayFunc(func(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
		return AnalysisResult{
			Coefficients: AeroCoefficients{CL: 0.8, CD: 0.1},
			Alpha:        req.Alpha,
			Strips:       []StripLoad{{Surface: "wing", CL: 5}},
		}, nil
	})
	ev, err := newTestEvaluator(t, stalled, nil).Evaluate(context.Background(), defaultAirframe(t))
	require.NoError(t, err)
	require.Len(t, ev.Outcomes, len(Stages))

	ff, _ := ev.Outcome(StageFreeFlight)
	assert.ErrorIs(t, ff.Err, ErrStalled)
	var serr *StageError
	require.ErrorAs(t, ff.Err, &serr)
	assert.Equal(t, StageFreeFlight, serr.Stage)

	ge, _ := ev.Outcome(StageGroundEffect)
	assert.NoError(t, ge.Err)
	sweep, _ := ev.Outcome(StageStallSweep)
	assert.ErrorIs(t, sweep.Err, ErrStalled)
	assert.False(t, ev.Stall.Valid)
	mtow, _ := ev.Outcome(StageMTOW)
	assert.ErrorIs(t, mtow.Err, ErrMissingInput)
	score, _ := ev.Outcome(StageScore)
	assert.ErrorIs(t, score.Err, ErrMissingInput)

	assert.False(t, ev.Record.Feasible)
	assert.Zero(t, ev.Record.MTOW)
	assert.Zero(t, ev.Record.Payload)
	assert.Zero(t, ev.Record.CompetitionScore)
}

func TestEvaluateEverythingFails(t *testing.T) {
	broken := GatewayFunc(func(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
		return AnalysisResult{}, fmt.Errorf("%w: solver diverged", ErrStageFailed)
	})
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	ev, err := newTestEvaluator(t, broken, metrics).Evaluate(context.Background(), defaultAirframe(t))
	require.NoError(t, err)
	require.Len(t, ev.Failures(), len(Stages))
	for _, o := range ev.Failures() {
		assert.ErrorIs(t, o.Err, ErrStageFailed)
	}
	assert.Equal(t, untrimmed, ev.Trim)
	// The default airframe has its CG within the band, and an untrimmed aircraft has no trim penalty.
	assert.Equal(t, ScoreRecord{Geometry: "default", EmptyMass: ev.Record.EmptyMass}, ev.Record)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evaluations.WithLabelValues("infeasible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stageFailures.WithLabelValues("trim", "analysis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stageFailures.WithLabelValues("mtow", "missing_input")))
}

func TestEvaluateGatewayPanics(t *testing.T) {
	panicking := GatewayFunc(func(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
		panic("index out of range")
	})
	ev, err := newTestEvaluator(t, panicking, nil).Evaluate(context.Background(), defaultAirframe(t))
	require.NoError(t, err)
	require.Len(t, ev.Failures(), len(Stages))
	ff, _ := ev.Outcome(StageFreeFlight)
	var serr *StageError
	require.ErrorAs(t, ff.Err, &serr)
	assert.ErrorIs(t, serr.Err, ErrStageFailed)
	assert.Contains(t, ff.Err.Error(), "index out of range")
	assert.False(t, ev.Record.Feasible)
}

func TestEvaluateUnknownSurfaceKind(t *testing.T) {
	geo := defaultAirframe(t)
	geo.Parts = append(geo.Parts, Surface{Name: "pod", Span: 0.1, RootChord: 0.1, TipChord: 0.1})

	script := writeScript(t, `req=$(cat)
case "$req" in
*'"kind":"unknown"'*) echo '{"error": "unknown pod"}' ;;
*) echo '{}' ;;
esac
`)
	ev, err := newTestEvaluator(t, &ExecGateway{Command: script}, nil).Evaluate(context.Background(), geo)
	require.NoError(t, err)
	ff, _ := ev.Outcome(StageFreeFlight)
	assert.ErrorIs(t, ff.Err, ErrStageFailed)
	assert.Contains(t, ff.Err.Error(), "unknown pod")

	// The linear model only looks at the surfaces it knows.
	ev, err = newTestEvaluator(t, NewLinearGateway(), nil).Evaluate(context.Background(), geo)
	require.NoError(t, err)
	assert.Empty(t, ev.Failures())
}

func TestEvaluateSyntheticStallSweep(t *testing.T) {
	geo := defaultAirframe(t)
	// Without a section limit, the stations stall at the default limit.
	for i := range geo.Parts {
		geo.Parts[i].Airfoil.CLMax = 0
	}
	ev, err := newTestEvaluator(t, linearStall(2), nil).Evaluate(context.Background(), geo)
	require.NoError(t, err)
	assert.True(t, ev.Stall.Valid)
	assert.True(t, ev.Stall.Stalled)
	assert.Less(t, ev.Stall.Alpha, 12.0)
	assert.Equal(t, 11.0, ev.Stall.Alpha)
	assert.InDelta(t, 1.1, ev.Stall.CL, 1e-12)
}

func TestEvaluatePenalties(t *testing.T) {
	geo := defaultAirframe(t)
	ev, err := newTestEvaluator(t, linearStall(7), nil).Evaluate(context.Background(), geo)
	require.NoError(t, err)
	require.True(t, ev.Trim.Valid)
	assert.InDelta(t, 2+10*(7-5.), ev.Record.Penalty, 1e-9)
	assert.InDelta(t, ev.Record.Payload-ev.Record.Penalty, ev.Record.RawScore, 1e-12)

	// Moving the CG aft of 35% of the root chord adds a second penalty.
	geo.XCG = geo.Parts[0].X + 0.45*geo.Parts[0].RootChord
	ev, err = newTestEvaluator(t, linearStall(7), nil).Evaluate(context.Background(), geo)
	require.NoError(t, err)
	assert.InDelta(t, 22+2+10*0.1, ev.Record.Penalty, 1e-9)
}

func TestEvaluateInvalidGeometry(t *testing.T) {
	evaluator := newTestEvaluator(t, NewLinearGateway(), nil)
	geo := defaultAirframe(t)
	geo.Mass = 0
	_, err := evaluator.Evaluate(context.Background(), geo)
	assert.ErrorIs(t, err, ErrInvalidPhysicalInput)

	geo = defaultAirframe(t)
	geo.Parts[0].RootChord, geo.Parts[0].TipChord = 0, 0
	_, err = evaluator.Evaluate(context.Background(), geo)
	assert.ErrorIs(t, err, ErrInvalidPhysicalInput)

	_, err = evaluator.Evaluate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidPhysicalInput)

	var missing *Airframe
	_, err = evaluator.Evaluate(context.Background(), missing)
	assert.ErrorIs(t, err, ErrInvalidPhysicalInput)
}

func TestEvaluateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	gw := GatewayFunc(func(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
		calls++
		cancel()
		return AnalysisResult{}, ctx.Err()
	})
	_, err := newTestEvaluator(t, gw, nil).Evaluate(ctx, defaultAirframe(t))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestEvaluateConcurrently(t *testing.T) {
	evaluator := newTestEvaluator(t, NewCachedGateway(NewLinearGateway(), 256, 0, nil), nil)
	records := make([]ScoreRecord, 8)
	var g errgroup.Group
	for i := range records {
		g.Go(func() error {
			design := DefaultDesign()
			design.Name = fmt.Sprintf("span-%d", i)
			design.WingSpan = 2 + 0.1*float64(i)
			geo, err := design.Airframe(BuiltinAirfoils(), DefaultMassModel())
			if err != nil {
				return err
			}
			ev, err := evaluator.Evaluate(context.Background(), geo)
			records[i] = ev.Record
			return err
		})
	}
	require.NoError(t, g.Wait())
	for i, rec := range records {
		assert.Equal(t, fmt.Sprintf("span-%d", i), rec.Geometry)
		assert.True(t, rec.Feasible, rec.String())
	}
}

func TestNewEvaluatorInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Regulations.RunwayLength = 0
	_, err := NewEvaluator(cfg, NewLinearGateway(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPhysicalInput)
	_, err = NewEvaluator(DefaultConfig(), nil, nil, nil)
	assert.Error(t, err)
}

func TestStageString(t *testing.T) {
	names := map[string]bool{}
	for _, s := range Stages {
		names[s.String()] = true
	}
	assert.Len(t, names, len(Stages))
	assert.Panics(t, func() { _ = Stage(0).String() })
}
