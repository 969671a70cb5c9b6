package mdo

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearGatewayTrim(t *testing.T) {
	geo := defaultAirframe(t)
	gw := NewLinearGateway()
	cond := DefaultConfig().Environment.Condition()
	ctx := context.Background()

	ff, err := gw.Analyze(ctx, geo, AnalysisRequest{Name: "ff", Condition: cond, TrimElevator: true})
	require.NoError(t, err)
	assert.InDelta(t, 0, ff.Coefficients.Cm, 1e-9)
	assert.InDelta(t, 2.186, ff.Coefficients.Elevator, 1e-2)
	assert.Less(t, ff.Coefficients.Cma, 0.0, "statically stable")
	assert.Greater(t, ff.Coefficients.Cnb, 0.0, "weathercock stable")
	xcg, _ := geo.CG()
	assert.Greater(t, ff.NeutralPoint, xcg)

	trim, err := gw.Analyze(ctx, geo, AnalysisRequest{Name: "trim", Condition: cond, TrimAlpha: true})
	require.NoError(t, err)
	assert.InDelta(t, 1.836, trim.Alpha, 1e-2)
	assert.InDelta(t, 0, trim.Coefficients.Cm, 1e-9)
	assert.Zero(t, trim.Coefficients.Elevator)

	// Cma is the slope of Cm in α.
	a1, _ := gw.Analyze(ctx, geo, AnalysisRequest{Condition: cond, Alpha: 1})
	a2, _ := gw.Analyze(ctx, geo, AnalysisRequest{Condition: cond, Alpha: 2})
	assert.InDelta(t, a2.Coefficients.Cm-a1.Coefficients.Cm, a1.Coefficients.Cma*deg2rad, 1e-9)
}

func TestLinearGatewayGroundEffect(t *testing.T) {
	geo := defaultAirframe(t)
	gw := NewLinearGateway()
	req := AnalysisRequest{Condition: DefaultConfig().Environment.Condition(), Alpha: 4}
	free, err := gw.Analyze(context.Background(), geo, req)
	require.NoError(t, err)
	req.GroundEffect = true
	ground, err := gw.Analyze(context.Background(), geo, req)
	require.NoError(t, err)
	assert.Greater(t, ground.Coefficients.CL, free.Coefficients.CL)
	assert.Less(t, ground.Coefficients.CD, free.Coefficients.CD)
	assert.Equal(t, 1.0, wieselsberger(geo.Parts[0], false))
	assert.InDelta(t, 0.7353, wieselsberger(geo.Parts[0], true), 1e-4)
}

func TestLinearGatewayStrips(t *testing.T) {
	geo := defaultAirframe(t)
	gw := NewLinearGateway()
	rslt, err := gw.Analyze(context.Background(), geo, AnalysisRequest{Condition: DefaultConfig().Environment.Condition(), Alpha: 6})
	require.NoError(t, err)
	// Wing and horizontal tail stations.
	require.Len(t, rslt.Strips, 2*gw.Stations)
	wing := geo.Parts[0]
	var lift float64
	for _, s := range rslt.Strips[:gw.Stations] {
		assert.Equal(t, "wing", s.Surface)
		lift += s.CL * wing.ChordAt(s.Y) * wing.Span / 2 / float64(gw.Stations)
	}
	// The stations integrate back to the wing lift (midpoint rule on an elliptic loading).
	loads, err := gw.loads(geo, 6, 0, false)
	require.NoError(t, err)
	assert.InDelta(t, loads[0].cl*wing.Area()/2, lift, 0.01*lift)
}

func TestLinearGatewayFailures(t *testing.T) {
	gw := NewLinearGateway()
	cond := DefaultConfig().Environment.Condition()
	noWing := &Airframe{Label: "tail only", Parts: []Surface{{Name: "htail", Kind: HorizontalTail, Span: 1, RootChord: 0.2, TipChord: 0.2}}, Mass: 1}
	_, err := gw.Analyze(context.Background(), noWing, AnalysisRequest{Condition: cond})
	assert.ErrorIs(t, err, ErrStageFailed)

	// A flying wing without a tail cannot be trimmed with an elevator.
	geo := defaultAirframe(t)
	geo.Parts = geo.Parts[:1]
	_, err = gw.Analyze(context.Background(), geo, AnalysisRequest{Condition: cond, TrimElevator: true})
	assert.ErrorIs(t, err, ErrStageFailed)

	// Elevator saturation.
	geo = defaultAirframe(t)
	_, err = gw.Analyze(context.Background(), geo, AnalysisRequest{Condition: cond, Alpha: 40, TrimElevator: true})
	assert.ErrorIs(t, err, ErrStageFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gw.Analyze(ctx, geo, AnalysisRequest{Condition: cond})
	assert.ErrorIs(t, err, context.Canceled)
}

const avlwrapperOutput = `{
  "Totals": {"Alpha": 2.5, "CLtot": 0.61, "CDtot": 0.052, "Cmtot": 0.0, "elevator": -1.2},
  "StabilityDerivatives": {"Cma": -1.1, "Cnb": 0.07, "Xnp": 0.19},
  "StripForces": {
    "wing": {"cl": [0.7, 0.68, 0.5], "Yle": [0.1, 0.5, 1.1]},
    "htail": {"cl": [0.1, 0.08], "Yle": [0.05, 0.3]}
  }
}`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "avl.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestExecGateway(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "request.json")
	script := writeScript(t, "cat > \"$REQUEST\"\ncat <<'EOF'\n"+avlwrapperOutput+"\nEOF\n")
	gw := &ExecGateway{Command: script, Env: []string{"REQUEST=" + input}}
	geo := defaultAirframe(t)
	rslt, err := gw.Analyze(context.Background(), geo, AnalysisRequest{Name: "trimmed", Condition: DefaultConfig().Environment.Condition(), TrimAlpha: true})
	require.NoError(t, err)
	assert.Equal(t, 2.5, rslt.Alpha)
	assert.Equal(t, AeroCoefficients{CL: 0.61, CD: 0.052, Cm: 0, Elevator: -1.2, Cma: -1.1, Cnb: 0.07}, rslt.Coefficients)
	assert.Equal(t, 0.19, rslt.NeutralPoint)
	require.Len(t, rslt.Strips, 5)
	// Sorted by surface name.
	assert.Equal(t, StripLoad{Surface: "htail", Y: 0.05, CL: 0.1}, rslt.Strips[0])
	assert.Equal(t, StripLoad{Surface: "wing", Y: 1.1, CL: 0.5}, rslt.Strips[4])

	request, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Contains(t, string(request), `"case":"trimmed"`)
	assert.Contains(t, string(request), `"trim_alpha":true`)
	assert.Contains(t, string(request), `"airfoil":"high-lift"`)
}

func TestExecGatewayFailures(t *testing.T) {
	geo := defaultAirframe(t)
	req := AnalysisRequest{Name: "ff", Condition: DefaultConfig().Environment.Condition()}

	gw := &ExecGateway{Command: writeScript(t, "echo 'avl: no convergence' >&2\nexit 3\n")}
	_, err := gw.Analyze(context.Background(), geo, req)
	assert.ErrorIs(t, err, ErrStageFailed)
	assert.Contains(t, err.Error(), "no convergence")

	gw = &ExecGateway{Command: writeScript(t, "echo 'not json'\n")}
	_, err = gw.Analyze(context.Background(), geo, req)
	assert.ErrorIs(t, err, ErrStageFailed)

	gw = &ExecGateway{Command: writeScript(t, `echo '{"error": "singular matrix"}'`+"\n")}
	_, err = gw.Analyze(context.Background(), geo, req)
	assert.ErrorIs(t, err, ErrStageFailed)
	assert.Contains(t, err.Error(), "singular matrix")

	_, err = parseExecResult([]byte(`{"StripForces": {"wing": {"cl": [1, 2], "Yle": [0.1]}}}`))
	assert.ErrorIs(t, err, ErrStageFailed)

	gw = &ExecGateway{Command: writeScript(t, "exec sleep 10\n")}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = gw.Analyze(ctx, geo, req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCachedGateway(t *testing.T) {
	var calls atomic.Int32
	next := GatewayFunc(func(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
		calls.Add(1)
		if req.Alpha > 10 {
			return AnalysisResult{}, ErrStalled
		}
		return AnalysisResult{Alpha: req.Alpha, Strips: []StripLoad{{Surface: "wing", CL: 0.1 * req.Alpha}}}, nil
	})
	metrics := NewMetrics(prometheus.NewRegistry())
	gw := NewCachedGateway(next, 16, time.Minute, metrics)
	geo := defaultAirframe(t)
	req := AnalysisRequest{Condition: DefaultConfig().Environment.Condition(), Alpha: 5}

	first, err := gw.Analyze(context.Background(), geo, req)
	require.NoError(t, err)
	first.Strips[0].CL = 42 // must not corrupt the cache
	second, err := gw.Analyze(context.Background(), geo, req)
	require.NoError(t, err)
	assert.Equal(t, 0.5, second.Strips[0].CL)
	assert.Equal(t, int32(1), calls.Load())

	req.GroundEffect = true
	_, err = gw.Analyze(context.Background(), geo, req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	// Failures are not cached.
	req.Alpha = 12
	for i := 0; i < 2; i++ {
		_, err = gw.Analyze(context.Background(), geo, req)
		assert.ErrorIs(t, err, ErrStalled)
	}
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, 2, gw.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))
}
