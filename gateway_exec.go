package mdo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// ExecGateway runs an external analysis program, such as an AVL wrapper script, once per
// request. The request is written as JSON on its standard input and the program must print
// the avlwrapper style results on its standard output.
type ExecGateway struct {
	Command string
	Args    []string
	Env     []string // appended to the current environment
	Dir     string
}

type execSurface struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Span      float64 `json:"span"`
	RootChord float64 `json:"root_chord"`
	TipChord  float64 `json:"tip_chord"`
	X         float64 `json:"x"`
	Z         float64 `json:"z"`
	Incidence float64 `json:"incidence"`
	Airfoil   string  `json:"airfoil"`
	Path      string  `json:"airfoil_path,omitempty"`
	CLMax     float64 `json:"cl_max"`
}

type execGeometry struct {
	Name     string        `json:"name"`
	Sref     float64       `json:"Sref"`
	Cref     float64       `json:"Cref"`
	Bref     float64       `json:"Bref"`
	XCG      float64       `json:"Xref"`
	ZCG      float64       `json:"Zref"`
	Surfaces []execSurface `json:"surfaces"`
}

type execRequest struct {
	Case         string       `json:"case"`
	Geometry     execGeometry `json:"geometry"`
	Pressure     float64      `json:"pressure"`
	Temperature  float64      `json:"temperature"`
	Density      float64      `json:"density"`
	Velocity     float64      `json:"velocity"`
	Mach         float64      `json:"mach"`
	Alpha        float64      `json:"alpha"`
	TrimAlpha    bool         `json:"trim_alpha"`
	TrimElevator bool         `json:"trim_elevator"`
	GroundEffect bool         `json:"ground_effect"`
}

type execStrips struct {
	CL  []float64 `json:"cl"`
	Yle []float64 `json:"Yle"`
}

// execResult is the subset of the avlwrapper results used here.
type execResult struct {
	Totals struct {
		Alpha    float64 `json:"Alpha"`
		CLtot    float64 `json:"CLtot"`
		CDtot    float64 `json:"CDtot"`
		Cmtot    float64 `json:"Cmtot"`
		Elevator float64 `json:"elevator"`
	} `json:"Totals"`
	StabilityDerivatives struct {
		Cma float64 `json:"Cma"`
		Cnb float64 `json:"Cnb"`
		Xnp float64 `json:"Xnp"`
	} `json:"StabilityDerivatives"`
	StripForces map[string]execStrips `json:"StripForces"`
	Error       string                `json:"error,omitempty"`
}

func newExecRequest(geo Geometry, req AnalysisRequest) execRequest {
	x, z := geo.CG()
	g := execGeometry{Name: geo.Name(), Sref: geo.ReferenceArea(), Cref: geo.MeanAeroChord(), Bref: geo.ReferenceSpan(), XCG: x, ZCG: z}
	for _, s := range geo.Surfaces() {
		g.Surfaces = append(g.Surfaces, execSurface{
			Name: s.Name, Kind: s.Kind.String(), Span: s.Span, RootChord: s.RootChord, TipChord: s.TipChord,
			X: s.X, Z: s.Z, Incidence: s.Incidence, Airfoil: s.Airfoil.Name, Path: s.Airfoil.Path, CLMax: s.Airfoil.CLMax,
		})
	}
	return execRequest{
		Case:         req.Name,
		Geometry:     g,
		Pressure:     req.Condition.Pressure,
		Temperature:  req.Condition.Temperature,
		Density:      req.Condition.Density(),
		Velocity:     req.Condition.Velocity,
		Mach:         req.Condition.Mach,
		Alpha:        req.Alpha,
		TrimAlpha:    req.TrimAlpha,
		TrimElevator: req.TrimElevator,
		GroundEffect: req.GroundEffect,
	}
}

// parseExecResult converts the program output into an AnalysisResult.
func parseExecResult(out []byte) (AnalysisResult, error) {
	var raw execResult
	if err := json.Unmarshal(out, &raw); err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: invalid results: %s", ErrStageFailed, err)
	}
	if raw.Error != "" {
		return AnalysisResult{}, fmt.Errorf("%w: %s", ErrStageFailed, raw.Error)
	}
	rslt := AnalysisResult{
		Coefficients: AeroCoefficients{
			CL:       raw.Totals.CLtot,
			CD:       raw.Totals.CDtot,
			Cm:       raw.Totals.Cmtot,
			Elevator: raw.Totals.Elevator,
			Cma:      raw.StabilityDerivatives.Cma,
			Cnb:      raw.StabilityDerivatives.Cnb,
		},
		Alpha:        raw.Totals.Alpha,
		NeutralPoint: raw.StabilityDerivatives.Xnp,
	}
	names := make([]string, 0, len(raw.StripForces))
	for name := range raw.StripForces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		strips := raw.StripForces[name]
		if len(strips.CL) != len(strips.Yle) {
			return AnalysisResult{}, fmt.Errorf("%w: %s has %d cl for %d stations", ErrStageFailed, name, len(strips.CL), len(strips.Yle))
		}
		for i, cl := range strips.CL {
			rslt.Strips = append(rslt.Strips, StripLoad{Surface: name, Y: strips.Yle[i], CL: cl})
		}
	}
	return rslt, nil
}

// Analyze implements the Gateway interface.
func (g *ExecGateway) Analyze(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
	payload, err := json.Marshal(newExecRequest(geo, req))
	if err != nil {
		return AnalysisResult{}, err
	}
	cmd := exec.CommandContext(ctx, g.Command, g.Args...)
	cmd.Dir = g.Dir
	cmd.WaitDelay = time.Second
	if len(g.Env) > 0 {
		cmd.Env = append(os.Environ(), g.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return AnalysisResult{}, ctxErr
		}
		return AnalysisResult{}, fmt.Errorf("%w: %s %s: %s: %s", ErrStageFailed, g.Command, req.Name, err, strings.TrimSpace(stderr.String()))
	}
	return parseExecResult(stdout.Bytes())
}
