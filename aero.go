package mdo

import (
	"context"
	"fmt"
)

// AeroCoefficients are the force and moment coefficients of one analysis.
type AeroCoefficients struct {
	CL       float64
	CD       float64
	Cm       float64 // about the CG
	Elevator float64 // deg
	Cma      float64 // per rad
	Cnb      float64 // per rad
}

func (c AeroCoefficients) String() string {
	return fmt.Sprintf("CL=%.4f CD=%.5f Cm=%.5f δe=%.2f° Cma=%.4f Cnb=%.4f", c.CL, c.CD, c.Cm, c.Elevator, c.Cma, c.Cnb)
}

// AnalysisRequest is one run case of an aerodynamic analysis.
type AnalysisRequest struct {
	Name         string
	Condition    FlightCondition
	Alpha        float64 // deg, ignored when TrimAlpha is set
	TrimAlpha    bool    // solve the angle of attack for Cm = 0 at zero elevator
	TrimElevator bool    // solve the elevator for Cm = 0 at Alpha
	GroundEffect bool    // mirror the geometry about the ground plane
}

// AnalysisResult is the outcome of an AnalysisRequest.
type AnalysisResult struct {
	Coefficients AeroCoefficients
	Alpha        float64 // deg, as flown (solved when trimming for α)
	NeutralPoint float64 // m, x position
	Strips       []StripLoad
}

// Gateway runs aerodynamic analyses. A failed analysis is returned as an error wrapping
// ErrStageFailed; a Gateway must be safe for concurrent use.
type Gateway interface {
	Analyze(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error)
}

// GatewayFunc allows the use of ordinary functions as a Gateway.
type GatewayFunc func(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error)

// Analyze implements the Gateway interface.
func (f GatewayFunc) Analyze(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
	return f(ctx, geo, req)
}
