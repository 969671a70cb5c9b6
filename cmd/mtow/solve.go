package main

import (
	"fmt"

	"github.com/ChristopherRabotin/mdo"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

var (
	coeffs    mdo.TakeoffCoefficients
	emptyMass float64
	span      float64
	runStep   float64

	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Solves the maximum takeoff mass from aerodynamic coefficients",
		RunE:  runSolve,
	}
)

func init() {
	flags := solveCmd.Flags()
	flags.Float64Var(&coeffs.Area, "area", 0.8, "wing reference area (m^2)")
	flags.Float64Var(&coeffs.CLGround, "cl", 1, "lift coefficient during the ground roll")
	flags.Float64Var(&coeffs.CDGround, "cd", 0.12, "drag coefficient during the ground roll")
	flags.Float64Var(&coeffs.CLMax, "clmax", 1.5, "maximum lift coefficient")
	flags.Float64Var(&coeffs.CDTransition, "cdt", 0.2, "drag coefficient during the transition and climb")
	flags.Float64Var(&emptyMass, "empty", 0, "empty mass (kg) used for the payload and the score table")
	flags.Float64Var(&span, "span", 2, "wing span (m) used for the score table")
	flags.Float64Var(&runStep, "step", mdo.DefaultGroundRunStep, "time step (s) of the integrated ground run")
}

func runSolve(cmd *cobra.Command, args []string) (err error) {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.close(); err == nil {
			err = cerr
		}
	}()
	reg := e.cfg.Regulations
	atm := e.cfg.Environment.Condition().Atmosphere
	model := mdo.NewTakeoffModel(atm, mdo.NewElectricThruster(e.cfg.RatedPower), coeffs, reg)
	rslt, err := mdo.SolveMTOW(model, reg)
	if err != nil {
		return err
	}
	level.Info(e.logger).Log("subsys", "mtow", "mass(kg)", rslt.Mass, "total(m)", rslt.Total)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n%s\n", atm, rslt)
	if verbose {
		fmt.Fprintf(out, "stall speed: %.3f m/s\tlift-off speed: %.3f m/s\n", model.StallSpeed(rslt.Mass), model.LiftOffSpeed(rslt.Mass))
		run, rerr := model.GroundRun(rslt.Mass, runStep)
		if rerr != nil {
			level.Warn(e.logger).Log("subsys", "groundrun", "err", rerr)
		} else {
			fmt.Fprintf(out, "integrated %s\n", run)
		}
	}
	if emptyMass <= 0 {
		return nil
	}
	payload := rslt.Mass - emptyMass
	if payload < 0 {
		return fmt.Errorf("%w: MTOW %.3f kg below empty mass %.3f kg", mdo.ErrNegativePayload, rslt.Mass, emptyMass)
	}
	pvoo, err := mdo.CompetitionScore(emptyMass, payload, span, e.cfg.Score)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "payload: %.3f kg\tPVOO: %.3f\ttotal: %.3f\n", payload, pvoo, e.cfg.Score.GrandTotal(pvoo))
	if verbose {
		return printScoreTable(out, emptyMass, payload, span, e.cfg.Score)
	}
	return nil
}
