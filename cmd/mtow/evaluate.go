package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ChristopherRabotin/mdo"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [design file]",
	Short: "Runs the staged evaluation of one design (the default design if no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) (err error) {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.close(); err == nil {
			err = cerr
		}
	}()
	design := mdo.DefaultDesign()
	if len(args) == 1 {
		if design, err = mdo.LoadDesign(args[0]); err != nil {
			return err
		}
	}
	geo, err := design.Airframe(e.airfoils(), mdo.DefaultMassModel())
	if err != nil {
		return err
	}
	evaluator, err := e.evaluator()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ev, err := evaluator.Evaluate(ctx, geo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, geo)
	for _, o := range ev.Outcomes {
		status := "ok"
		if !o.OK() {
			status = o.Err.Error()
		}
		fmt.Fprintf(out, "%-14s %-10s %s\n", o.Stage, o.Duration.Round(time.Microsecond), status)
	}
	if verbose {
		if ev.FreeFlight != nil {
			fmt.Fprintf(out, "free flight: %s\n", ev.FreeFlight.Coefficients)
		}
		if ev.GroundEffect != nil {
			fmt.Fprintf(out, "ground effect: %s\n", ev.GroundEffect.Coefficients)
		}
		fmt.Fprintf(out, "%s\n%s\n%s\n", ev.Stall, ev.Trim, ev.Sizing)
		if len(ev.Sizing.Violations) > 0 {
			fmt.Fprintf(out, "outside of: %s\n", strings.Join(ev.Sizing.Violations, ", "))
		}
		if ev.Takeoff != nil {
			fmt.Fprintln(out, ev.Takeoff)
		}
	}
	fmt.Fprintln(out, ev.Record)
	if verbose && ev.Record.Feasible {
		return printScoreTable(out, ev.Record.EmptyMass, ev.Record.Payload, geo.Span(), evaluator.Config().Score)
	}
	return nil
}
