package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ChristopherRabotin/mdo"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

var (
	samples   int
	seed      uint64
	baseFile  string
	outputDir string
	prefix    string
	stamp     bool
	spanRange []float64
	cordRange []float64
	taperRng  []float64
	tailRange []float64

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Evaluates randomly sampled designs and exports them as CSV",
		RunE:  runSweep,
	}
)

func init() {
	flags := sweepCmd.Flags()
	flags.IntVarP(&samples, "samples", "n", 100, "number of designs")
	flags.Uint64Var(&seed, "seed", 1, "seed of the design sampler")
	flags.StringVar(&baseFile, "design", "", "base design file (defaults to the builtin design)")
	flags.StringVar(&outputDir, "output", ".", "output directory")
	flags.StringVar(&prefix, "prefix", "sweep", "file name prefix")
	flags.BoolVar(&stamp, "timestamp", false, "add a timestamp to the file names")
	flags.Float64SliceVar(&spanRange, "span", []float64{2, 2.7}, "wing span range (m)")
	flags.Float64SliceVar(&cordRange, "root-chord", nil, "wing root chord range (m)")
	flags.Float64SliceVar(&taperRng, "taper", nil, "wing taper ratio range")
	flags.Float64SliceVar(&tailRange, "tail-x", nil, "tail position range (m)")
}

func sweepRange(name string, bounds []float64) (mdo.SweepRange, error) {
	switch len(bounds) {
	case 0:
		return mdo.SweepRange{}, nil
	case 1:
		return mdo.SweepRange{Min: bounds[0], Max: bounds[0]}, nil
	case 2:
		return mdo.SweepRange{Min: bounds[0], Max: bounds[1]}, nil
	}
	return mdo.SweepRange{}, fmt.Errorf("--%s expects min,max", name)
}

func runSweep(cmd *cobra.Command, args []string) (err error) {
	var space mdo.SweepSpace
	for _, r := range []struct {
		name   string
		bounds []float64
		dst    *mdo.SweepRange
	}{
		{"span", spanRange, &space.WingSpan},
		{"root-chord", cordRange, &space.WingRootChord},
		{"taper", taperRng, &space.WingTaper},
		{"tail-x", tailRange, &space.TailX},
	} {
		if *r.dst, err = sweepRange(r.name, r.bounds); err != nil {
			return err
		}
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.close(); err == nil {
			err = cerr
		}
	}()
	base := mdo.DefaultDesign()
	if baseFile != "" {
		if base, err = mdo.LoadDesign(baseFile); err != nil {
			return err
		}
	}
	designs, err := space.Sample(base, samples, seed)
	if err != nil {
		return err
	}
	evaluator, err := e.evaluator()
	if err != nil {
		return err
	}
	sweep := mdo.Sweep{Evaluator: evaluator, Airfoils: e.airfoils(), Mass: mdo.DefaultMassModel(), Workers: numCPUs}

	conf := mdo.ExportConfig{Filename: prefix, OutputDir: outputDir, AsCSV: true, Summary: true, Timestamp: stamp}
	records := make(chan mdo.ExportRecord, 10) // Buffered to not block the workers on the disk.
	done := make(chan struct{})
	var summary mdo.ExportSummary
	var exportErr error
	go func() {
		defer close(done)
		summary, exportErr = mdo.StreamRecords(conf, records)
		for range records {
			// Drain to not block the workers after a failed export.
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	run, err := sweep.Run(ctx, designs, records)
	close(records)
	<-done
	if err != nil {
		return err
	}
	if exportErr != nil {
		return exportErr
	}
	level.Info(e.logger).Log("subsys", "sweep", "run", run, "designs", summary.Count, "feasible", summary.Feasible, "retained", summary.Retained, "duration", summary.Duration)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d/%d feasible designs, %d within the sizing bands\n", run, summary.Feasible, summary.Count, summary.Retained)
	if summary.Best != nil {
		fmt.Fprintf(out, "best: %s\n", summary.Best)
		if verbose {
			fmt.Fprintf(out, "%+v\n", *summary.Design)
		}
	}
	for _, f := range summary.Files {
		fmt.Fprintf(out, "wrote %s\n", f)
	}
	return nil
}
