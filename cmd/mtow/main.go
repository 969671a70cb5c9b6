package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	airfoilDir  string
	logFile     string
	logLevel    string
	metricsFile string
	avlCommand  string
	cacheSize   int
	numCPUs     int
	verbose     bool

	rootCmd = &cobra.Command{
		Use:   "mtow",
		Short: "Evaluates the takeoff performance and score of competition aircraft",
		Long: `mtow solves the maximum takeoff mass of an aircraft on the competition runway,
runs the staged aerodynamic evaluation of a design and scores it.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			availableCPUs := runtime.NumCPU()
			if numCPUs <= 0 || numCPUs > availableCPUs {
				numCPUs = availableCPUs
			}
			runtime.GOMAXPROCS(numCPUs)
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file (defaults to $MDO_CONFIG/conf.toml)")
	flags.StringVar(&airfoilDir, "airfoils", "", "airfoil catalog directory, added to the builtin airfoils")
	flags.StringVar(&logFile, "log-file", "", "also write logs to this rotated file")
	flags.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&metricsFile, "metrics", "", "write the Prometheus metrics to this text file on exit")
	flags.StringVar(&avlCommand, "avl", "", "external analysis command (the builtin linear model is used if unset)")
	flags.IntVar(&cacheSize, "cache", 4096, "number of cached analyses (0 disables the cache)")
	flags.IntVar(&numCPUs, "cpus", -1, "number of CPUs to use (set to 0 for max CPUs)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print the details of every result")

	rootCmd.AddCommand(solveCmd, evaluateCmd, sweepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
