package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ChristopherRabotin/mdo"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// env gathers what every command needs.
type env struct {
	cfg      mdo.Config
	logger   kitlog.Logger
	registry *prometheus.Registry
	metrics  *mdo.Metrics
	closers  []io.Closer
}

func newEnv() (*env, error) {
	cfg, err := mdo.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, registry: prometheus.NewRegistry()}
	e.metrics = mdo.NewMetrics(e.registry)

	var w io.Writer = os.Stderr
	if logFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    32, // MB
			MaxBackups: 3,
			Compress:   true,
		}
		e.closers = append(e.closers, rotated)
		w = io.MultiWriter(os.Stderr, rotated)
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
	var allow level.Option
	switch strings.ToLower(logLevel) {
	case "debug":
		allow = level.AllowDebug()
	case "info":
		allow = level.AllowInfo()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		return nil, fmt.Errorf("unknown log level `%s`", logLevel)
	}
	e.logger = level.NewFilter(logger, allow)
	level.Debug(e.logger).Log("subsys", "conf", "config", configPath, "environment", cfg.Environment.Condition())
	return e, nil
}

// close writes the metrics and closes the log file.
func (e *env) close() error {
	var errs []error
	if metricsFile != "" {
		errs = append(errs, prometheus.WriteToTextfile(metricsFile, e.registry))
	}
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (e *env) gateway() mdo.Gateway {
	var gw mdo.Gateway = mdo.NewLinearGateway()
	if fields := strings.Fields(avlCommand); len(fields) > 0 {
		gw = &mdo.ExecGateway{Command: fields[0], Args: fields[1:]}
		level.Info(e.logger).Log("subsys", "gateway", "command", avlCommand)
	}
	if cacheSize > 0 {
		gw = mdo.NewCachedGateway(gw, cacheSize, time.Hour, e.metrics)
	}
	return gw
}

func (e *env) evaluator() (*mdo.Evaluator, error) {
	return mdo.NewEvaluator(e.cfg, e.gateway(), e.logger, e.metrics)
}

func (e *env) airfoils() mdo.AirfoilCatalog {
	catalog := mdo.BuiltinAirfoils()
	if airfoilDir == "" {
		return catalog
	}
	loaded, err := mdo.LoadAirfoilCatalog(airfoilDir)
	if err != nil {
		level.Warn(e.logger).Log("subsys", "airfoils", "dir", airfoilDir, "err", err)
	}
	for name, af := range loaded {
		catalog[name] = af
	}
	level.Debug(e.logger).Log("subsys", "airfoils", "names", strings.Join(catalog.Names(), ","))
	return catalog
}

func printScoreTable(w io.Writer, emptyMass, payload, span float64, sc mdo.ScoreConstants) error {
	table, err := mdo.NewScoreTable(emptyMass, payload, span, sc)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%12s %10s %10s\n", "payload(kg)", "PVOO", "total")
	for _, row := range table {
		fmt.Fprintf(w, "%12.3f %10.3f %10.3f\n", row.Payload, row.PVOO, row.Total)
	}
	return nil
}
