package mdo

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the counters of an Evaluator. A nil *Metrics records nothing.
type Metrics struct {
	evaluations   *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	payload       prometheus.Histogram
}

// NewMetrics registers the evaluation metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mdo_evaluations_total",
			Help: "Evaluations by result",
		}, []string{"result"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mdo_stage_failures_total",
			Help: "Failed evaluation stages by stage and cause",
		}, []string{"stage", "cause"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mdo_stage_duration_seconds",
			Help:    "Evaluation stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		}, []string{"stage"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mdo_gateway_cache_lookups_total",
			Help: "Gateway cache lookups by result",
		}, []string{"result"}),
		payload: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mdo_payload_kg",
			Help:    "Payload of the feasible evaluations",
			Buckets: prometheus.LinearBuckets(0, 1, 16),
		}),
	}
}

func failureCause(err error) string {
	switch {
	case errors.Is(err, ErrMissingInput):
		return "missing_input"
	case errors.Is(err, ErrStalled):
		return "stalled"
	case errors.Is(err, ErrInfeasibleBracket):
		return "infeasible_bracket"
	case errors.Is(err, ErrNoConvergence):
		return "no_convergence"
	case errors.Is(err, ErrNegativePayload):
		return "negative_payload"
	}
	return "analysis"
}

func (m *Metrics) stage(stage Stage, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage.String()).Observe(d.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage.String(), failureCause(err)).Inc()
	}
}

func (m *Metrics) evaluation(result string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(result).Inc()
}

func (m *Metrics) feasible(payload float64) {
	if m == nil {
		return
	}
	m.payload.Observe(payload)
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
