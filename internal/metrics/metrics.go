// Package metrics exposes the analyzer counters to prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gone_analyzer"

var (
	Diagnoses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "diagnoses_total",
		Help:      "Classifications per direction and resulting state",
	}, []string{"direction", "state"})

	RemediationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remediation_attempts_total",
		Help:      "Remediation strategies tried and whether they fixed the network",
	}, []string{"strategy", "result"})

	CommandFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "command_failures_total",
		Help:      "Device changes the executor failed to apply",
	}, []string{"kind"})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_duration_seconds",
		Help:      "Time spent gathering facts and rebuilding the graphs",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

func ObserveDiagnosis(direction string, state string) {
	Diagnoses.WithLabelValues(direction, state).Inc()
}

func ObserveAttempt(strategy string, fixed bool) {
	result := "failed"
	if fixed {
		result = "fixed"
	}
	RemediationAttempts.WithLabelValues(strategy, result).Inc()
}

func ObserveCommandFailure(kind string) {
	CommandFailures.WithLabelValues(kind).Inc()
}

func ObserveRefresh(start time.Time) {
	RefreshDuration.Observe(time.Since(start).Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
