package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the process-wide Prometheus collectors.
type Metrics struct {
	computations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	reloads      *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		computations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mamdani_computations_total",
			Help: "The total number of computes, by system and result",
		}, []string{"system", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mamdani_compute_duration_seconds",
			Help:    "Time spent in one compute, from binding inputs to defuzzification",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"system"}),
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mamdani_reloads_total",
			Help: "The total number of definition reloads, by system and result",
		}, []string{"system", "result"}),
	}
}

func result(failed bool) string {
	if failed {
		return "failed"
	}
	return "ok"
}
