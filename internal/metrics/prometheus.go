package metrics

import "github.com/prometheus/client_golang/prometheus"

type Prometheus struct {
	Requests   *prometheus.CounterVec
	Training   *prometheus.HistogramVec
	Candidates *prometheus.CounterVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "freeml",
				Name:      "requests",
			}, []string{"route", "code"}),
		Training: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "freeml",
				Name:      "training_seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			}, []string{"task"}),
		Candidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "freeml",
				Name:      "candidates",
			}, []string{"model", "outcome"}),
	}
}
