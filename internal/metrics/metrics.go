package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(
		Observer.prometheus.Requests,
		Observer.prometheus.Training,
		Observer.prometheus.Candidates,
	)
}

type Metrics struct {
	prometheus Prometheus
}

// IncrementRequests counts a served request by route and status code.
func (m *Metrics) IncrementRequests(route string, code int) {
	m.prometheus.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// ObserveTraining records the duration of a training run.
func (m *Metrics) ObserveTraining(task string, d time.Duration) {
	m.prometheus.Training.WithLabelValues(task).Observe(d.Seconds())
}

// IncrementCandidates counts an evaluated model family by outcome.
func (m *Metrics) IncrementCandidates(model, outcome string) {
	m.prometheus.Candidates.WithLabelValues(model, outcome).Inc()
}
