package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	Observer.IncrementRequests("upload", 200)
	Observer.IncrementRequests("upload", 200)
	Observer.IncrementCandidates("rf", "ok")
	Observer.ObserveTraining("classification", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(Observer.prometheus.Requests.WithLabelValues("upload", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(Observer.prometheus.Candidates.WithLabelValues("rf", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(Observer.prometheus.Training))
}
