// Package metrics records the outcome of a sweeper run as prometheus
// collectors and optionally pushes them to a Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namePrefix = "tokenexpiry_"

// Metrics holds the collectors for one run.
type Metrics struct {
	candidates  prometheus.Gauge
	inserted    prometheus.Counter
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
	failures    *prometheus.CounterVec
}

// New registers the run collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		candidates: factory.NewGauge(prometheus.GaugeOpts{
			Name: namePrefix + "candidates",
			Help: "Number of active tokens eligible for expiration in the last run",
		}),
		inserted: factory.NewCounter(prometheus.CounterOpts{
			Name: namePrefix + "inserted_total",
			Help: "Total number of expired records inserted",
		}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: namePrefix + "run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: namePrefix + "last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: namePrefix + "failures_total",
			Help: "Total number of failed runs by failure kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) SetCandidates(n int) {
	m.candidates.Set(float64(n))
}

func (m *Metrics) AddInserted(n int) {
	m.inserted.Add(float64(n))
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	m.duration.Set(d.Seconds())
}

func (m *Metrics) MarkSuccess(at time.Time) {
	m.lastSuccess.Set(float64(at.Unix()))
}

func (m *Metrics) IncFailure(kind string) {
	m.failures.WithLabelValues(kind).Inc()
}

// Push sends everything gathered by g to the Pushgateway at url under job.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer) error {
	if err := push.New(url, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
