package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seedload"

// RunMetrics collects the gauges of a single load run. Batch jobs cannot be
// scraped, so the registry is written out as a node-exporter textfile.
type RunMetrics struct {
	registry    *prometheus.Registry
	entities    *prometheus.GaugeVec
	operations  *prometheus.GaugeVec
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
	failed      prometheus.Gauge
}

func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities_built",
			Help:      "Entities built from the input file, by kind.",
		}, []string{"kind"}),
		operations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconciled_rows",
			Help:      "Rows reconciled against the store, by entity and outcome.",
		}, []string{"entity", "outcome"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed run.",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_failed",
			Help:      "1 if the last run rolled back or aborted.",
		}),
	}
	m.registry.MustRegister(m.entities, m.operations, m.duration, m.lastSuccess, m.failed)
	return m
}

func (m *RunMetrics) SetEntities(kind string, n int) {
	m.entities.WithLabelValues(kind).Set(float64(n))
}

func (m *RunMetrics) SetOperation(entity, outcome string, n int64) {
	m.operations.WithLabelValues(entity, outcome).Set(float64(n))
}

func (m *RunMetrics) Finish(elapsed time.Duration, runErr error, now time.Time) {
	m.duration.Set(elapsed.Seconds())
	if runErr != nil {
		m.failed.Set(1)
		return
	}
	m.failed.Set(0)
	m.lastSuccess.Set(float64(now.Unix()))
}

func (m *RunMetrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
