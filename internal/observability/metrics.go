package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics records per-unit ingestion outcomes on a private registry so a batch run
// can push them to a Pushgateway when it finishes.
type Metrics struct {
	registry *prometheus.Registry
	units    *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nfl_ingest_units_total",
			Help: "Ingestion units finished, by table and status.",
		}, []string{"table", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nfl_ingest_rows_total",
			Help: "Rows written by successful ingestion units.",
		}, []string{"table"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nfl_ingest_unit_duration_seconds",
			Help:    "Wall time of one ingestion unit.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"table"}),
	}
	m.registry.MustRegister(m.units, m.rows, m.duration)
	return m
}

func (m *Metrics) ObserveUnit(table, status string, rows int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.units.WithLabelValues(table, status).Inc()
	if rows > 0 {
		m.rows.WithLabelValues(table).Add(float64(rows))
	}
	m.duration.WithLabelValues(table).Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push replaces the job's metric group on the gateway. An empty url is a no-op.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil || strings.TrimSpace(url) == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
