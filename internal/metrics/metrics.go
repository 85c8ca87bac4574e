// Package metrics records per-stage pipeline counters and writes them in the
// Prometheus textfile format under the artifact metrics directory.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage collects the metrics of one stage run. Each stage owns a private
// registry, so a binary only exports what it measured.
type Stage struct {
	name     string
	start    time.Time
	registry *prometheus.Registry

	rows     *prometheus.CounterVec
	values   *prometheus.GaugeVec
	duration prometheus.Gauge
	success  prometheus.Gauge
}

// NewStage starts timing the named stage.
func NewStage(name string) *Stage {
	labels := prometheus.Labels{"stage": name}
	s := &Stage{
		name:     name,
		start:    time.Now(),
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "cnoc_stage_rows_total",
			Help:        "Rows handled by a pipeline stage, by kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "cnoc_stage_value",
			Help:        "Named scalar results of a pipeline stage",
			ConstLabels: labels,
		}, []string{"name"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cnoc_stage_duration_seconds",
			Help:        "Wall time of the last stage run",
			ConstLabels: labels,
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cnoc_stage_last_success_timestamp_seconds",
			Help:        "Unix time the stage last completed",
			ConstLabels: labels,
		}),
	}
	s.registry.MustRegister(s.rows, s.values, s.duration, s.success)
	return s
}

// Add counts n rows of the given kind (e.g. "in", "out", "dropped").
func (s *Stage) Add(kind string, n int) {
	s.rows.WithLabelValues(kind).Add(float64(n))
}

// Set records a named scalar such as an accuracy.
func (s *Stage) Set(name string, v float64) {
	s.values.WithLabelValues(name).Set(v)
}

// WriteTextfile marks the run complete and writes dir/<stage>.prom.
func (s *Stage) WriteTextfile(dir string) error {
	now := time.Now()
	s.duration.Set(now.Sub(s.start).Seconds())
	s.success.Set(float64(now.Unix()))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	path := filepath.Join(dir, s.name+".prom")
	if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
