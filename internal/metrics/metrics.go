// Package metrics records per-run counters in Prometheus format so a
// node_exporter textfile collector can pick them up.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/verte-zerg/squeezestats/internal/analysis"
)

const namespace = "squeezestats"

// Recorder holds the counters of one run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	// Documents counts log documents by status: ok, not_found, malformed.
	Documents *prometheus.CounterVec
	// Discarded counts records dropped by the filter, by reason.
	Discarded *prometheus.CounterVec
	// ParallelDuplicates counts plays excluded as parallel duplicates.
	ParallelDuplicates prometheus.Counter
	Plays              prometheus.Counter
	Sessions           prometheus.Counter
	// SessionDuration observes the summed song duration of each session.
	SessionDuration prometheus.Histogram
	LastRun         prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		Documents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Play-log documents processed, by status",
			},
			[]string{"status"},
		),
		Discarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_discarded_total",
				Help:      "Records discarded before deduplication, by reason",
			},
			[]string{"reason"},
		),
		ParallelDuplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parallel_duplicates_total",
			Help:      "Plays excluded as duplicates of a parallel play",
		}),
		Plays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plays_total",
			Help:      "Plays counted in the statistics",
		}),
		Sessions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Listening sessions detected",
		}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Summed song duration per listening session",
			// 5 minutes to 8 hours
			Buckets: []float64{300, 900, 1800, 3600, 7200, 14400, 28800},
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed analysis",
		}),
	}
}

// Registry exposes the registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe adds the counts of one completed run.
func (r *Recorder) Observe(out *analysis.Outcome) {
	for status, n := range out.Documents {
		r.Documents.WithLabelValues(status).Add(float64(n))
	}
	for reason, n := range out.Discards {
		r.Discarded.WithLabelValues(string(reason)).Add(float64(n))
	}
	r.ParallelDuplicates.Add(float64(out.Result.Parallel.Excluded))
	r.Plays.Add(float64(out.Result.TotalPlays))
	r.Sessions.Add(float64(len(out.Sessions)))
	for _, s := range out.Sessions {
		r.SessionDuration.Observe(float64(s.DurationSeconds))
	}
	r.LastRun.SetToCurrentTime()
}

// WriteFile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
