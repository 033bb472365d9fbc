// internal/common/metrics/metrics.go
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rsd-dataset/internal/report"
)

var (
	RecordsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rsd_records_generated_total",
			Help: "Total number of synthetic records generated",
		},
	)

	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsd_decisions_total",
			Help: "Decisions by stage (ai, final) and outcome",
		},
		[]string{"stage", "decision"},
	)

	Overrides = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rsd_overrides_total",
			Help: "Automated decisions reversed by human review",
		},
	)

	Appeals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsd_appeals_total",
			Help: "Appeals filed by outcome",
		},
		[]string{"outcome"},
	)

	BiasFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsd_bias_flags_total",
			Help: "Bias audit flags by severity",
		},
		[]string{"flag"},
	)

	ApprovalRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rsd_approval_rate",
			Help: "Final approval rate of the most recent run by country of origin",
		},
		[]string{"country"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rsd_generation_duration_seconds",
			Help:    "Wall time of one pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// ObserveRun folds one run's summary into the collectors.
func ObserveRun(s report.Summary, duration time.Duration) {
	RecordsGenerated.Add(float64(s.Rows))

	for _, c := range s.AIDecisions {
		Decisions.WithLabelValues("ai", c.Value).Add(float64(c.Count))
	}
	for _, c := range s.FinalDecisions {
		Decisions.WithLabelValues("final", c.Value).Add(float64(c.Count))
	}
	Overrides.Add(float64(s.HumanOverrides))

	Appeals.WithLabelValues("overturned").Add(float64(s.AppealsOverturned))
	Appeals.WithLabelValues("upheld").Add(float64(s.AppealsFiled - s.AppealsOverturned))

	for _, c := range s.BiasFlags {
		BiasFlags.WithLabelValues(c.Value).Add(float64(c.Count))
	}

	ApprovalRate.Reset()
	for _, cr := range s.ApprovalByCountry {
		ApprovalRate.WithLabelValues(string(cr.Country)).Set(cr.Rate)
	}

	GenerationDuration.Observe(duration.Seconds())
}

// WriteTextfile dumps the default registry in text exposition format for
// the node-exporter textfile collector.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(prometheus.DefaultGatherer, path)
}

func WriteTextfileFrom(g prometheus.Gatherer, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
