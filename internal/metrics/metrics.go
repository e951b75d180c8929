// Package metrics exposes Prometheus instrumentation for job runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// JobMetrics records per-job run outcomes and durations.
type JobMetrics struct {
	runs     *prometheus.CounterVec
	records  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the job metric families on the given registry.
func New(reg *prometheus.Registry) *JobMetrics {
	factory := promauto.With(reg)
	return &JobMetrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recon",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Job invocations by job name and final status.",
		}, []string{"job", "status"}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recon",
			Subsystem: "jobs",
			Name:      "records_total",
			Help:      "Records handled by job name and outcome.",
		}, []string{"job", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recon",
			Subsystem: "jobs",
			Name:      "run_duration_seconds",
			Help:      "Job run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
}

// ObserveRun records one completed job invocation.
func (m *JobMetrics) ObserveRun(job, status string, succeeded, failed, skipped int, d time.Duration) {
	m.runs.WithLabelValues(job, status).Inc()
	m.records.WithLabelValues(job, "succeeded").Add(float64(succeeded))
	m.records.WithLabelValues(job, "failed").Add(float64(failed))
	m.records.WithLabelValues(job, "skipped").Add(float64(skipped))
	m.duration.WithLabelValues(job).Observe(d.Seconds())
}

// ObserveFatal records an invocation that aborted before processing items.
func (m *JobMetrics) ObserveFatal(job string, d time.Duration) {
	m.runs.WithLabelValues(job, "failed").Inc()
	m.duration.WithLabelValues(job).Observe(d.Seconds())
}

// Handler returns the scrape endpoint for the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
