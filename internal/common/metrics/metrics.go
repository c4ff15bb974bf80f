// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_recommendations_served_total",
			Help: "Ranked recommendation lists served, by strategy",
		},
		[]string{"strategy"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cache_lookups_total",
			Help: "Cache lookups by surface and result",
		},
		[]string{"surface", "result"},
	)

	CalibrationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_calibration_outcomes_total",
			Help: "Calibration outcomes by result (recorded, duplicate, skipped, failed)",
		},
		[]string{"result"},
	)

	DegradedReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_degraded_reads_total",
			Help: "Read paths that fell back to their documented default",
		},
		[]string{"component"},
	)
)
