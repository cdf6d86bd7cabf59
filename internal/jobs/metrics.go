package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsEnqueued tracks jobs accepted per queue and type
	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Total number of jobs enqueued",
		},
		[]string{"queue", "job_type"},
	)

	// JobsProcessed tracks terminal and retried attempts per queue
	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Total number of job attempts by outcome (completed, retried, failed)",
		},
		[]string{"queue", "outcome"},
	)

	// JobDuration tracks handler execution time
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Job handler execution time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"queue", "job_type"},
	)
)
