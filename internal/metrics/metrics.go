// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"role", "outcome"},
	)

	TaskUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_uploads_total",
			Help: "Total number of task archive uploads",
		},
		[]string{"outcome"},
	)

	DownloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "task_downloads_total",
			Help: "Total number of task archive downloads",
		},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of submission attempts",
		},
		[]string{"outcome"},
	)

	SubmissionEntryCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "submission_zip_entries",
			Help:    "Distribution of entry counts in accepted submission archives",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
