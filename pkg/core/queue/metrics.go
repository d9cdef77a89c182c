package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loanintel_jobs_processed_total",
		Help: "Document processing jobs by terminal outcome.",
	}, []string{"outcome"}) // done | failed | requeued

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "loanintel_job_duration_seconds",
		Help:    "End-to-end duration of one document processing job.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	workersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loanintel_workers_active",
		Help: "Worker goroutines currently running.",
	})

	ocrSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loanintel_ocr_skipped_total",
		Help: "Documents that skipped OCR via the filename heuristics.",
	})
)
