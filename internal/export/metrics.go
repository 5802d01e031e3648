package export

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgmerge_exports_total",
			Help: "Total number of exports",
		},
		[]string{"format", "status"}, // status: success, error type
	)

	exportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgmerge_export_duration_seconds",
			Help:    "Export duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"format"},
	)

	exportEntries = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgmerge_export_entries",
			Help:    "Number of queue entries per export",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"format"},
	)

	exportOutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgmerge_export_output_bytes",
			Help:    "Size of exported artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		},
		[]string{"format"},
	)
)

func observe(r Result) {
	status := "success"
	if !r.Success {
		status = r.ErrorType
	}
	exportsTotal.WithLabelValues(r.Format, status).Inc()
	exportDuration.WithLabelValues(r.Format).Observe(r.Duration.Seconds())
	if r.Success {
		exportEntries.WithLabelValues(r.Format).Observe(float64(r.Count))
		exportOutputBytes.WithLabelValues(r.Format).Observe(float64(r.Bytes))
	}
}
