package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_documents_total",
			Help: "Rendered PDF reports",
		},
		[]string{"mode"},
	)

	imageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_image_failures_total",
			Help: "Report images replaced by a placeholder",
		},
		[]string{"section"},
	)

	renderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_render_duration_seconds",
			Help:    "Time spent rendering a PDF report",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
)
