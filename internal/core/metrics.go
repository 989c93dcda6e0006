package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woudc_validation_total",
			Help: "Validated files by outcome",
		},
		[]string{"outcome"},
	)

	validationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "woudc_validation_duration_seconds",
			Help:    "Time spent validating one candidate, including the wait for a slot",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)

	validationEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woudc_validation_entries_total",
			Help: "Report entries produced by kind",
		},
		[]string{"kind"},
	)

	validationRejectedBusy = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "woudc_validation_busy_total",
			Help: "Validations refused because every slot was taken",
		},
	)
)

func observeReport(r *Report) {
	validationTotal.WithLabelValues(string(r.Outcome())).Inc()
	for _, v := range r.violations {
		validationEntries.WithLabelValues(string(v.Kind)).Inc()
	}
	for _, v := range r.notices {
		validationEntries.WithLabelValues(string(v.Kind)).Inc()
	}
}
