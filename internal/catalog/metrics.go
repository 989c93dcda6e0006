package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogReloadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woudc_catalog_reload_total",
			Help: "Catalog reload attempts by result",
		},
		[]string{"result"}, // reloaded, unchanged or error
	)

	catalogLeaves = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "woudc_catalog_leaves",
			Help: "Number of table contracts in the published catalog",
		},
	)
)
