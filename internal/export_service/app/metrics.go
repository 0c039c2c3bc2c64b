package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var exportsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "export",
		Name:      "requests_total",
		Help:      "CSV export requests by type and result.",
	},
	[]string{"type", "result"},
)
