package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchBatchesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "batches_total",
			Help:      "Total dispatch batches processed.",
		},
		[]string{"result"}, // "completed", "no_valid_recipients", "all_opted_out"
	)

	dispatchMessagesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "messages_total",
			Help:      "Per-recipient dispatch outcomes.",
		},
		[]string{"outcome"}, // "sent", "failed", "skipped", "invalid"
	)

	dispatchSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dispatch",
			Name:      "provider_send_duration_seconds",
			Help:      "Duration of provider send calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name"},
	)
)
