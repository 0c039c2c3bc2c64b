package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dlrProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reconciler",
			Name:      "delivery_callbacks_total",
			Help:      "Delivery-status callbacks processed.",
		},
		[]string{"result"}, // "updated", "unmatched", "error"
	)

	inboundProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reconciler",
			Name:      "inbound_messages_total",
			Help:      "Inbound replies processed.",
		},
		[]string{"result"}, // "stored", "opted_out", "error"
	)

	optOutsRegisteredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reconciler",
			Name:      "optouts_registered_total",
			Help:      "Opt-out entries upserted from inbound replies.",
		},
	)

	natsEventsReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reconciler",
			Name:      "nats_events_received_total",
			Help:      "Raw provider events received from NATS.",
		},
		[]string{"subject"},
	)
)
