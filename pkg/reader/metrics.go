package reader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// samplesDelivered counts samples handed to the application.
	// Labels: kind (live, historic, coherent)
	samplesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dcps",
		Subsystem: "reader",
		Name:      "samples_delivered_total",
		Help:      "Total samples delivered to the application by kind",
	}, []string{"kind"})

	// samplesDropped counts samples that were not delivered.
	// Labels: reason (not_owner, rejected, removed)
	samplesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dcps",
		Subsystem: "reader",
		Name:      "samples_dropped_total",
		Help:      "Total samples dropped by reason",
	}, []string{"reason"})

	// matchedWriters tracks the number of associated writers.
	matchedWriters = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dcps",
		Subsystem: "reader",
		Name:      "matched_writers",
		Help:      "Number of writers currently associated with readers",
	})
)
