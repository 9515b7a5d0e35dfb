package writerinfo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// livelinessTransitions counts liveliness state changes.
	// Labels: state (ALIVE, DEAD)
	livelinessTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dcps",
		Subsystem: "writer",
		Name:      "liveliness_transitions_total",
		Help:      "Total writer liveliness transitions by target state",
	}, []string{"state"})

	// historicSamplesBuffered counts samples held back during a historic wait.
	historicSamplesBuffered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dcps",
		Subsystem: "writer",
		Name:      "historic_samples_buffered_total",
		Help:      "Total samples buffered while waiting for the end of historic data",
	})

	// historicHandOffs counts historic buffer hand-offs.
	// Labels: trigger (end, timeout)
	historicHandOffs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dcps",
		Subsystem: "writer",
		Name:      "historic_handoffs_total",
		Help:      "Total historic buffer hand-offs and grace period expirations",
	}, []string{"trigger"})

	// coherentResolutions counts resolved coherent sets.
	// Labels: result (COMPLETED, REJECTED)
	coherentResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dcps",
		Subsystem: "writer",
		Name:      "coherent_resolutions_total",
		Help:      "Total coherent sets resolved by result",
	}, []string{"result"})

	// coherentInconsistencies counts end-of-set messages whose publisher or
	// group flag disagreed with the locally tracked set.
	coherentInconsistencies = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dcps",
		Subsystem: "writer",
		Name:      "coherent_inconsistencies_total",
		Help:      "Total coherent control messages inconsistent with local state",
	})
)
