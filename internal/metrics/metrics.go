package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	selectionRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campark",
			Name:      "selection_rejected_total",
			Help:      "Count of rejected selection actions by reason.",
		},
		[]string{"reason"},
	)

	draftsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campark",
			Name:      "booking_drafts_total",
			Help:      "Count of booking drafts handed off, by kind.",
		},
		[]string{"kind"},
	)

	autoAssign = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campark",
			Name:      "auto_assign_total",
			Help:      "Count of auto-assignment attempts by outcome.",
		},
		[]string{"outcome"},
	)

	statusRecomputes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campark",
			Name:      "status_recompute_total",
			Help:      "Count of periodic lot status recomputations.",
		},
	)

	lotsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "campark",
			Name:      "lots_open",
			Help:      "Number of lots currently open.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campark",
			Name:      "http_requests_total",
			Help:      "Count of HTTP API requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(selectionRejected, draftsCreated, autoAssign, statusRecomputes, lotsOpen, httpRequests)
	})
}

func IncSelectionRejected(reason string) {
	selectionRejected.WithLabelValues(reason).Inc()
}

func IncDraftCreated(kind string) {
	draftsCreated.WithLabelValues(kind).Inc()
}

func IncAutoAssign(outcome string) {
	autoAssign.WithLabelValues(outcome).Inc()
}

func IncStatusRecompute() {
	statusRecomputes.Inc()
}

func SetLotsOpen(n int) {
	lotsOpen.Set(float64(n))
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
