package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var AvailabilityPhaseTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "blueridge",
		Subsystem: "availability",
		Name:      "phase_total",
		Help:      "Availability ladder phase outcomes",
	},
	[]string{"phase"},
)

var BookingTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "blueridge",
		Subsystem: "booking",
		Name:      "requests_total",
		Help:      "Booking attempts by outcome",
	},
	[]string{"outcome"}, // outcome: booked, conflict, invalid, error
)

var CompletionLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "blueridge",
		Subsystem: "chat",
		Name:      "completion_latency_seconds",
		Help:      "Latency of language model completions",
		Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 12, 20, 30},
	},
	[]string{"provider", "model", "status"},
)

var ChatFallbackTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "blueridge",
		Subsystem: "chat",
		Name:      "fallback_total",
		Help:      "Deterministic replies used instead of a model answer",
	},
	[]string{"reason"},
)

func init() {
	prometheus.MustRegister(AvailabilityPhaseTotal, BookingTotal, CompletionLatency, ChatFallbackTotal)
}
