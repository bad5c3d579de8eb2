// Package metrics defines the Prometheus collectors for the lifecycle
// engine and the background schedulers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts lifecycle transitions by action and result.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftboard_transitions_total",
			Help: "Total number of card lifecycle transitions",
		},
		[]string{"action", "result"},
	)

	// SweepCardsTotal counts cards the entropy sweep touched, by outcome.
	SweepCardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftboard_entropy_sweep_cards_total",
			Help: "Total number of cards examined by the entropy sweep, by outcome",
		},
		[]string{"outcome"},
	)

	// SweepDuration observes entropy sweep wall time.
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "driftboard_entropy_sweep_duration_seconds",
			Help:    "Entropy sweep duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// BundlesCreatedTotal counts notification bundles opened.
	BundlesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "driftboard_notification_bundles_created_total",
			Help: "Total number of notification bundles created",
		},
	)

	// BundleDeliveriesTotal counts delivery attempts by result.
	BundleDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftboard_notification_deliveries_total",
			Help: "Total number of bundle delivery attempts, by result",
		},
		[]string{"result"},
	)
)
