package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Evaluation metrics
	EvaluationTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamguard_evaluation_ticks_total",
			Help: "Total number of evaluation passes",
		},
	)

	RulesEvaluatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamguard_rules_evaluated_total",
			Help: "Total number of rule evaluations",
		},
	)

	RulesTriggeredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamguard_rules_triggered_total",
			Help: "Total number of rule evaluations that tripped",
		},
	)

	RulesSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamguard_rules_suppressed_total",
			Help: "Total number of triggers suppressed by cooldown",
		},
	)

	EventsEmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamguard_events_emitted_total",
			Help: "Total number of alert events created",
		},
	)

	// Delivery metrics
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamguard_deliveries_total",
			Help: "Total number of webhook deliveries",
		},
		[]string{"status"}, // status: success, failed
	)

	DeliveryRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamguard_delivery_retries_total",
			Help: "Total number of webhook delivery retries",
		},
	)

	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamguard_delivery_duration_seconds",
			Help:    "Time taken to deliver a webhook, retries included",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// Panic recovery
	ListenerPanicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamguard_listener_panics_recovered_total",
			Help: "Total number of panics recovered in event listeners",
		},
	)

	// Persistence metrics
	StateSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamguard_state_saves_total",
			Help: "Total number of engine state saves",
		},
		[]string{"status"}, // status: success, failed
	)
)

// ObserveDelivery records the outcome of one delivery.
func ObserveDelivery(success bool, retries int, elapsed time.Duration) {
	status := "failed"
	if success {
		status = "success"
	}
	DeliveriesTotal.WithLabelValues(status).Inc()
	if retries > 0 {
		DeliveryRetriesTotal.Add(float64(retries))
	}
	DeliveryDuration.Observe(elapsed.Seconds())
}
