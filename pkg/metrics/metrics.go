package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for the order workflow.
type OrderMetrics struct {
	transitions          *prometheus.CounterVec
	fetches              *prometheus.CounterVec
	notificationFailures prometheus.Counter
	feedEvents           prometheus.Counter
}

// NewOrderMetrics registers the order workflow metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printdesk_stage_transitions_total",
		Help: "Order item stage transitions applied.",
	}, []string{"from", "to"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printdesk_order_fetches_total",
		Help: "Order list fetches by cache outcome.",
	}, []string{"outcome"})
	notificationFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printdesk_notification_failures_total",
		Help: "Per-recipient notification writes that failed.",
	})
	feedEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printdesk_feed_events_total",
		Help: "Change-feed events consumed.",
	})
	reg.MustRegister(transitions, fetches, notificationFailures, feedEvents)
	return &OrderMetrics{
		transitions:          transitions,
		fetches:              fetches,
		notificationFailures: notificationFailures,
		feedEvents:           feedEvents,
	}
}

// ObserveTransition counts one stage transition.
func (m *OrderMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveFetch counts one list fetch with its cache outcome (hit/miss/skipped).
func (m *OrderMetrics) ObserveFetch(outcome string) {
	if m == nil || m.fetches == nil {
		return
	}
	m.fetches.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncNotificationFailure counts a failed per-recipient notification write.
func (m *OrderMetrics) IncNotificationFailure() {
	if m == nil || m.notificationFailures == nil {
		return
	}
	m.notificationFailures.Inc()
}

// IncFeedEvent counts a consumed change-feed event.
func (m *OrderMetrics) IncFeedEvent() {
	if m == nil || m.feedEvents == nil {
		return
	}
	m.feedEvents.Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
