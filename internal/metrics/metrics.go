package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics counts what the cart workflow does. A nil *CartMetrics is valid and records nothing.
type CartMetrics struct {
	transitions     *prometheus.CounterVec
	itemTransitions *prometheus.CounterVec
	messages        *prometheus.CounterVec
	failures        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_transitions_total",
		Help: "Committed cart lifecycle transitions.",
	}, []string{"transition", "to"})
	itemTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_item_transitions_total",
		Help: "Committed cart item negotiation changes.",
	}, []string{"action", "to"})
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_outbound_messages_total",
		Help: "Outbound messages persisted.",
	}, []string{"target_type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operation_failures_total",
		Help: "Failed cart operations by error kind.",
	}, []string{"operation", "kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_operation_duration_seconds",
		Help:    "Duration of cart operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(transitions, itemTransitions, messages, failures, duration)
	return &CartMetrics{
		transitions:     transitions,
		itemTransitions: itemTransitions,
		messages:        messages,
		failures:        failures,
		duration:        duration,
	}
}

func (m *CartMetrics) IncTransition(transition, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition), normalizeLabel(to)).Inc()
}

func (m *CartMetrics) IncItemTransition(action, to string) {
	if m == nil || m.itemTransitions == nil {
		return
	}
	m.itemTransitions.WithLabelValues(normalizeLabel(action), normalizeLabel(to)).Inc()
}

func (m *CartMetrics) AddMessages(targetType string, n int) {
	if m == nil || m.messages == nil || n <= 0 {
		return
	}
	m.messages.WithLabelValues(normalizeLabel(targetType)).Add(float64(n))
}

func (m *CartMetrics) IncFailure(operation, kind string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(operation), normalizeLabel(kind)).Inc()
}

func (m *CartMetrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
