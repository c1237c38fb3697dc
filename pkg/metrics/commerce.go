package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// APIMetrics records outbound calls to the commerce API.
type APIMetrics struct {
	duration *prometheus.HistogramVec
}

// NewAPIMetrics registers the API request histogram on the provided registerer.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	if reg == nil {
		return &APIMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of commerce API requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration)
	return &APIMetrics{duration: duration}
}

// Observe records one request. outcome is "ok" or an error code.
func (m *APIMetrics) Observe(operation, outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Observe(duration.Seconds())
}

// StoreMetrics counts local store mutations and optimistic rollbacks.
type StoreMetrics struct {
	mutations *prometheus.CounterVec
	rollbacks *prometheus.CounterVec
}

// NewStoreMetrics registers store collectors on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_mutations_total",
		Help:      "Store mutations by store, operation and outcome.",
	}, []string{"store", "op", "outcome"})
	rollbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimistic_rollbacks_total",
		Help:      "Optimistic local changes undone after the server rejected them.",
	}, []string{"store"})
	reg.MustRegister(mutations, rollbacks)
	return &StoreMetrics{mutations: mutations, rollbacks: rollbacks}
}

// IncMutation counts a store operation.
func (m *StoreMetrics) IncMutation(store, op, outcome string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(store), normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncRollback counts an undone optimistic change.
func (m *StoreMetrics) IncRollback(store string) {
	if m == nil || m.rollbacks == nil {
		return
	}
	m.rollbacks.WithLabelValues(normalizeLabel(store)).Inc()
}

// CheckoutMetrics tracks checkout state machine activity.
type CheckoutMetrics struct {
	transitions *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
}

// NewCheckoutMetrics registers checkout collectors on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_transitions_total",
		Help:      "Checkout session transitions by target status.",
	}, []string{"to"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_outcomes_total",
		Help:      "Terminal checkout outcomes.",
	}, []string{"outcome"})
	reg.MustRegister(transitions, outcomes)
	return &CheckoutMetrics{transitions: transitions, outcomes: outcomes}
}

// IncTransition counts a move into the given status.
func (m *CheckoutMetrics) IncTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

// IncOutcome counts a terminal outcome such as completed or failed.
func (m *CheckoutMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}
