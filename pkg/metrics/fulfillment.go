package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reconciliation outcome labels.
const (
	OutcomeActivated = "activated"
	OutcomeReplayed  = "replayed"
	OutcomeRecovered = "recovered"
	OutcomeExpired   = "expired"
)

// Reconciliation source labels.
const (
	SourceWebhook  = "webhook"
	SourceVerifier = "verifier"
)

// FulfillmentMetrics records ticket fulfillment and check-in outcomes.
type FulfillmentMetrics struct {
	reconciliations *prometheus.CounterVec
	registrations   *prometheus.CounterVec
	checkIns        *prometheus.CounterVec
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_reconciliations_total",
		Help: "Ticket reconciliation outcomes by source and result.",
	}, []string{"source", "outcome"})
	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_registrations_total",
		Help: "Registration attempts by path.",
	}, []string{"path"})
	checkIns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_check_ins_total",
		Help: "Check-in attempts by result.",
	}, []string{"result"})
	reg.MustRegister(reconciliations, registrations, checkIns)
	return &FulfillmentMetrics{
		reconciliations: reconciliations,
		registrations:   registrations,
		checkIns:        checkIns,
	}
}

// IncReconciliation increments the reconciliation counter for the given source/outcome.
func (m *FulfillmentMetrics) IncReconciliation(source, outcome string) {
	if m == nil || m.reconciliations == nil {
		return
	}
	m.reconciliations.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// IncRegistration increments the registration counter for the given path (free/paid).
func (m *FulfillmentMetrics) IncRegistration(path string) {
	if m == nil || m.registrations == nil {
		return
	}
	m.registrations.WithLabelValues(normalizeLabel(path)).Inc()
}

// IncCheckIn increments the check-in counter for the given result.
func (m *FulfillmentMetrics) IncCheckIn(result string) {
	if m == nil || m.checkIns == nil {
		return
	}
	m.checkIns.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
