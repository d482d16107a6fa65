package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "medstock"

// InventoryMetrics counts stock movements and audit trail health. A nil receiver or
// one built without a registerer is a no-op.
type InventoryMetrics struct {
	adjustments      *prometheus.CounterVec
	units            *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	auditFailures    *prometheus.CounterVec
	adjustConflicts  prometheus.Counter
	rejectedRemovals prometheus.Counter
}

func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	m := &InventoryMetrics{
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_adjustments_total",
			Help:      "Applied stock adjustments by direction.",
		}, []string{"direction"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_total",
			Help:      "Units moved by stock adjustments, by direction.",
		}, []string{"direction"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_status_transitions_total",
			Help:      "Stock status changes caused by inventory mutations.",
		}, []string{"from", "to"}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Committed inventory mutations whose audit entry could not be written.",
		}, []string{"activity"}),
		adjustConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_adjust_conflicts_total",
			Help:      "Stock adjustments retried after a concurrent write won the race.",
		}),
		rejectedRemovals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_removals_rejected_total",
			Help:      "Stock removals rejected because stock would go negative.",
		}),
	}
	reg.MustRegister(m.adjustments, m.units, m.transitions, m.auditFailures, m.adjustConflicts, m.rejectedRemovals)
	return m
}

func (m *InventoryMetrics) ObserveAdjustment(delta int) {
	if m == nil || m.adjustments == nil || delta == 0 {
		return
	}
	direction, units := "in", delta
	if delta < 0 {
		direction, units = "out", -delta
	}
	m.adjustments.WithLabelValues(direction).Inc()
	m.units.WithLabelValues(direction).Add(float64(units))
}

func (m *InventoryMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *InventoryMetrics) IncAuditFailure(activity string) {
	if m == nil || m.auditFailures == nil {
		return
	}
	m.auditFailures.WithLabelValues(normalizeLabel(activity)).Inc()
}

func (m *InventoryMetrics) IncAdjustConflict() {
	if m == nil || m.adjustConflicts == nil {
		return
	}
	m.adjustConflicts.Inc()
}

func (m *InventoryMetrics) IncRejectedRemoval() {
	if m == nil || m.rejectedRemovals == nil {
		return
	}
	m.rejectedRemovals.Inc()
}

// normalizeLabel keeps blank status or activity values from producing an empty label.
func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
