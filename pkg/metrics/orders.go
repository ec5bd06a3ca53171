package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// OrderMetrics covers placement, lifecycle transitions and stock movements.
type OrderMetrics struct {
	placementDuration *prometheus.HistogramVec
	placements        *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	stockAdjustments  *prometheus.CounterVec
	lowStock          prometheus.Counter
}

// NewOrderMetrics registers the order metrics on reg. A nil registerer yields
// a recorder whose methods do nothing.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placementDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Duration of order placement transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_placements_total",
		Help: "Order placement attempts by outcome and error code.",
	}, []string{"outcome", "code"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Applied order status changes.",
	}, []string{"from", "to"})
	stockAdjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Successful stock ledger adjustments by reason.",
	}, []string{"reason"})
	lowStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_low_stock_total",
		Help: "Adjustments that left a product at or below its threshold.",
	})
	reg.MustRegister(placementDuration, placements, transitions, stockAdjustments, lowStock)
	return &OrderMetrics{
		placementDuration: placementDuration,
		placements:        placements,
		transitions:       transitions,
		stockAdjustments:  stockAdjustments,
		lowStock:          lowStock,
	}
}

// ObservePlacement records one placement attempt. code is empty on success.
func (m *OrderMetrics) ObservePlacement(outcome, code string, duration time.Duration) {
	if m == nil || m.placements == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.placementDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if code == "" {
		code = "none"
	}
	m.placements.WithLabelValues(outcome, code).Inc()
}

func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *OrderMetrics) IncStockAdjustment(reason string) {
	if m == nil || m.stockAdjustments == nil {
		return
	}
	m.stockAdjustments.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *OrderMetrics) IncLowStock() {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
