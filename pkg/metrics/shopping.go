package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Consolidation sources.
const (
	SourceAdHoc    = "ad_hoc"
	SourceMenuPlan = "menu_plan"
	SourceItemAdd  = "item_add"
)

// Share grant transitions.
const (
	TransitionInvited  = "invited"
	TransitionAccepted = "accepted"
	TransitionRemoved  = "removed"
)

// ShoppingMetrics records consolidation and sharing activity.
type ShoppingMetrics struct {
	consolidations *prometheus.CounterVec
	items          prometheus.Histogram
	netted         *prometheus.CounterVec
	shares         *prometheus.CounterVec
}

// NewShoppingMetrics registers the shopping metrics on the provided registerer.
// A nil registerer yields a recorder whose methods are no-ops.
func NewShoppingMetrics(reg prometheus.Registerer) *ShoppingMetrics {
	if reg == nil {
		return &ShoppingMetrics{}
	}
	consolidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "larder_consolidations_total",
		Help: "Consolidation runs by source.",
	}, []string{"source"})
	items := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "larder_consolidated_items",
		Help:    "Rows emitted per consolidation run.",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 250, 500},
	})
	netted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "larder_pantry_netted_total",
		Help: "Rows affected by pantry netting.",
	}, []string{"outcome"})
	shares := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "larder_share_transitions_total",
		Help: "Share grant state transitions.",
	}, []string{"transition"})
	reg.MustRegister(consolidations, items, netted, shares)
	return &ShoppingMetrics{
		consolidations: consolidations,
		items:          items,
		netted:         netted,
		shares:         shares,
	}
}

// ObserveConsolidation records one run: the rows it produced and how many
// rows the pantry covered fully or reduced.
func (m *ShoppingMetrics) ObserveConsolidation(source string, items, covered, reduced int) {
	if m == nil || m.consolidations == nil {
		return
	}
	m.consolidations.WithLabelValues(normalizeLabel(source)).Inc()
	m.items.Observe(float64(items))
	if covered > 0 {
		m.netted.WithLabelValues("covered").Add(float64(covered))
	}
	if reduced > 0 {
		m.netted.WithLabelValues("reduced").Add(float64(reduced))
	}
}

// IncShareTransition counts a grant transition.
func (m *ShoppingMetrics) IncShareTransition(transition string) {
	if m == nil || m.shares == nil {
		return
	}
	m.shares.WithLabelValues(normalizeLabel(transition)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
