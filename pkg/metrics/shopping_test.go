package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestShoppingMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewShoppingMetrics(reg)

	m.ObserveConsolidation(SourceMenuPlan, 7, 2, 1)
	m.ObserveConsolidation(SourceAdHoc, 3, 0, 0)
	m.IncShareTransition(TransitionInvited)
	m.IncShareTransition(TransitionAccepted)
	m.IncShareTransition("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	assertCounter(t, mfs, "larder_consolidations_total", "source", SourceMenuPlan, 1)
	assertCounter(t, mfs, "larder_consolidations_total", "source", SourceAdHoc, 1)
	assertCounter(t, mfs, "larder_pantry_netted_total", "outcome", "covered", 2)
	assertCounter(t, mfs, "larder_pantry_netted_total", "outcome", "reduced", 1)
	assertCounter(t, mfs, "larder_share_transitions_total", "transition", TransitionAccepted, 1)
	assertCounter(t, mfs, "larder_share_transitions_total", "transition", "unknown", 1)

	mf := findMetricFamily(mfs, "larder_consolidated_items")
	if mf == nil {
		t.Fatalf("histogram not exported")
	}
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 || h.GetSampleSum() != 10 {
		t.Fatalf("unexpected histogram count=%d sum=%f", h.GetSampleCount(), h.GetSampleSum())
	}
}

func TestShoppingMetricsNilSafe(t *testing.T) {
	var m *ShoppingMetrics
	m.ObserveConsolidation(SourceAdHoc, 1, 0, 0)
	m.IncShareTransition(TransitionRemoved)

	NewShoppingMetrics(nil).ObserveConsolidation(SourceAdHoc, 1, 1, 1)
}

func assertCounter(t *testing.T, mfs []*dto.MetricFamily, name, label, value string, want float64) {
	t.Helper()
	got, err := fetchCounterValue(mfs, name, label, value)
	if err != nil {
		t.Fatalf("fetch %s: %v", name, err)
	}
	if got != want {
		t.Fatalf("expected %s{%s=%q}=%v, got %v", name, label, value, want, got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
