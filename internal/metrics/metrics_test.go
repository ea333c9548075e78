package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.IncTransition("SEND", "SENT")
	m.IncTransition("SEND", "SENT")
	m.IncItemTransition("ADVANCE", "PROVIDER_ACCEPTED")
	m.AddMessages("WORK_ORDER", 2)
	m.AddMessages("WORK_ORDER", 0)
	m.IncFailure("approve_cart", "")
	m.ObserveDuration("approve_cart", 15*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name  string
		label string
		value string
		want  float64
	}{
		{"cart_transitions_total", "transition", "SEND", 2},
		{"cart_item_transitions_total", "to", "PROVIDER_ACCEPTED", 1},
		{"cart_outbound_messages_total", "target_type", "WORK_ORDER", 2},
		{"cart_operation_failures_total", "kind", "unknown", 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("expected %s=%v, got %v", c.name, c.want, got)
		}
	}
}

func TestNilCartMetricsIsNoop(t *testing.T) {
	var m *CartMetrics
	m.IncTransition("SEND", "SENT")
	m.AddMessages("WORK_ORDER", 1)
	m.ObserveDuration("x", time.Second)

	empty := NewCartMetrics(nil)
	empty.IncFailure("x", "y")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue(), nil
				}
			}
		}
		return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
	}
	return 0, fmt.Errorf("metric %q not found", name)
}
