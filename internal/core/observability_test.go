package core

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.ObserveOperation("add", outcomeSuccess, 20*time.Millisecond)
	rec.ObserveOperation("add", outcomeSuccess, 30*time.Millisecond)
	rec.ObserveOperation("add", outcomeRejected, 5*time.Millisecond)
	rec.ObserveOperation("", outcomeSuccess, time.Millisecond)

	snap := rec.Snapshot()
	if got := snap.DurationsMS["add"]; got != 55 {
		t.Fatalf("expected 55ms total, got %v", got)
	}
	if snap.Outcomes["add"][outcomeSuccess] != 2 || snap.Outcomes["add"][outcomeRejected] != 1 {
		t.Fatalf("unexpected outcome counts %v", snap.Outcomes)
	}
	if rec.Name() == "" {
		t.Fatal("generated name must not be empty")
	}
}

func TestPrometheusMetricsRecorderCounts(t *testing.T) {
	rec := NewPrometheusMetricsRecorder("testns")
	rec.ObserveOperation("query", outcomeSuccess, 10*time.Millisecond)
	rec.ObserveOperation("query", outcomeSuccess, 10*time.Millisecond)
	rec.ObserveOperation("remove", outcomeRejected, time.Millisecond)

	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var queryCount float64
	for _, fam := range families {
		if fam.GetName() != "testns_store_operations_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			if labelValue(m, "operation") == "query" && labelValue(m, "outcome") == outcomeSuccess {
				queryCount = m.GetCounter().GetValue()
			}
		}
	}
	if queryCount != 2 {
		t.Fatalf("expected 2 query successes, got %v", queryCount)
	}
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
