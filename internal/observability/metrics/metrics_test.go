package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	m := NewSchedulingMetrics(prometheus.NewRegistry())
	m.ObserveOperation("book", "success")
	m.ObserveConflict("overlap")
	m.ObserveReminder("email")
	m.ObserveSnapshotFailure()
	m.ObserveDuration("book", 0.01)
}

func TestSchedulingMetricsDefaultRegistry(t *testing.T) {
	m := NewSchedulingMetrics(nil)
	m.ObserveOperation("cancel", "success")
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveOperation("book", "success")
	m.ObserveConflict("overlap")
	m.ObserveReminder("sms")
	m.ObserveSnapshotFailure()
	m.ObserveDuration("book", 0.1)
}
