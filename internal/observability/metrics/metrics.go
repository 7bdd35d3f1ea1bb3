package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for booking flows.
type SchedulingMetrics struct {
	operationsTotal   *prometheus.CounterVec
	conflictsTotal    *prometheus.CounterVec
	remindersTotal    *prometheus.CounterVec
	snapshotFailures  prometheus.Counter
	operationDuration *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "scheduling",
			Name:      "operations_total",
			Help:      "Total scheduling operations by outcome",
		}, []string{"operation", "status"}),
		conflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "Total rejected candidate slots",
		}, []string{"reason"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "reminders",
			Name:      "sent_total",
			Help:      "Total reminders dispatched",
		}, []string{"channel"}),
		snapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "scheduling",
			Name:      "snapshot_save_failures_total",
			Help:      "Total persistence snapshot saves that failed",
		}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studio",
			Subsystem: "scheduling",
			Name:      "operation_duration_seconds",
			Help:      "Latency of scheduling operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.conflictsTotal, m.remindersTotal, m.snapshotFailures, m.operationDuration)
	return m
}

func (m *SchedulingMetrics) ObserveOperation(operation, status string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

func (m *SchedulingMetrics) ObserveConflict(reason string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(reason).Inc()
}

func (m *SchedulingMetrics) ObserveReminder(channel string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(channel).Inc()
}

func (m *SchedulingMetrics) ObserveSnapshotFailure() {
	if m == nil {
		return
	}
	m.snapshotFailures.Inc()
}

func (m *SchedulingMetrics) ObserveDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}
