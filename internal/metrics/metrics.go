// Package metrics holds the Prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vulnsphere"

type Metrics struct {
	reportsGenerated *prometheus.CounterVec
	renderDuration   *prometheus.HistogramVec
	activityFailures *prometheus.CounterVec
	autoAttach       *prometheus.CounterVec
	storageOps       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reportsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_generated_total",
				Help:      "Generated reports by format and outcome.",
			},
			[]string{"format", "status"},
		),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_render_duration_seconds",
				Help:      "Time spent rendering a report template.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		activityFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activity_log_failures_total",
				Help:      "Audit records that could not be written.",
			},
			[]string{"entity"},
		),
		autoAttach: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "asset_auto_attach_total",
				Help:      "Project asset auto-attachment attempts by result.",
			},
			[]string{"result"},
		),
		storageOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Object storage operations by adapter, operation and status.",
			},
			[]string{"adapter", "op", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.reportsGenerated, m.renderDuration, m.activityFailures, m.autoAttach, m.storageOps)
	}
	return m
}

func (m *Metrics) ReportRendered(format string, failed bool, took time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if failed {
		status = "failed"
	}
	m.reportsGenerated.WithLabelValues(format, status).Inc()
	m.renderDuration.WithLabelValues(format).Observe(took.Seconds())
}

func (m *Metrics) ActivityLogFailed(entity string) {
	if m == nil {
		return
	}
	m.activityFailures.WithLabelValues(entity).Inc()
}

// AutoAttach records "created" or "exists".
func (m *Metrics) AutoAttach(result string) {
	if m == nil {
		return
	}
	m.autoAttach.WithLabelValues(result).Inc()
}

func (m *Metrics) StorageOp(adapter, op string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.storageOps.WithLabelValues(adapter, op, status).Inc()
}
