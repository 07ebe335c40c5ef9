package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus metrics that do not belong to a module.
type Metrics struct {
	BuildInfo          *prometheus.GaugeVec
	AdminAuthRejected  prometheus.Counter
	AuditEventsDropped prometheus.Counter
}

// New creates and registers the process metrics.
func New() *Metrics {
	return &Metrics{
		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "termyx_build_info",
			Help: "Build and environment of the running process; always 1",
		}, []string{"version", "environment"}),
		AdminAuthRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termyx_admin_auth_rejected_total",
			Help: "Total number of admin requests rejected for a missing or wrong token",
		}),
		AuditEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termyx_audit_events_dropped_total",
			Help: "Total number of audit events that could not be persisted",
		}),
	}
}

func (m *Metrics) SetBuildInfo(version, environment string) {
	m.BuildInfo.WithLabelValues(version, environment).Set(1)
}

func (m *Metrics) IncrementAdminAuthRejected() {
	m.AdminAuthRejected.Inc()
}

func (m *Metrics) IncrementAuditEventsDropped() {
	m.AuditEventsDropped.Inc()
}
