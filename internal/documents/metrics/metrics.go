package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DocumentsCreatedTotal  *prometheus.CounterVec
	DocumentsDeniedTotal   *prometheus.CounterVec
	DocumentRollbacksTotal *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		DocumentsCreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_documents_created_total",
			Help: "Total number of documents created by billing type",
		}, []string{"billing"}),
		DocumentsDeniedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_documents_denied_total",
			Help: "Total number of document requests denied by a metering gate, by decision code",
		}, []string{"code"}),
		DocumentRollbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_documents_rollbacks_total",
			Help: "Total number of compensating actions after a failed creation, by kind and result",
		}, []string{"kind", "result"}),
	}
}

func (m *Metrics) IncrementCreated(billing string) {
	m.DocumentsCreatedTotal.WithLabelValues(billing).Inc()
}

func (m *Metrics) IncrementDenied(code string) {
	m.DocumentsDeniedTotal.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementRollback(kind, result string) {
	m.DocumentRollbacksTotal.WithLabelValues(kind, result).Inc()
}
