package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SignupChecksTotal    *prometheus.CounterVec
	SignupRecordsTotal   *prometheus.CounterVec
	SignupRecordFailures *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		SignupChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_fraud_signup_checks_total",
			Help: "Total number of signup fraud checks by outcome code",
		}, []string{"code"}),
		SignupRecordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_fraud_signup_records_total",
			Help: "Total number of signup evidence records written by kind",
		}, []string{"kind"}),
		SignupRecordFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_fraud_signup_record_failures_total",
			Help: "Total number of signup evidence records that failed to persist by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementCheck(code string) {
	m.SignupChecksTotal.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementRecord(kind string) {
	m.SignupRecordsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementRecordFailure(kind string) {
	m.SignupRecordFailures.WithLabelValues(kind).Inc()
}
