package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CreditsDeductedTotal      *prometheus.CounterVec
	CreditsGrantedTotal       *prometheus.CounterVec
	CreditCheckFailuresTotal  prometheus.Counter
	CreditOperationDurationMs *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		CreditsDeductedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_credits_deductions_total",
			Help: "Total number of credit deduction attempts by result",
		}, []string{"result"}),
		CreditsGrantedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_credits_granted_total",
			Help: "Total number of credits added by transaction type",
		}, []string{"type"}),
		CreditCheckFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termyx_credits_check_failures_total",
			Help: "Total number of balance checks that failed closed",
		}),
		CreditOperationDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "termyx_credits_operation_duration_ms",
			Help:    "Duration of credit ledger operations in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementDeduction(result string) {
	m.CreditsDeductedTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AddGranted(txType string, amount int) {
	m.CreditsGrantedTotal.WithLabelValues(txType).Add(float64(amount))
}

func (m *Metrics) IncrementCheckFailure() {
	m.CreditCheckFailuresTotal.Inc()
}

func (m *Metrics) ObserveOperation(operation string, durationMs float64) {
	m.CreditOperationDurationMs.WithLabelValues(operation).Observe(durationMs)
}
