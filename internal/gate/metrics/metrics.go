package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GateEvaluationsTotal   *prometheus.CounterVec
	GateDenialsTotal       *prometheus.CounterVec
	GateFailOpenTotal      *prometheus.CounterVec
	GateEvaluationDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		GateEvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_gate_evaluations_total",
			Help: "Total number of gate evaluations by gate and result",
		}, []string{"gate", "result"}),
		GateDenialsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_gate_denials_total",
			Help: "Total number of gate denials by gate and code",
		}, []string{"gate", "code"}),
		GateFailOpenTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_gate_fail_open_total",
			Help: "Total number of gate evaluations admitted because the store was unavailable",
		}, []string{"gate"}),
		GateEvaluationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "termyx_gate_evaluation_duration_seconds",
			Help:    "Duration of gate evaluations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"gate"}),
	}
}

func (m *Metrics) ObserveEvaluation(gate, result string, durationSeconds float64) {
	m.GateEvaluationsTotal.WithLabelValues(gate, result).Inc()
	m.GateEvaluationDuration.WithLabelValues(gate).Observe(durationSeconds)
}

func (m *Metrics) IncrementDenial(gate, code string) {
	m.GateDenialsTotal.WithLabelValues(gate, code).Inc()
}

func (m *Metrics) IncrementFailOpen(gate string) {
	m.GateFailOpenTotal.WithLabelValues(gate).Inc()
}
