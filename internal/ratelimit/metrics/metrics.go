package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitChecksTotal          *prometheus.CounterVec
	RateLimitStoreErrorsTotal     *prometheus.CounterVec
	RateLimitCircuitOpen          *prometheus.GaugeVec
	RateLimitGlobalThrottledTotal prometheus.Counter
	RateLimitSweepRunsTotal       *prometheus.CounterVec
	RateLimitSweepRemovedTotal    prometheus.Counter
	RateLimitSweepDurationSeconds prometheus.Histogram
	RateLimitActiveWindows        prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		RateLimitChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_ratelimit_checks_total",
			Help: "Total number of rate limit checks by preset and outcome",
		}, []string{"preset", "outcome"}),
		RateLimitStoreErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_ratelimit_store_errors_total",
			Help: "Total number of rate limit store errors by preset",
		}, []string{"preset"}),
		RateLimitCircuitOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "termyx_ratelimit_circuit_open",
			Help: "1 while the shared rate limit store circuit is open",
		}, []string{"breaker"}),
		RateLimitGlobalThrottledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termyx_ratelimit_global_throttled_total",
			Help: "Total number of requests rejected by the per-instance throttle",
		}),
		RateLimitSweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "termyx_ratelimit_sweep_runs_total",
			Help: "Total number of window sweep runs",
		}, []string{"status"}),
		RateLimitSweepRemovedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termyx_ratelimit_sweep_removed_total",
			Help: "Total number of expired windows removed by the sweeper",
		}),
		RateLimitSweepDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "termyx_ratelimit_sweep_duration_seconds",
			Help: "Duration of sweep runs in seconds",
		}),
		RateLimitActiveWindows: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "termyx_ratelimit_active_windows",
			Help: "Number of live in-memory windows after the last sweep",
		}),
	}
}

func (m *Metrics) IncrementCheck(preset, outcome string) {
	m.RateLimitChecksTotal.WithLabelValues(preset, outcome).Inc()
}

func (m *Metrics) IncrementStoreError(preset string) {
	m.RateLimitStoreErrorsTotal.WithLabelValues(preset).Inc()
}

func (m *Metrics) SetCircuitOpen(breaker string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.RateLimitCircuitOpen.WithLabelValues(breaker).Set(v)
}

func (m *Metrics) IncrementGlobalThrottled() {
	m.RateLimitGlobalThrottledTotal.Inc()
}

func (m *Metrics) IncrementSweepRuns(status string) {
	m.RateLimitSweepRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) AddSweepRemoved(count int) {
	m.RateLimitSweepRemovedTotal.Add(float64(count))
}

func (m *Metrics) ObserveSweepDuration(durationSeconds float64) {
	m.RateLimitSweepDurationSeconds.Observe(durationSeconds)
}

func (m *Metrics) SetActiveWindows(count int) {
	m.RateLimitActiveWindows.Set(float64(count))
}
