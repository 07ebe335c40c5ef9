package gate

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"termyx/internal/gate/metrics"
	"termyx/pkg/requestcontext"
)

// Func evaluates a gate. A returned error means the gate could not decide.
type Func func(ctx context.Context) (Decision, error)

// Runner evaluates gates and applies their failure policy when a data
// collaborator errors. Decisions produced by a gate pass through unchanged.
type Runner struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracer injects a tracer; defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("termyx/gate")
	}
	return r
}

// Run evaluates fn under the given policy.
// On error, FailOpen yields Allow and FailClosed yields a GATE_UNAVAILABLE denial.
func (r *Runner) Run(ctx context.Context, name string, policy FailurePolicy, fn Func) Decision {
	ctx, span := r.tracer.Start(ctx, "gate."+name, trace.WithAttributes(
		attribute.String("gate.name", name),
		attribute.String("gate.policy", policy.String()),
	))
	defer span.End()

	start := time.Now()
	decision, err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		decision = r.applyPolicy(ctx, name, policy, err)
		r.observe(name, "error", elapsed)
	} else {
		r.observe(name, outcome(decision), elapsed)
	}

	span.SetAttributes(attribute.Bool("gate.allowed", decision.Allowed))
	if decision.Denied() {
		span.SetAttributes(attribute.String("gate.code", decision.Code.String()))
		if r.metrics != nil {
			r.metrics.IncrementDenial(name, decision.Code.String())
		}
	}
	return decision
}

func (r *Runner) applyPolicy(ctx context.Context, name string, policy FailurePolicy, err error) Decision {
	switch policy {
	case FailOpen:
		r.logger.ErrorContext(ctx, "gate failed open",
			"log_type", "audit",
			"gate", name,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if r.metrics != nil {
			r.metrics.IncrementFailOpen(name)
		}
		return Allow()
	default:
		r.logger.ErrorContext(ctx, "gate failed closed",
			"gate", name,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return Deny(CodeUnavailable, UnavailableMessage)
	}
}

func (r *Runner) observe(name, result string, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveEvaluation(name, result, elapsed.Seconds())
}

func outcome(d Decision) string {
	if d.Allowed {
		return "allowed"
	}
	return "denied"
}
