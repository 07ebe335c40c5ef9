package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"termyx/internal/ratelimit/metrics"
	"termyx/internal/ratelimit/models"
	"termyx/pkg/platform/circuit"
	"termyx/pkg/requestcontext"
)

// Store counts one request against key within a fixed window and returns the
// post-increment count and the window's reset time.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// Limiter applies fixed-window limits over a primary store, optionally
// falling back to a process-local store while the primary is failing.
type Limiter struct {
	store    Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// WithFallback enables degraded mode: once the breaker opens, answers come
// from fallback until the primary recovers.
func WithFallback(fallback Store, breaker *circuit.Breaker) Option {
	return func(l *Limiter) {
		l.fallback = fallback
		l.breaker = breaker
	}
}

func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fallback != nil && l.breaker == nil {
		l.breaker = circuit.New("ratelimit")
	}
	return l
}

// Check counts one request for identifier under limit. An error means no
// store could answer; callers decide whether to admit the request.
func (l *Limiter) Check(ctx context.Context, limit models.Limit, identifier string) (*models.Result, error) {
	if limit.Requests <= 0 || limit.Window <= 0 {
		return nil, fmt.Errorf("invalid rate limit %q", limit.Name)
	}
	key := models.Key(limit.Name, identifier)

	count, resetAt, err := l.store.Hit(ctx, key, limit.Window)
	if err != nil {
		if l.metrics != nil {
			l.metrics.IncrementStoreError(limit.Name)
		}
		return l.onPrimaryFailure(ctx, limit, key, err)
	}

	if l.breaker != nil {
		usePrimary, change := l.breaker.RecordSuccess()
		if change.Closed {
			l.logger.InfoContext(ctx, "rate limit store recovered", "breaker", l.breaker.Name())
		}
		if !usePrimary {
			return l.fromFallback(ctx, limit, key)
		}
	}

	result := models.Evaluate(limit.Requests, count, resetAt)
	l.count(limit.Name, result)
	return result, nil
}

func (l *Limiter) onPrimaryFailure(ctx context.Context, limit models.Limit, key string, cause error) (*models.Result, error) {
	if l.breaker == nil || l.fallback == nil {
		return nil, cause
	}
	useFallback, change := l.breaker.RecordFailure()
	if change.Opened {
		l.logger.WarnContext(ctx, "rate limit store circuit opened, using process-local fallback",
			"breaker", l.breaker.Name(),
			"error", cause,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if !useFallback {
		return nil, cause
	}
	return l.fromFallback(ctx, limit, key)
}

func (l *Limiter) fromFallback(ctx context.Context, limit models.Limit, key string) (*models.Result, error) {
	count, resetAt, err := l.fallback.Hit(ctx, key, limit.Window)
	if err != nil {
		return nil, fmt.Errorf("fallback rate limit store: %w", err)
	}
	result := models.Evaluate(limit.Requests, count, resetAt)
	result.Degraded = true
	l.count(limit.Name, result)
	return result, nil
}

func (l *Limiter) count(preset string, result *models.Result) {
	if l.metrics == nil {
		return
	}
	outcome := "allowed"
	if !result.Success {
		outcome = "denied"
	}
	l.metrics.IncrementCheck(preset, outcome)
}

// Preset binds a limit to a limiter.
type Preset struct {
	limiter *Limiter
	limit   models.Limit
}

func (l *Limiter) Preset(limit models.Limit) *Preset {
	return &Preset{limiter: l, limit: limit}
}

// Check counts one request for identifier under this preset.
func (p *Preset) Check(ctx context.Context, identifier string) (*models.Result, error) {
	return p.limiter.Check(ctx, p.limit, identifier)
}

func (p *Preset) Name() string {
	return p.limit.Name
}

func (p *Preset) Limit() models.Limit {
	return p.limit
}
