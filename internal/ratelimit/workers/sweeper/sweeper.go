package sweeper

import (
	"context"
	"log/slog"
	"time"

	"termyx/internal/ratelimit/metrics"
	"termyx/pkg/requestcontext"
)

// Result contains the outcome of a sweep run.
type Result struct {
	Removed  int           // expired windows dropped
	Active   int           // windows still live after the sweep
	Duration time.Duration // time taken for the run
}

// WindowStore is the in-memory window store being swept.
type WindowStore interface {
	Sweep(now time.Time) int
	Len() int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service periodically drops expired windows so the in-memory store stays bounded.
type Service struct {
	store    WindowStore
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
}

func New(store WindowStore, opts ...Option) *Service {
	service := &Service{
		store:    store,
		logger:   slog.Default(),
		interval: time.Minute,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error("ratelimit_sweep_failed", "error", err)
				if s.metrics != nil {
					s.metrics.IncrementSweepRuns("error")
				}
				continue
			}

			s.logger.Debug("ratelimit_sweep_completed",
				"removed", res.Removed,
				"active", res.Active,
				"duration_ms", res.Duration.Milliseconds(),
			)

			if s.metrics != nil {
				s.metrics.IncrementSweepRuns("success")
				s.metrics.AddSweepRemoved(res.Removed)
				s.metrics.SetActiveWindows(res.Active)
				s.metrics.ObserveSweepDuration(res.Duration.Seconds())
			}

		case <-ctx.Done():
			s.logger.Info("ratelimit sweeper stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single sweep. Logging and metrics are handled by Start.
func (s *Service) RunOnce(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	removed := s.store.Sweep(requestcontext.Now(ctx))
	return &Result{
		Removed:  removed,
		Active:   s.store.Len(),
		Duration: time.Since(start),
	}, nil
}
