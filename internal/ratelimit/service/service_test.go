package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"termyx/internal/ratelimit/config"
	"termyx/internal/ratelimit/models"
	"termyx/internal/ratelimit/store/window"
	"termyx/pkg/platform/circuit"
	"termyx/pkg/requestcontext"
)

// flakyStore fails while down is set and otherwise delegates to an in-memory store.
type flakyStore struct {
	inner *window.InMemoryStore
	down  bool
	calls int
}

func (f *flakyStore) Hit(ctx context.Context, key string, w time.Duration) (int, time.Time, error) {
	f.calls++
	if f.down {
		return 0, time.Time{}, errors.New("dial tcp 10.0.0.5:6379: connection refused")
	}
	return f.inner.Hit(ctx, key, w)
}

type LimiterSuite struct {
	suite.Suite
	logger *slog.Logger
	now    time.Time
	ctx    context.Context
	limit  models.Limit
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.limit = models.Limit{Name: "test", Requests: 3, Window: time.Minute}
}

func (s *LimiterSuite) TestFixedWindow() {
	limiter := New(window.NewInMemory(), WithLogger(s.logger))

	for i := 1; i <= 3; i++ {
		result, err := limiter.Check(s.ctx, s.limit, "ip:1.2.3.4")
		s.Require().NoError(err)
		s.True(result.Success)
		s.Equal(3-i, result.Remaining)
		s.Equal(s.now.Add(time.Minute), result.ResetTime)
	}

	result, err := limiter.Check(s.ctx, s.limit, "ip:1.2.3.4")
	s.Require().NoError(err)
	s.False(result.Success)
	s.Equal(0, result.Remaining)

	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Minute))
	result, err = limiter.Check(later, s.limit, "ip:1.2.3.4")
	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(2, result.Remaining)
}

func (s *LimiterSuite) TestPresetsDoNotShareWindows() {
	limiter := New(window.NewInMemory())
	cfg := config.DefaultConfig()
	auth := limiter.Preset(cfg.MustPreset(config.Auth))
	strict := limiter.Preset(cfg.MustPreset(config.Strict))

	for range 5 {
		_, err := auth.Check(s.ctx, "ip:1.2.3.4")
		s.Require().NoError(err)
	}
	denied, err := auth.Check(s.ctx, "ip:1.2.3.4")
	s.Require().NoError(err)
	s.False(denied.Success)

	other, err := strict.Check(s.ctx, "ip:1.2.3.4")
	s.Require().NoError(err)
	s.True(other.Success)
	s.Equal(9, other.Remaining)
	s.Equal(config.Strict, strict.Name())
}

func (s *LimiterSuite) TestInvalidLimit() {
	limiter := New(window.NewInMemory())
	_, err := limiter.Check(s.ctx, models.Limit{Name: "broken"}, "x")
	s.Error(err)
}

func (s *LimiterSuite) TestErrorWithoutFallback() {
	primary := &flakyStore{inner: window.NewInMemory(), down: true}
	limiter := New(primary, WithLogger(s.logger))

	_, err := limiter.Check(s.ctx, s.limit, "ip:1.2.3.4")
	s.Error(err)
}

func (s *LimiterSuite) TestFallbackWhileCircuitOpen() {
	primary := &flakyStore{inner: window.NewInMemory(), down: true}
	breaker := circuit.New("redis", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(2))
	limiter := New(primary, WithLogger(s.logger), WithFallback(window.NewInMemory(), breaker))

	_, err := limiter.Check(s.ctx, s.limit, "ip:1.2.3.4")
	s.Error(err, "below threshold errors surface to the caller")

	result, err := limiter.Check(s.ctx, s.limit, "ip:1.2.3.4")
	s.Require().NoError(err)
	s.True(result.Degraded)
	s.True(breaker.IsOpen())

	primary.down = false
	result, err = limiter.Check(s.ctx, s.limit, "ip:1.2.3.4")
	s.Require().NoError(err)
	s.True(result.Degraded, "still recovering")

	result, err = limiter.Check(s.ctx, s.limit, "ip:1.2.3.4")
	s.Require().NoError(err)
	s.False(result.Degraded)
	s.False(breaker.IsOpen())
	s.Equal(4, primary.calls)
	s.Equal(1, result.Remaining, "primary counted both recovery probes")
}
