package sweeper

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"termyx/internal/ratelimit/store/window"
	"termyx/pkg/requestcontext"
)

type SweeperSuite struct {
	suite.Suite
	store   *window.InMemoryStore
	service *Service
	start   time.Time
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}

func (s *SweeperSuite) SetupTest() {
	s.store = window.NewInMemory()
	s.service = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithInterval(10*time.Millisecond),
	)
	s.start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *SweeperSuite) hit(key string, window time.Duration) {
	_, _, err := s.store.Hit(requestcontext.WithTime(context.Background(), s.start), key, window)
	s.Require().NoError(err)
}

func (s *SweeperSuite) TestRunOnceRemovesOnlyExpiredWindows() {
	s.hit("rl:auth:ip:10.0.0.1", time.Minute)
	s.hit("rl:email:ip:10.0.0.1", time.Hour)

	ctx := requestcontext.WithTime(context.Background(), s.start.Add(2*time.Minute))
	res, err := s.service.RunOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Removed)
	s.Equal(1, res.Active)
}

func (s *SweeperSuite) TestWindowEndingExactlyNowIsExpired() {
	s.hit("rl:strict:user:a", time.Minute)

	ctx := requestcontext.WithTime(context.Background(), s.start.Add(time.Minute))
	res, err := s.service.RunOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Removed)
	s.Equal(0, s.store.Len())
}

func (s *SweeperSuite) TestRunOnceHonorsCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.service.RunOnce(ctx)
	s.ErrorIs(err, context.Canceled)
}

func (s *SweeperSuite) TestStartStopsOnCancel() {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.service.Start(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *SweeperSuite) TestOptionsIgnoreZeroValues() {
	svc := New(s.store, WithInterval(0), WithLogger(nil))
	s.Equal(time.Minute, svc.interval)
	s.NotNil(svc.logger)
}
