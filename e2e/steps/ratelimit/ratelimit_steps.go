package ratelimit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastResponseHeader(name string) string
}

// RegisterSteps registers rate limiting step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I check signup (\d+) times for email "([^"]*)"$`, steps.checkSignupNTimes)
	ctx.Step(`^I GET "([^"]*)" (\d+) times$`, steps.getNTimes)
	ctx.Step(`^the first (\d+) requests should return (\d+)$`, steps.firstNShouldReturn)
	ctx.Step(`^the last request should be rate limited$`, steps.lastShouldBeRateLimited)
	ctx.Step(`^every response should carry rate limit headers$`, steps.everyResponseHasHeaders)
}

type ratelimitSteps struct {
	tc       TestContext
	statuses []int
	headers  []string
}

func (s *ratelimitSteps) record() {
	s.statuses = append(s.statuses, s.tc.GetLastResponseStatus())
	s.headers = append(s.headers, s.tc.GetLastResponseHeader("X-RateLimit-Limit"))
}

func (s *ratelimitSteps) checkSignupNTimes(ctx context.Context, count int, email string) error {
	s.statuses, s.headers = nil, nil
	for range count {
		if err := s.tc.POST("/auth/signup/check", map[string]any{"email": email}); err != nil {
			return err
		}
		s.record()
	}
	return nil
}

func (s *ratelimitSteps) getNTimes(ctx context.Context, path string, count int) error {
	s.statuses, s.headers = nil, nil
	for range count {
		if err := s.tc.GET(path, nil); err != nil {
			return err
		}
		s.record()
	}
	return nil
}

func (s *ratelimitSteps) firstNShouldReturn(ctx context.Context, n, expected int) error {
	if len(s.statuses) < n {
		return fmt.Errorf("only %d requests were made", len(s.statuses))
	}
	for i, status := range s.statuses[:n] {
		if status != expected {
			return fmt.Errorf("request %d: expected status %d but got %d", i+1, expected, status)
		}
	}
	return nil
}

func (s *ratelimitSteps) lastShouldBeRateLimited(ctx context.Context) error {
	if len(s.statuses) == 0 {
		return fmt.Errorf("no requests were made")
	}
	if last := s.statuses[len(s.statuses)-1]; last != 429 {
		return fmt.Errorf("expected the last request to return 429 but got %d", last)
	}
	if s.tc.GetLastResponseHeader("Retry-After") == "" {
		return fmt.Errorf("rate limited response has no Retry-After header")
	}
	return nil
}

func (s *ratelimitSteps) everyResponseHasHeaders(ctx context.Context) error {
	for i, h := range s.headers {
		if h == "" {
			return fmt.Errorf("request %d: X-RateLimit-Limit missing", i+1)
		}
	}
	return nil
}
