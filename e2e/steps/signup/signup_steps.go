package signup

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Authenticate(email string) error
}

// RegisterSteps registers signup gate step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &signupSteps{tc: tc}

	ctx.Step(`^I check signup for email "([^"]*)"$`, steps.checkSignup)
	ctx.Step(`^I check signup for email "([^"]*)" with fingerprint "([^"]*)"$`, steps.checkSignupWithFingerprint)
	ctx.Step(`^I complete signup$`, steps.completeSignup)
	ctx.Step(`^I complete signup with fingerprint "([^"]*)"$`, steps.completeSignupWithFingerprint)
	ctx.Step(`^(\d+) users have completed signup from this IP$`, steps.usersCompletedSignup)
}

type signupSteps struct {
	tc TestContext
}

func (s *signupSteps) checkSignup(ctx context.Context, email string) error {
	return s.tc.POST("/auth/signup/check", map[string]any{"email": email})
}

func (s *signupSteps) checkSignupWithFingerprint(ctx context.Context, email, fingerprint string) error {
	return s.tc.POST("/auth/signup/check", map[string]any{
		"email":            email,
		"fingerprint_hash": fingerprint,
	})
}

func (s *signupSteps) completeSignup(ctx context.Context) error {
	return s.tc.POST("/auth/signup/complete", nil)
}

func (s *signupSteps) completeSignupWithFingerprint(ctx context.Context, fingerprint string) error {
	return s.tc.POST("/auth/signup/complete", map[string]any{"fingerprint_hash": fingerprint})
}

func (s *signupSteps) usersCompletedSignup(ctx context.Context, count int) error {
	for i := range count {
		if err := s.tc.Authenticate(fmt.Sprintf("cliente%d@example.com.br", i+1)); err != nil {
			return err
		}
		if err := s.completeSignup(ctx); err != nil {
			return err
		}
		if status := s.tc.GetLastResponseStatus(); status != 204 {
			return fmt.Errorf("signup %d: expected status 204 but got %d\nResponse: %s", i+1, status, string(s.tc.GetLastResponseBody()))
		}
	}
	return nil
}
