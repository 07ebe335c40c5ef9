package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	id "termyx/pkg/domain"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	AdminPOST(path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetUserID() id.UserID
	SetPlan(slug string) error
}

// RegisterSteps registers document metering, credits and trial step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &documentSteps{tc: tc}

	ctx.Step(`^I am on the "([^"]*)" plan$`, steps.onPlan)
	ctx.Step(`^I create a document titled "([^"]*)"$`, steps.createDocument)
	ctx.Step(`^I create (\d+) documents$`, steps.createDocuments)
	ctx.Step(`^I should have (\d+) documents$`, steps.shouldHaveDocuments)

	ctx.Step(`^an operator grants me (\d+) "([^"]*)" credits$`, steps.operatorGrantsCredits)
	ctx.Step(`^a credit grant is sent without the admin token$`, steps.grantWithoutAdminToken)
	ctx.Step(`^my balance should be (\d+) credits$`, steps.balanceShouldBe)
}

type documentSteps struct {
	tc TestContext
}

func (s *documentSteps) onPlan(ctx context.Context, slug string) error {
	return s.tc.SetPlan(slug)
}

func (s *documentSteps) createDocument(ctx context.Context, title string) error {
	return s.tc.POST("/documents", map[string]any{
		"title":    title,
		"template": "orcamento",
		"content":  map[string]any{"cliente": "Maria", "valor": 150},
	})
}

func (s *documentSteps) createDocuments(ctx context.Context, count int) error {
	for i := range count {
		if err := s.createDocument(ctx, fmt.Sprintf("Orçamento %d", i+1)); err != nil {
			return err
		}
		if status := s.tc.GetLastResponseStatus(); status != http.StatusCreated {
			return fmt.Errorf("document %d: expected status 201 but got %d\nResponse: %s", i+1, status, string(s.tc.GetLastResponseBody()))
		}
	}
	return nil
}

func (s *documentSteps) shouldHaveDocuments(ctx context.Context, expected int) error {
	if err := s.tc.GET("/documents", nil); err != nil {
		return err
	}
	var body struct {
		Documents []json.RawMessage `json:"documents"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &body); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(body.Documents) != expected {
		return fmt.Errorf("expected %d documents but got %d", expected, len(body.Documents))
	}
	return nil
}

func (s *documentSteps) operatorGrantsCredits(ctx context.Context, amount int, txType string) error {
	if err := s.tc.AdminPOST("/admin/credits", map[string]any{
		"user_id":     s.tc.GetUserID().String(),
		"amount":      amount,
		"type":        txType,
		"description": "Pacote de créditos",
	}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusOK {
		return fmt.Errorf("grant: expected status 200 but got %d\nResponse: %s", status, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *documentSteps) grantWithoutAdminToken(ctx context.Context) error {
	return s.tc.POST("/admin/credits", map[string]any{
		"user_id": s.tc.GetUserID().String(),
		"amount":  100,
		"type":    "bonus",
	})
}

func (s *documentSteps) balanceShouldBe(ctx context.Context, expected int) error {
	if err := s.tc.GET("/me/credits", nil); err != nil {
		return err
	}
	var body struct {
		Credits int `json:"credits"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &body); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if body.Credits != expected {
		return fmt.Errorf("expected %d credits but got %d", expected, body.Credits)
	}
	return nil
}
