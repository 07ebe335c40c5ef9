package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"termyx/internal/gate"
	"termyx/internal/platform/config"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/middleware/admin"
	"termyx/pkg/secrets"
)

const operatorToken = "operator-token-for-tests"

type AppSuite struct {
	suite.Suite
	app    *App
	userID id.UserID
	token  string
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func testConfig(adminHash string) config.Server {
	return config.Server{
		Addr:           "127.0.0.1:0",
		Environment:    "test",
		AdminTokenHash: adminHash,
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			Audience:  "authenticated",
			TokenTTL:  time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			SweepInterval:  time.Minute,
			StatsInterval:  time.Minute,
			FailureTrigger: 5,
		},
		Signup:          config.SignupConfig{IPWindow: 24 * time.Hour, IPMax: 3},
		ShutdownTimeout: time.Second,
	}
}

func (s *AppSuite) SetupSuite() {
	hash, err := secrets.Hash(operatorToken)
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.app, err = New(context.Background(), testConfig(hash), logger)
	s.Require().NoError(err)
}

func (s *AppSuite) TearDownSuite() {
	s.app.Close()
}

func (s *AppSuite) SetupTest() {
	s.userID = id.UserID(uuid.New())
	token, err := s.app.Tokens.GenerateAccessToken(context.Background(), s.userID, "ana@padaria.com.br")
	s.Require().NoError(err)
	s.token = token
}

func (s *AppSuite) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.10:52000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.app.Handler.ServeHTTP(rec, req)
	return rec
}

func (s *AppSuite) authed() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.token}
}

func (s *AppSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func (s *AppSuite) TestProbesAndMetrics() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/health/live", "", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/health/ready", "", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/metrics", "", nil).Code)

	rec := s.do(http.MethodGet, "/health", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	backends := s.decode(rec)["backends"].(map[string]any)
	s.Equal("memory", backends["storage"])
	s.Equal("memory", backends["rate_limit"])
}

func (s *AppSuite) TestSignupCheckUsesSeededBlocklist() {
	rec := s.do(http.MethodPost, "/auth/signup/check", `{"email":"x@mailinator.com"}`,
		map[string]string{"X-Forwarded-For": "198.51.100.1"})
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(string(gate.CodeBlockedEmail), s.decode(rec)["code"])
	s.NotEmpty(rec.Header().Get("X-RateLimit-Limit"))
}

func (s *AppSuite) TestRequestIDEchoed() {
	rec := s.do(http.MethodGet, "/health/live", "", nil)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *AppSuite) TestAuthenticatedRoutesRequireToken() {
	for _, path := range []string{"/documents", "/me/credits", "/me/trial"} {
		rec := s.do(http.MethodGet, path, "", nil)
		s.Equal(http.StatusUnauthorized, rec.Code, path)
	}
	rec := s.do(http.MethodGet, "/me/trial", "", map[string]string{"Authorization": "Bearer not-a-jwt"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AppSuite) TestTrialThenCredits() {
	s.Equal(http.StatusNoContent, s.do(http.MethodPost, "/auth/signup/complete", "", s.authed()).Code)

	doc := `{"title":"Orçamento","template":"orcamento","content":{"cliente":"Maria"}}`
	for range 2 {
		rec := s.do(http.MethodPost, "/documents", doc, s.authed())
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodPost, "/documents", doc, s.authed())
	s.Equal(http.StatusPaymentRequired, rec.Code)
	s.Equal(string(gate.CodeTrialExhausted), s.decode(rec)["code"])

	s.Require().NoError(s.app.Accounts.SetPlan(context.Background(), s.userID, "basic"))

	rec = s.do(http.MethodPost, "/documents", doc, s.authed())
	s.Equal(http.StatusPaymentRequired, rec.Code)
	s.Equal(string(gate.CodeNoCredits), s.decode(rec)["code"])

	grant := `{"user_id":"` + s.userID.String() + `","amount":1,"type":"purchase","description":"Pacote"}`
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/admin/credits", grant, nil).Code)
	rec = s.do(http.MethodPost, "/admin/credits", grant, map[string]string{admin.TokenHeader: operatorToken})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/documents", doc, s.authed())
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	billing := s.decode(rec)["billing"].(map[string]any)
	s.Equal("credit", billing["type"])
	s.EqualValues(0, billing["credits_remaining"])

	rec = s.do(http.MethodGet, "/documents", "", s.authed())
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(s.decode(rec)["documents"], 3)

	rec = s.do(http.MethodGet, "/me/credits", "", s.authed())
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(s.decode(rec)["transactions"], 2)
}

func (s *AppSuite) TestAdminDisabledWithoutHash() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), testConfig(""), logger)
	s.Require().NoError(err)
	defer a.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/credits", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(admin.TokenHeader, operatorToken)
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AppSuite) TestRejectsBadTrustedProxies() {
	cfg := testConfig("")
	cfg.TrustedProxies = "not-a-cidr"
	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Error(err)
}

func (s *AppSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.app.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("Run did not return after cancel")
	}
}

func (s *AppSuite) TestKafkaBrokersAddReadinessCheck() {
	cfg := testConfig("")
	cfg.Kafka = config.KafkaConfig{
		Brokers:         "127.0.0.1:1",
		AuditTopic:      "termyx.audit",
		DeliveryTimeout: 100 * time.Millisecond,
	}
	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(rec.Body.String(), "kafka")
}
