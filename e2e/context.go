package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"termyx/internal/app"
	jwttoken "termyx/internal/jwt_token"
	"termyx/internal/platform/config"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/middleware/admin"
	"termyx/pkg/secrets"
)

const (
	// Dev signing key - matches config.go when AUTH_JWT_SECRET is not set
	devSigningKey = "dev-secret-key-change-in-production"

	// localAdminToken is accepted by the in-process gate.
	localAdminToken = "e2e-operator-token"
)

// TestContext holds state between test steps
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	ClientIP    string
	Fingerprint string
	UserID      id.UserID
	Email       string
	AccessToken string
	AdminToken  string

	tokens *jwttoken.JWTService
	app    *app.App
	server *httptest.Server
}

// NewTestContext targets BASE_URL when set. Otherwise it starts an
// in-process gate on in-memory stores that is torn down by Close.
func NewTestContext() (*TestContext, error) {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		secret = devSigningKey
	}
	tc := &TestContext{
		BaseURL:    os.Getenv("BASE_URL"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		ClientIP:   "203.0.113.1",
		AdminToken: os.Getenv("ADMIN_TOKEN"),
		tokens:     jwttoken.NewJWTService(secret, "", "authenticated", time.Hour),
	}
	if tc.BaseURL != "" {
		return tc, nil
	}

	hash, err := secrets.Hash(localAdminToken)
	if err != nil {
		return nil, err
	}
	cfg := config.Server{
		Environment:    "test",
		AdminTokenHash: hash,
		// The test server dials from loopback, so X-Forwarded-For carries the scenario's IP.
		TrustedProxies: "127.0.0.1/32,::1/128",
		Auth: config.AuthConfig{
			JWTSecret: secret,
			Audience:  "authenticated",
			TokenTTL:  time.Hour,
		},
		RateLimit:       config.RateLimitConfig{SweepInterval: time.Minute, StatsInterval: time.Minute},
		Signup:          config.SignupConfig{IPWindow: 24 * time.Hour, IPMax: 3},
		ShutdownTimeout: time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tc.app, err = app.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	tc.server = httptest.NewServer(tc.app.Handler)
	tc.BaseURL = tc.server.URL
	tc.AdminToken = localAdminToken
	return tc, nil
}

// Close stops the in-process gate, if any.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
	if tc.app != nil {
		tc.app.Close()
	}
}

// Authenticate switches the caller to a fresh user id with the given email claim.
func (tc *TestContext) Authenticate(email string) error {
	tc.UserID = id.UserID(uuid.New())
	tc.Email = email
	token, err := tc.tokens.GenerateAccessToken(context.Background(), tc.UserID, email)
	if err != nil {
		return fmt.Errorf("failed to sign access token: %w", err)
	}
	tc.AccessToken = token
	return nil
}

// SignOut drops the bearer token; later requests are anonymous.
func (tc *TestContext) SignOut() {
	tc.AccessToken = ""
}

// Do sends a request carrying the scenario's client IP, device fingerprint
// and, when authenticated, bearer token. A nil body sends no body at all.
func (tc *TestContext) Do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.ClientIP != "" {
		req.Header.Set("X-Forwarded-For", tc.ClientIP)
	}
	if tc.Fingerprint != "" {
		req.Header.Set("X-Device-Fingerprint", tc.Fingerprint)
	}
	if tc.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.AccessToken)
	}
	for k, v := range headers {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

// POST makes a POST request and stores the response
func (tc *TestContext) POST(path string, body any) error {
	return tc.Do(http.MethodPost, path, body, nil)
}

// POSTWithHeaders makes a POST request with extra headers; an empty value removes a default header.
func (tc *TestContext) POSTWithHeaders(path string, body any, headers map[string]string) error {
	return tc.Do(http.MethodPost, path, body, headers)
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.Do(http.MethodGet, path, nil, headers)
}

// AdminPOST sends an operator request with the admin token.
func (tc *TestContext) AdminPOST(path string, body any) error {
	return tc.Do(http.MethodPost, path, body, map[string]string{
		admin.TokenHeader: tc.AdminToken,
		"Authorization":   "",
	})
}

// GetResponseField extracts a dotted path (e.g. "billing.type") from the JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for _, part := range strings.Split(field, ".") {
		obj, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
		data, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
	}
	return data, nil
}

// ResponseContains checks if the response body contains a field or text
func (tc *TestContext) ResponseContains(text string) bool {
	if strings.Contains(string(tc.LastResponseBody), text) {
		return true
	}
	_, err := tc.GetResponseField(text)
	return err == nil
}

// Getter methods for step package interfaces

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func (tc *TestContext) GetLastResponseHeader(name string) string {
	if tc.LastResponse == nil {
		return ""
	}
	return tc.LastResponse.Header.Get(name)
}

func (tc *TestContext) SetClientIP(ip string) {
	tc.ClientIP = ip
}

func (tc *TestContext) SetFingerprint(fingerprint string) {
	tc.Fingerprint = fingerprint
}

func (tc *TestContext) GetUserID() id.UserID {
	return tc.UserID
}

// SetPlan moves the current user to another plan. There is no HTTP surface
// for plan changes, so this needs the in-process gate.
func (tc *TestContext) SetPlan(slug string) error {
	if tc.app == nil {
		return errors.New("plan changes need the in-process gate (unset BASE_URL)")
	}
	return tc.app.Accounts.SetPlan(context.Background(), tc.UserID, slug)
}
