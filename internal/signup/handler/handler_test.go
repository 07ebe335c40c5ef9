package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	accountstore "termyx/internal/account/store"
	fraudmodels "termyx/internal/fraud/models"
	fraudservice "termyx/internal/fraud/service"
	fraudstore "termyx/internal/fraud/store"
	"termyx/internal/gate"
	"termyx/internal/signup/service"
	id "termyx/pkg/domain"
	"termyx/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	accounts *accountstore.InMemoryStore
	evidence *fraudstore.InMemoryStore
	router   http.Handler
	ip       string
	userID   id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.accounts = accountstore.NewInMemory()
	s.evidence = fraudstore.NewInMemory()
	_, err := s.evidence.UpsertBlockedDomains(context.Background(), []fraudmodels.BlockedDomain{
		{Domain: "mailinator.com", Reason: "disposable"},
	})
	s.Require().NoError(err)
	s.ip = "198.51.100.20"

	fraud := fraudservice.New(s.evidence, fraudservice.WithLogger(logger))
	h := New(service.New(fraud, s.accounts, service.WithLogger(logger)), logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithClientMetadata(req.Context(), s.ip, "Mozilla/5.0 (Windows NT 10.0)")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(requestcontext.WithUserID(req.Context(), s.userID)))
			})
		})
		h.RegisterAuthenticated(r)
	})
	s.router = r
}

func (s *HandlerSuite) post(path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decision(rec *httptest.ResponseRecorder) gate.Decision {
	var d gate.Decision
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func (s *HandlerSuite) complete(fingerprint string) {
	s.userID = id.UserID(uuid.New())
	body := `{"email":"user-` + uuid.NewString()[:8] + `@example.com","fingerprint_hash":"` + fingerprint + `"}`
	rec := s.post("/auth/signup/complete", body)
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestAllowedSignup() {
	rec := s.post("/auth/signup/check", `{"email":"ana@example.com"}`)
	s.Equal(http.StatusOK, rec.Code)
	s.True(s.decision(rec).Allowed)
}

func (s *HandlerSuite) TestBlockedDomain() {
	rec := s.post("/auth/signup/check", `{"email":"Spam@Mailinator.COM"}`)
	s.Equal(http.StatusForbidden, rec.Code)
	d := s.decision(rec)
	s.False(d.Allowed)
	s.Equal(gate.CodeBlockedEmail, d.Code)
	s.NotEmpty(d.Reason)
}

func (s *HandlerSuite) TestFingerprintReuse() {
	s.complete("device-1")

	rec := s.post("/auth/signup/check", `{"email":"outra@example.com","fingerprint_hash":"DEVICE-1"}`)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(gate.CodeFingerprintUsed, s.decision(rec).Code)
}

func (s *HandlerSuite) TestIPAbuseAfterThreeSignups() {
	for i := range 3 {
		s.complete("device-" + string(rune('a'+i)))
	}

	rec := s.post("/auth/signup/check", `{"email":"quarta@example.com"}`)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(gate.CodeIPAbuse, s.decision(rec).Code)

	s.ip = "198.51.100.21"
	rec = s.post("/auth/signup/check", `{"email":"quarta@example.com"}`)
	s.Equal(http.StatusOK, rec.Code, "other addresses are unaffected")
}

func (s *HandlerSuite) TestCheckValidation() {
	for name, body := range map[string]string{
		"missing email":   `{}`,
		"malformed email": `{"email":"not-an-email"}`,
		"bad fingerprint": `{"email":"ana@example.com","fingerprint_hash":"has spaces!"}`,
	} {
		s.Run(name, func() {
			rec := s.post("/auth/signup/check", body)
			s.Equal(http.StatusBadRequest, rec.Code)
		})
	}
}

func (s *HandlerSuite) TestCompleteCreatesFreeProfile() {
	s.complete("device-x")

	user, err := s.accounts.FindByID(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Equal("free", user.Plan)
	s.Equal(0, user.Credits)

	used, err := s.evidence.FingerprintUsedByOther(context.Background(), "device-x", id.UserID(uuid.New()))
	s.Require().NoError(err)
	s.True(used)
}

func (s *HandlerSuite) TestCompleteWithoutEmail() {
	s.userID = id.UserID(uuid.New())
	rec := s.post("/auth/signup/complete", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}
