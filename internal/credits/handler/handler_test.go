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
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"termyx/internal/account/models"
	"termyx/internal/account/store"
	"termyx/internal/credits/service"
	id "termyx/pkg/domain"
	adminmw "termyx/pkg/platform/middleware/admin"
	"termyx/pkg/requestcontext"
	"termyx/pkg/testutil"
)

const adminToken = "operator-token"

type HandlerSuite struct {
	suite.Suite
	store  *store.InMemoryStore
	router http.Handler
	userID id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = store.NewInMemory()
	s.userID = testutil.TestIDs.UserID1
	user := testutil.NewUserBuilder().WithID(s.userID).OnPlan("basic").WithCredits(1).Build()
	s.Require().NoError(s.store.Save(context.Background(), user))

	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	s.Require().NoError(err)

	h := New(service.New(s.store, service.WithLogger(logger)), logger)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(requestcontext.WithUserID(req.Context(), s.userID)))
			})
		})
		h.Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(string(hash), logger, nil))
		h.RegisterAdmin(r)
	})
	s.router = r
}

func (s *HandlerSuite) grant(token string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/admin/credits", bytes.NewReader(payload))
	if token != "" {
		req.Header.Set(adminmw.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestBalance() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me/credits", nil))

	s.Equal(http.StatusOK, rec.Code)
	var body CreditsResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.True(body.HasCredits)
	s.Equal(1, body.Credits)
	s.Equal("Básico", body.PlanName)
	s.Empty(body.Transactions)
}

func (s *HandlerSuite) TestGrant() {
	rec := s.grant(adminToken, map[string]any{
		"user_id": s.userID.String(), "amount": 10, "type": "PURCHASE", "description": " Pacote 10 ",
	})
	s.Equal(http.StatusOK, rec.Code)

	var body GrantResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(11, body.Credits)

	txs, err := s.store.ListTransactions(context.Background(), s.userID, 1)
	s.Require().NoError(err)
	s.Require().Len(txs, 1)
	s.Equal("Pacote 10", txs[0].Description)
	s.Equal(models.TransactionPurchase, txs[0].Type)
}

func (s *HandlerSuite) TestGrantRejections() {
	tests := []struct {
		name   string
		token  string
		body   map[string]any
		status int
	}{
		{name: "no admin token", token: "", body: map[string]any{"user_id": s.userID.String(), "amount": 1, "type": "bonus"}, status: http.StatusUnauthorized},
		{name: "zero amount", token: adminToken, body: map[string]any{"user_id": s.userID.String(), "amount": 0, "type": "bonus"}, status: http.StatusBadRequest},
		{name: "usage type", token: adminToken, body: map[string]any{"user_id": s.userID.String(), "amount": 1, "type": "usage"}, status: http.StatusBadRequest},
		{name: "bad user id", token: adminToken, body: map[string]any{"user_id": "nope", "amount": 1, "type": "bonus"}, status: http.StatusBadRequest},
		{name: "unknown user", token: adminToken, body: map[string]any{"user_id": testutil.TestIDs.UserID2.String(), "amount": 1, "type": "bonus"}, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.grant(tt.token, tt.body)
			s.Equal(tt.status, rec.Code)
		})
	}

	user, err := s.store.FindByID(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Equal(1, user.Credits)
}
