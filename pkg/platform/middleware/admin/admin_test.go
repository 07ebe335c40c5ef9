package admin

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const token = "operator-token"

func tokenHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRequireAdminToken(t *testing.T) {
	hash := tokenHash(t)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	tests := []struct {
		name       string
		header     string
		hash       string
		wantStatus int
		wantReject bool
	}{
		{name: "valid token", header: token, hash: hash, wantStatus: http.StatusOK},
		{name: "missing token", header: "", hash: hash, wantStatus: http.StatusUnauthorized, wantReject: true},
		{name: "wrong token", header: "guess", hash: hash, wantStatus: http.StatusUnauthorized, wantReject: true},
		{name: "admin surface disabled", header: token, hash: "", wantStatus: http.StatusUnauthorized, wantReject: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rejected := false
			var actor string
			handler := RequireAdminToken(tt.hash, logger, func(context.Context) { rejected = true })(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					actor = GetAdminActorID(r.Context())
					w.WriteHeader(http.StatusOK)
				}))

			req := httptest.NewRequest(http.MethodPost, "/admin/credits", nil)
			if tt.header != "" {
				req.Header.Set(TokenHeader, tt.header)
			}
			req.Header.Set("X-Admin-Actor-ID", "ops@termyx")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantReject, rejected)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "ops@termyx", actor)
			} else {
				assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
			}
		})
	}
}
