package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "termyx/pkg/domain-errors"
)

type grantRequest struct {
	UserID string `json:"user_id"`
	Amount int    `json:"amount"`
}

func (r *grantRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
}

func (r *grantRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "user_id is required")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("decodes, normalizes and validates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"user_id":"  abc ","amount":5}`))
		rec := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[grantRequest](rec, req, discardLogger())
		require.True(t, ok)
		assert.Equal(t, "abc", got.UserID)
		assert.Equal(t, 5, got.Amount)
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{`))
		rec := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[grantRequest](rec, req, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeBody(t, rec)["error"])
	})

	t.Run("plain validation errors become validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"user_id":"abc","amount":0}`))
		rec := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[grantRequest](rec, req, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", decodeBody(t, rec)["error"])
	})

	t.Run("domain validation errors keep their code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"amount":3}`))
		rec := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[grantRequest](rec, req, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeBody(t, rec)["error"])
	})
}

func TestWriteError(t *testing.T) {
	t.Run("metering codes map to 402", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.New(dErrors.CodeInsufficientCredits, "sem créditos"))
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Equal(t, "insufficient_credits", decodeBody(t, rec)["error"])
	})

	t.Run("internal messages are not leaked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.New(dErrors.CodeInternal, "pq: relation users does not exist"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "relation")
	})

	t.Run("unknown errors are generic internal errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("dial tcp: timeout"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal_error", decodeBody(t, rec)["error"])
	})
}
