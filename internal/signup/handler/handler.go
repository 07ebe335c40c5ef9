package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	accountmodels "termyx/internal/account/models"
	"termyx/internal/gate"
	"termyx/internal/signup/service"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/httputil"
	"termyx/pkg/requestcontext"
)

// Service is the signup surface the handlers need.
type Service interface {
	Check(ctx context.Context, email, fingerprintHash string) (gate.Decision, error)
	Complete(ctx context.Context, userID id.UserID, in service.Completion) (*accountmodels.User, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public check route. Callers pass the auth rate limit preset.
func (h *Handler) Register(r chi.Router, checkMiddleware ...func(http.Handler) http.Handler) {
	r.With(checkMiddleware...).Post("/auth/signup/check", h.HandleCheck)
}

// RegisterAuthenticated mounts routes that require a verified user.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/auth/signup/complete", h.HandleComplete)
}

// HandleCheck runs the signup fraud gate. Denials are 403 with a stable code
// and a localized reason; the gate never returns 5xx for store outages.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CheckSignupRequest](w, r, h.logger)
	if !ok {
		return
	}

	decision, err := h.service.Check(ctx, req.Email, req.FingerprintHash)
	if err != nil {
		h.logger.WarnContext(ctx, "signup check rejected",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	if decision.Denied() {
		httputil.WriteJSON(w, http.StatusForbidden, decision)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

// HandleComplete creates the billing profile and records signup evidence.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req := &CompleteSignupRequest{}
	if r.ContentLength != 0 {
		var ok bool
		req, ok = httputil.DecodeAndPrepare[CompleteSignupRequest](w, r, h.logger)
		if !ok {
			return
		}
	}

	if _, err := h.service.Complete(ctx, userID, service.Completion{
		Email:           req.Email,
		FingerprintHash: req.FingerprintHash,
	}); err != nil {
		h.logger.WarnContext(ctx, "signup completion failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
