package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"termyx/internal/account/models"
	"termyx/internal/credits/service"
	id "termyx/pkg/domain"
	dErrors "termyx/pkg/domain-errors"
	"termyx/pkg/platform/httputil"
	adminmw "termyx/pkg/platform/middleware/admin"
	"termyx/pkg/requestcontext"
)

// Service is the ledger surface the handlers need.
type Service interface {
	Overview(ctx context.Context, userID id.UserID) (*service.Overview, error)
	AddCredits(ctx context.Context, userID id.UserID, amount int, txType models.TransactionType, description string) (service.Result, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts caller routes. The router must apply auth beforehand.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/credits", h.HandleBalance)
}

// RegisterAdmin mounts operator routes. The router must apply the admin token check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/credits", h.HandleGrant)
}

// HandleBalance returns the caller's balance, plan and recent ledger entries.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	overview, err := h.service.Overview(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "credit overview failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCreditsResponse(overview))
}

// HandleGrant adds credits to a user's balance.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GrantCreditsRequest](w, r, h.logger)
	if !ok {
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}

	result, err := h.service.AddCredits(ctx, userID, req.Amount, models.TransactionType(req.Type), req.Description)
	if err != nil {
		h.logger.ErrorContext(ctx, "credit grant failed",
			"error", err,
			"request_id", requestID,
			"actor", adminmw.GetAdminActorID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credits granted",
		"log_type", "audit",
		"user_id", userID.String(),
		"amount", req.Amount,
		"type", req.Type,
		"actor", adminmw.GetAdminActorID(ctx),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, &GrantResponse{UserID: userID.String(), Credits: result.Credits})
}
