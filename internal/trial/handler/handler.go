package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"termyx/internal/trial/service"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/httputil"
	"termyx/pkg/requestcontext"
)

// Service is the trial surface the handler needs.
type Service interface {
	Status(ctx context.Context, userID id.UserID) (*service.Status, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes. The router must apply auth beforehand.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/trial", h.HandleStatus)
}

// HandleStatus reports how many trial documents the caller has left.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.Status(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "trial status failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}
