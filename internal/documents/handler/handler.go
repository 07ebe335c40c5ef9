package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"termyx/internal/documents/models"
	"termyx/internal/documents/service"
	"termyx/internal/gate"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/httputil"
	"termyx/pkg/requestcontext"
)

// Service is the document surface the handlers need.
type Service interface {
	Create(ctx context.Context, userID id.UserID, draft models.Draft) (*service.Outcome, error)
	List(ctx context.Context, userID id.UserID) ([]*models.Document, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts document routes. The router must apply auth beforehand;
// the create route is expected to carry the pdf rate limit preset.
func (h *Handler) Register(r chi.Router, createMiddleware ...func(http.Handler) http.Handler) {
	r.With(createMiddleware...).Post("/documents", h.HandleCreate)
	r.Get("/documents", h.HandleList)
}

// HandleCreate meters and creates a document for the caller.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateDocumentRequest](w, r, h.logger)
	if !ok {
		return
	}

	outcome, err := h.service.Create(ctx, userID, models.Draft{
		Title:    req.Title,
		Template: req.Template,
		Content:  req.Content,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "document creation failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	if !outcome.Decision.Allowed {
		status := http.StatusPaymentRequired
		if outcome.Decision.Code == gate.CodeUnavailable {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, &DeniedResponse{
			Allowed: false,
			Code:    outcome.Decision.Code,
			Reason:  outcome.Decision.Reason,
		})
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCreateResponse(outcome))
}

// HandleList returns the caller's recent documents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.RequireUserID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	docs, err := h.service.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "document list failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(docs))
}
