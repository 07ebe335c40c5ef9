package service

import (
	"context"
	"errors"
	"log/slog"

	accountmodels "termyx/internal/account/models"
	"termyx/internal/audit"
	creditsservice "termyx/internal/credits/service"
	"termyx/internal/documents/metrics"
	"termyx/internal/documents/models"
	"termyx/internal/gate"
	id "termyx/pkg/domain"
	dErrors "termyx/pkg/domain-errors"
	"termyx/pkg/platform/sentinel"
	"termyx/pkg/requestcontext"
	s "termyx/pkg/string"
)

// Store persists documents.
type Store interface {
	Create(ctx context.Context, doc *models.Document) error
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*models.Document, error)
	Delete(ctx context.Context, userID id.UserID, docID id.DocumentID) error
}

// Profiles resolves the caller's plan.
type Profiles interface {
	FindByID(ctx context.Context, userID id.UserID) (*accountmodels.User, error)
}

// TrialGate meters free-plan documents.
type TrialGate interface {
	CheckEligibility(ctx context.Context, userID id.UserID) gate.Decision
	IncrementUsage(ctx context.Context, userID id.UserID) (int, error)
}

// Ledger meters paid-plan documents.
type Ledger interface {
	DeductCredit(ctx context.Context, userID id.UserID, description string) creditsservice.Result
	AddCredits(ctx context.Context, userID id.UserID, amount int, txType accountmodels.TransactionType, description string) (creditsservice.Result, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Outcome is the result of a creation attempt. Exactly one of a denied
// Decision or a Document is set.
type Outcome struct {
	Decision       gate.Decision
	Document       *models.Document
	Credits        int
	TrialRemaining int
}

const (
	usageDescriptionPrefix = "Geração de documento: "
	refundDescription      = "Estorno: falha ao gerar documento"
	maxUsageDescription    = 200
	defaultListLimit       = 50
)

// Service creates documents behind the trial gate or the credit ledger,
// depending on the caller's plan.
type Service struct {
	store    Store
	profiles Profiles
	trial    TrialGate
	ledger   Ledger
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func New(store Store, profiles Profiles, trial TrialGate, ledger Ledger, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		profiles: profiles,
		trial:    trial,
		ledger:   ledger,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create meters and creates a document. Free-plan callers pass the trial
// gate before creation and are counted after it; paid callers spend a credit
// first and are refunded if creation fails. Policy denials are returned in
// Outcome.Decision, not as errors.
func (svc *Service) Create(ctx context.Context, userID id.UserID, draft models.Draft) (*Outcome, error) {
	user, err := svc.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "perfil não encontrado; conclua o cadastro")
		}
		svc.logger.ErrorContext(ctx, "failed to load profile for document creation",
			"error", err,
			"user_id", userID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return svc.deny(ctx, userID, draft, gate.Deny(gate.CodeUnavailable, gate.UnavailableMessage)), nil
	}

	if user.OnFreePlan() {
		return svc.createOnTrial(ctx, userID, draft)
	}
	return svc.createWithCredit(ctx, userID, draft)
}

func (svc *Service) createOnTrial(ctx context.Context, userID id.UserID, draft models.Draft) (*Outcome, error) {
	if decision := svc.trial.CheckEligibility(ctx, userID); !decision.Allowed {
		return svc.deny(ctx, userID, draft, decision), nil
	}

	doc := svc.newDocument(ctx, userID, draft, models.BillingTrial)
	if err := svc.store.Create(ctx, doc); err != nil {
		return nil, svc.createFailed(ctx, err, doc)
	}

	count, err := svc.trial.IncrementUsage(ctx, userID)
	if err != nil {
		// The document must not outlive a failed increment or the trial limit leaks.
		svc.rollbackDocument(ctx, doc)
		if dErrors.HasCode(err, dErrors.CodeTrialExhausted) {
			return svc.deny(ctx, userID, draft, gate.Deny(gate.CodeTrialExhausted, dErrorMessage(err))), nil
		}
		return nil, err
	}

	svc.countCreated(doc.Billing)
	return &Outcome{
		Decision:       gate.Allow(),
		Document:       doc,
		TrialRemaining: max(0, accountmodels.TrialLimit-count),
	}, nil
}

func (svc *Service) createWithCredit(ctx context.Context, userID id.UserID, draft models.Draft) (*Outcome, error) {
	result := svc.ledger.DeductCredit(ctx, userID, s.Truncate(usageDescriptionPrefix+draft.Title, maxUsageDescription))
	if !result.Success {
		decision := gate.Deny(gate.CodeNoCredits, creditsservice.NoCreditsMessage)
		if result.Code == "" {
			decision = gate.Deny(gate.CodeUnavailable, gate.UnavailableMessage)
		}
		outcome := svc.deny(ctx, userID, draft, decision)
		outcome.Credits = result.Credits
		return outcome, nil
	}

	doc := svc.newDocument(ctx, userID, draft, models.BillingCredit)
	if err := svc.store.Create(ctx, doc); err != nil {
		svc.refund(ctx, userID)
		return nil, svc.createFailed(ctx, err, doc)
	}

	svc.countCreated(doc.Billing)
	return &Outcome{Decision: gate.Allow(), Document: doc, Credits: result.Credits}, nil
}

// List returns the caller's most recent documents.
func (svc *Service) List(ctx context.Context, userID id.UserID) ([]*models.Document, error) {
	docs, err := svc.store.ListByUser(ctx, userID, defaultListLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

func (svc *Service) newDocument(ctx context.Context, userID id.UserID, draft models.Draft, billing models.Billing) *models.Document {
	return &models.Document{
		ID:        id.NewDocumentID(),
		UserID:    userID,
		Title:     draft.Title,
		Template:  draft.Template,
		Content:   draft.Content,
		Billing:   billing,
		CreatedAt: requestcontext.Now(ctx),
	}
}

func (svc *Service) deny(ctx context.Context, userID id.UserID, draft models.Draft, decision gate.Decision) *Outcome {
	svc.logger.InfoContext(ctx, "document creation denied",
		"log_type", "audit",
		"user_id", userID.String(),
		"template", draft.Template,
		"code", decision.Code,
		"request_id", requestcontext.RequestID(ctx),
	)
	if svc.metrics != nil {
		svc.metrics.IncrementDenied(string(decision.Code))
	}
	if svc.auditor != nil {
		event := audit.NewEvent(ctx, audit.ActionDocumentDenied)
		event.UserID = userID.String()
		event.Subject = draft.Template
		event.Decision = "denied"
		event.Reason = string(decision.Code)
		if err := svc.auditor.Emit(ctx, event); err != nil {
			svc.logger.WarnContext(ctx, "failed to emit audit event", "error", err, "action", event.Action)
		}
	}
	return &Outcome{Decision: decision}
}

func (svc *Service) refund(ctx context.Context, userID id.UserID) {
	_, err := svc.ledger.AddCredits(ctx, userID, 1, accountmodels.TransactionRefund, refundDescription)
	result := "success"
	if err != nil {
		result = "error"
		svc.logger.ErrorContext(ctx, "failed to refund credit after document creation failure",
			"error", err,
			"user_id", userID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if svc.metrics != nil {
		svc.metrics.IncrementRollback("refund", result)
	}
}

func (svc *Service) rollbackDocument(ctx context.Context, doc *models.Document) {
	err := svc.store.Delete(ctx, doc.UserID, doc.ID)
	result := "success"
	if err != nil {
		result = "error"
		svc.logger.ErrorContext(ctx, "failed to remove unmetered document",
			"error", err,
			"document_id", doc.ID.String(),
			"user_id", doc.UserID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if svc.metrics != nil {
		svc.metrics.IncrementRollback("delete", result)
	}
}

func (svc *Service) createFailed(ctx context.Context, err error, doc *models.Document) error {
	svc.logger.ErrorContext(ctx, "failed to create document",
		"error", err,
		"user_id", doc.UserID.String(),
		"billing", doc.Billing,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create document")
}

func (svc *Service) countCreated(billing models.Billing) {
	if svc.metrics != nil {
		svc.metrics.IncrementCreated(billing.String())
	}
}

func dErrorMessage(err error) string {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
