package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"termyx/internal/account/models"
	"termyx/internal/audit"
	"termyx/internal/credits/metrics"
	"termyx/internal/gate"
	id "termyx/pkg/domain"
	dErrors "termyx/pkg/domain-errors"
	"termyx/pkg/platform/sentinel"
	"termyx/pkg/requestcontext"
)

// Store is the ledger surface. DeductCredit and AddCredits must be atomic:
// the balance change and its transaction record commit together.
type Store interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	DeductCredit(ctx context.Context, userID id.UserID, description string) (int, error)
	AddCredits(ctx context.Context, userID id.UserID, amount int, txType models.TransactionType, description string) (int, error)
	ListTransactions(ctx context.Context, userID id.UserID, limit int) ([]*models.CreditTransaction, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Balance is the result of CheckCredits. The zero value is the fail-closed answer.
type Balance struct {
	HasCredits bool   `json:"has_credits"`
	Credits    int    `json:"credits"`
	Plan       string `json:"plan"`
	PlanName   string `json:"plan_name"`
}

// Result is the outcome of a ledger mutation. On failure Credits carries the
// balance before the operation when it is known; callers never adjust it locally.
type Result struct {
	Success bool      `json:"success"`
	Credits int       `json:"credits"`
	Code    gate.Code `json:"code,omitempty"`
}

// Overview is the balance plus recent ledger entries.
type Overview struct {
	Balance      Balance
	Transactions []*models.CreditTransaction
}

const (
	NoCreditsMessage        = "Você não tem créditos suficientes. Adquira um pacote para continuar."
	defaultUsageDescription = "Geração de documento"
	recentTransactions      = 20
	maxDescriptionLength    = 200
)

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
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

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckCredits reads the balance and plan. Any failure yields the zero
// Balance so spending decisions fail closed.
func (s *Service) CheckCredits(ctx context.Context, userID id.UserID) Balance {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "credit check failed closed",
			"error", err,
			"user_id", userID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		if s.metrics != nil {
			s.metrics.IncrementCheckFailure()
		}
		return Balance{}
	}
	return Balance{
		HasCredits: user.Credits > 0,
		Credits:    user.Credits,
		Plan:       user.Plan,
		PlanName:   user.PlanName,
	}
}

// DeductCredit spends one credit through the store's atomic primitive.
func (s *Service) DeductCredit(ctx context.Context, userID id.UserID, description string) Result {
	start := time.Now()
	defer s.observe("deduct", start)

	if description = strings.TrimSpace(description); description == "" {
		description = defaultUsageDescription
	}

	balance, err := s.store.DeductCredit(ctx, userID, description)
	if err == nil {
		s.countDeduction("success")
		return Result{Success: true, Credits: balance}
	}

	if errors.Is(err, sentinel.ErrInsufficientCredits) {
		s.countDeduction("insufficient")
		return Result{Success: false, Credits: balance, Code: gate.CodeNoCredits}
	}

	s.countDeduction("error")
	s.logger.ErrorContext(ctx, "credit deduction failed",
		"error", err,
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return Result{Success: false, Credits: s.knownBalance(ctx, userID)}
}

// AddCredits grants credits through the store's atomic add-and-log primitive.
// Invalid input is returned as a validation error without touching the store.
func (s *Service) AddCredits(ctx context.Context, userID id.UserID, amount int, txType models.TransactionType, description string) (Result, error) {
	start := time.Now()
	defer s.observe("add", start)

	if amount <= 0 {
		return Result{}, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if !txType.IsGrant() {
		return Result{}, dErrors.New(dErrors.CodeValidation, "type must be one of [purchase bonus refund]")
	}
	description = strings.TrimSpace(description)
	if len(description) > maxDescriptionLength {
		return Result{}, dErrors.New(dErrors.CodeValidation, "description must be at most 200 characters")
	}

	balance, err := s.store.AddCredits(ctx, userID, amount, txType, description)
	if err != nil {
		result := Result{Success: false, Credits: s.knownBalance(ctx, userID)}
		if errors.Is(err, sentinel.ErrNotFound) {
			return result, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		s.logger.ErrorContext(ctx, "credit grant failed",
			"error", err,
			"user_id", userID.String(),
			"type", txType,
			"request_id", requestcontext.RequestID(ctx),
		)
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add credits")
	}

	if s.metrics != nil {
		s.metrics.AddGranted(txType.String(), amount)
	}
	s.emitGrant(ctx, userID, amount, txType, description)
	return Result{Success: true, Credits: balance}, nil
}

// Overview returns the balance and the most recent transactions.
func (s *Service) Overview(ctx context.Context, userID id.UserID) (*Overview, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	txs, err := s.store.ListTransactions(ctx, userID, recentTransactions)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transactions")
	}
	return &Overview{
		Balance: Balance{
			HasCredits: user.Credits > 0,
			Credits:    user.Credits,
			Plan:       user.Plan,
			PlanName:   user.PlanName,
		},
		Transactions: txs,
	}, nil
}

// knownBalance re-reads the balance for failure results; 0 when unknown.
func (s *Service) knownBalance(ctx context.Context, userID id.UserID) int {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return 0
	}
	return user.Credits
}

func (s *Service) emitGrant(ctx context.Context, userID id.UserID, amount int, txType models.TransactionType, description string) {
	if s.auditor == nil {
		return
	}
	action := audit.ActionCreditsGranted
	if txType == models.TransactionRefund {
		action = audit.ActionCreditRefunded
	}
	event := audit.NewEvent(ctx, action)
	event.UserID = userID.String()
	event.Subject = fmt.Sprintf("%s:%d", txType, amount)
	event.Decision = "granted"
	event.Reason = description
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}

func (s *Service) countDeduction(result string) {
	if s.metrics != nil {
		s.metrics.IncrementDeduction(result)
	}
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, float64(time.Since(start).Milliseconds()))
	}
}
