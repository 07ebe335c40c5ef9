package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"termyx/internal/account/models"
	"termyx/internal/gate"
	id "termyx/pkg/domain"
	dErrors "termyx/pkg/domain-errors"
	"termyx/pkg/platform/sentinel"
	"termyx/pkg/requestcontext"
)

// GateName labels the free-trial gate in logs, metrics and spans.
const GateName = "free_trial"

// Store is the account surface used by the trial gate.
type Store interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	IncrementTrialDocuments(ctx context.Context, userID id.UserID, limit int) (int, error)
}

// Status is the caller-facing view of a user's trial.
type Status struct {
	Plan      string `json:"plan"`
	OnTrial   bool   `json:"on_trial"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Exhausted bool   `json:"exhausted"`
}

// Service decides whether a free-plan user may create another document and
// meters trial usage. Paid plans bypass it entirely.
type Service struct {
	store  Store
	runner *gate.Runner
	logger *slog.Logger
	limit  int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRunner(r *gate.Runner) Option {
	return func(s *Service) {
		if r != nil {
			s.runner = r
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		limit:  models.TrialLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = gate.NewRunner(gate.WithLogger(s.logger))
	}
	return s
}

// ExhaustedMessage is the user-facing denial text for an exhausted trial.
func ExhaustedMessage(limit int) string {
	return fmt.Sprintf("Você já usou os %d documentos gratuitos do seu teste. Adquira créditos para continuar.", limit)
}

// CheckEligibility is the boundary of the trial gate. Store failures fail
// closed because admitting the request would give away a free document.
func (s *Service) CheckEligibility(ctx context.Context, userID id.UserID) gate.Decision {
	return s.runner.Run(ctx, GateName, gate.FailClosed, func(ctx context.Context) (gate.Decision, error) {
		user, err := s.store.FindByID(ctx, userID)
		if err != nil {
			return gate.Decision{}, err
		}
		return s.Evaluate(user), nil
	})
}

// Evaluate is the pure decision over an already-fetched profile.
func (s *Service) Evaluate(user *models.User) gate.Decision {
	if !user.OnFreePlan() {
		return gate.Allow()
	}
	if user.FreeTrialDocumentsCount < s.limit {
		return gate.Allow()
	}
	return gate.Deny(gate.CodeTrialExhausted, ExhaustedMessage(s.limit))
}

// IncrementUsage records one trial document through the store's atomic
// compare-and-increment and returns the new count.
func (s *Service) IncrementUsage(ctx context.Context, userID id.UserID) (int, error) {
	count, err := s.store.IncrementTrialDocuments(ctx, userID, s.limit)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrLimitReached):
			return count, dErrors.New(dErrors.CodeTrialExhausted, ExhaustedMessage(s.limit))
		case errors.Is(err, sentinel.ErrNotFound):
			return 0, dErrors.New(dErrors.CodeNotFound, "user not found")
		default:
			s.logger.ErrorContext(ctx, "failed to increment trial usage",
				"error", err,
				"user_id", userID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record trial usage")
		}
	}
	return count, nil
}

// Status reports trial usage for the caller.
func (s *Service) Status(ctx context.Context, userID id.UserID) (*Status, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load trial status")
	}
	status := &Status{
		Plan:    user.Plan,
		OnTrial: user.OnFreePlan(),
		Used:    user.FreeTrialDocumentsCount,
		Limit:   s.limit,
	}
	if status.OnTrial {
		status.Remaining = user.TrialRemaining()
		status.Exhausted = status.Remaining == 0
	}
	return status, nil
}
