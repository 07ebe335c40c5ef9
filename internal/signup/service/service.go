package service

import (
	"context"
	"errors"
	"log/slog"

	accountmodels "termyx/internal/account/models"
	"termyx/internal/audit"
	fraudmodels "termyx/internal/fraud/models"
	"termyx/internal/gate"
	id "termyx/pkg/domain"
	dErrors "termyx/pkg/domain-errors"
	"termyx/pkg/platform/privacy"
	"termyx/pkg/platform/sentinel"
	"termyx/pkg/requestcontext"
)

// FraudGate checks signup attempts and records the evidence of completed ones.
type FraudGate interface {
	CheckSignup(ctx context.Context, attempt fraudmodels.SignupAttempt) (gate.Decision, error)
	RecordSignup(ctx context.Context, userID id.UserID, ip, fingerprintHash, userAgent string)
}

// Profiles creates the billing profile of a new account.
type Profiles interface {
	EnsureProfile(ctx context.Context, userID id.UserID, email string) (*accountmodels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Completion is what a finished signup needs beyond the authenticated user id.
type Completion struct {
	Email           string
	FingerprintHash string
}

type Service struct {
	fraud    FraudGate
	profiles Profiles
	logger   *slog.Logger
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

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func New(fraud FraudGate, profiles Profiles, opts ...Option) *Service {
	s := &Service{
		fraud:    fraud,
		profiles: profiles,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check runs the fraud gate for a prospective signup. The client IP and, when
// the caller is already authenticated, the user id come from ctx.
func (s *Service) Check(ctx context.Context, email, fingerprintHash string) (gate.Decision, error) {
	return s.fraud.CheckSignup(ctx, fraudmodels.SignupAttempt{
		Email:           email,
		IPAddress:       requestcontext.ClientIP(ctx),
		FingerprintHash: s.fingerprint(ctx, fingerprintHash),
		UserID:          requestcontext.UserID(ctx),
	})
}

// Complete ensures the billing profile exists and records signup evidence.
// Evidence recording is best-effort; only the profile write can fail the call.
func (s *Service) Complete(ctx context.Context, userID id.UserID, in Completion) (*accountmodels.User, error) {
	email := requestcontext.UserEmail(ctx)
	if email == "" {
		email = in.Email
	}
	if _, err := fraudmodels.EmailDomain(email); err != nil {
		return nil, err
	}

	user, err := s.profiles.EnsureProfile(ctx, userID, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		s.logger.ErrorContext(ctx, "failed to ensure profile",
			"error", err,
			"user_id", userID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete signup")
	}

	ip := requestcontext.ClientIP(ctx)
	s.fraud.RecordSignup(ctx, userID, ip, s.fingerprint(ctx, in.FingerprintHash), requestcontext.UserAgent(ctx))

	s.logger.InfoContext(ctx, "signup completed",
		"log_type", "audit",
		"user_id", userID.String(),
		"ip_prefix", privacy.AnonymizeIP(ip),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.auditor != nil {
		event := audit.NewEvent(ctx, audit.ActionSignupRecorded)
		event.UserID = userID.String()
		event.Subject = privacy.MaskEmail(email)
		event.Decision = "recorded"
		if err := s.auditor.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event", "error", err, "action", event.Action)
		}
	}
	return user, nil
}

// fingerprint prefers the explicit value and falls back to the device header.
func (s *Service) fingerprint(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return requestcontext.DeviceFingerprint(ctx)
}
