package service

import (
	"context"
	"log/slog"
	"time"

	"termyx/internal/audit"
	"termyx/internal/fraud/device"
	"termyx/internal/fraud/metrics"
	"termyx/internal/fraud/models"
	"termyx/internal/gate"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/privacy"
	"termyx/pkg/requestcontext"
)

// GateName labels the signup fraud gate in logs, metrics and spans.
const GateName = "signup_fraud"

const (
	msgBlockedEmail    = "Este provedor de e-mail não é aceito. Use um e-mail pessoal ou corporativo."
	msgFingerprintUsed = "Já existe uma conta criada a partir deste dispositivo."
	msgIPAbuse         = "Muitas contas foram criadas a partir desta rede recentemente. Tente novamente mais tarde."
)

// Service is the signup fraud gate and the recorder of signup evidence.
type Service struct {
	store      Store
	runner     *gate.Runner
	logger     *slog.Logger
	metrics    *metrics.Metrics
	auditor    AuditPublisher
	ipWindow   time.Duration
	ipMaxCount int
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

func WithRunner(r *gate.Runner) Option {
	return func(s *Service) {
		if r != nil {
			s.runner = r
		}
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithIPThreshold overrides the trailing window and the signup count that trips IP_ABUSE.
func WithIPThreshold(window time.Duration, maxSignups int) Option {
	return func(s *Service) {
		if window > 0 {
			s.ipWindow = window
		}
		if maxSignups > 0 {
			s.ipMaxCount = maxSignups
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		logger:     slog.Default(),
		ipWindow:   models.DefaultIPWindow,
		ipMaxCount: models.DefaultIPMaxSignups,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = gate.NewRunner(gate.WithLogger(s.logger))
	}
	return s
}

// CheckSignup is the boundary of the signup fraud gate. Malformed input is
// returned as a validation error before any store call; store failures fail
// open so a legitimate signup is never blocked by an outage.
func (s *Service) CheckSignup(ctx context.Context, attempt models.SignupAttempt) (gate.Decision, error) {
	if err := attempt.Validate(); err != nil {
		return gate.Decision{}, err
	}

	failedOpen := false
	decision := s.runner.Run(ctx, GateName, gate.FailOpen, func(ctx context.Context) (gate.Decision, error) {
		d, err := s.Evaluate(ctx, attempt)
		failedOpen = err != nil
		return d, err
	})

	code := "allowed"
	if decision.Denied() {
		code = decision.Code.String()
	}
	if s.metrics != nil {
		s.metrics.IncrementCheck(code)
	}

	switch {
	case failedOpen:
		s.emit(ctx, audit.ActionSignupFailOpen, attempt, decision)
	case decision.Denied():
		s.emit(ctx, audit.ActionSignupDenied, attempt, decision)
	}
	return decision, nil
}

// Evaluate runs the checks in order and returns the first denial. It is
// read-only and surfaces store errors to the caller untouched.
func (s *Service) Evaluate(ctx context.Context, attempt models.SignupAttempt) (gate.Decision, error) {
	domain, err := models.EmailDomain(attempt.Email)
	if err != nil {
		return gate.Decision{}, err
	}

	blocked, err := s.store.IsDomainBlocked(ctx, domain)
	if err != nil {
		return gate.Decision{}, err
	}
	if blocked {
		return gate.Deny(gate.CodeBlockedEmail, msgBlockedEmail), nil
	}

	if hash := device.NormalizeFingerprint(attempt.FingerprintHash); hash != "" {
		used, err := s.store.FingerprintUsedByOther(ctx, hash, attempt.UserID)
		if err != nil {
			return gate.Decision{}, err
		}
		if used {
			return gate.Deny(gate.CodeFingerprintUsed, msgFingerprintUsed), nil
		}
	}

	if attempt.IPAddress != "" {
		since := requestcontext.Now(ctx).Add(-s.ipWindow)
		count, err := s.store.CountIPSignupsSince(ctx, attempt.IPAddress, since)
		if err != nil {
			return gate.Decision{}, err
		}
		if count >= s.ipMaxCount {
			return gate.Deny(gate.CodeIPAbuse, msgIPAbuse), nil
		}
	}

	return gate.Allow(), nil
}

// RecordSignup persists the IP and device evidence of a completed signup.
// The two writes are independent; neither failure is reported to the caller.
func (s *Service) RecordSignup(ctx context.Context, userID id.UserID, ip, fingerprintHash, userAgent string) {
	s.RecordSignupIP(ctx, ip, userID)
	s.RecordFingerprint(ctx, fingerprintHash, userID, ip, userAgent)
}

// RecordSignupIP appends an IP signup record. Failures are logged and swallowed.
func (s *Service) RecordSignupIP(ctx context.Context, ip string, userID id.UserID) {
	if ip == "" {
		return
	}
	err := s.store.RecordIPSignup(ctx, &models.IPSignup{
		IPAddress: ip,
		UserID:    userID,
		CreatedAt: requestcontext.Now(ctx),
	})
	s.afterRecord(ctx, "ip", userID, ip, err)
}

// RecordFingerprint appends a device fingerprint record. Failures are logged and swallowed.
func (s *Service) RecordFingerprint(ctx context.Context, fingerprintHash string, userID id.UserID, ip, userAgent string) {
	hash := device.NormalizeFingerprint(fingerprintHash)
	if hash == "" {
		return
	}
	err := s.store.RecordFingerprint(ctx, &models.DeviceFingerprint{
		FingerprintHash: hash,
		UserID:          userID,
		IPAddress:       ip,
		UserAgent:       userAgent,
		DeviceLabel:     deviceLabel(userAgent),
		CreatedAt:       requestcontext.Now(ctx),
	})
	s.afterRecord(ctx, "fingerprint", userID, ip, err)
}

// deviceLabel tags automated clients so reviewers can tell scripted signups apart.
func deviceLabel(userAgent string) string {
	label := device.Label(userAgent)
	if device.IsBot(userAgent) {
		return label + " (automatizado)"
	}
	return label
}

func (s *Service) afterRecord(ctx context.Context, kind string, userID id.UserID, ip string, err error) {
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record signup evidence",
			"kind", kind,
			"error", err,
			"user_id", userID.String(),
			"ip_prefix", privacy.AnonymizeIP(ip),
			"request_id", requestcontext.RequestID(ctx),
		)
		if s.metrics != nil {
			s.metrics.IncrementRecordFailure(kind)
		}
		return
	}
	if s.metrics != nil {
		s.metrics.IncrementRecord(kind)
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, attempt models.SignupAttempt, decision gate.Decision) {
	if s.auditor == nil {
		return
	}
	event := audit.NewEvent(ctx, action)
	if !attempt.UserID.IsNil() {
		event.UserID = attempt.UserID.String()
	}
	event.Subject = privacy.MaskEmail(attempt.Email)
	event.Decision = "allowed"
	if decision.Denied() {
		event.Decision = decision.Code.String()
	}
	if attempt.IPAddress != "" {
		event.IPPrefix = privacy.AnonymizeIP(attempt.IPAddress)
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
