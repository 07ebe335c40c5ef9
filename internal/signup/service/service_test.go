package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks FraudGate,Profiles,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	accountmodels "termyx/internal/account/models"
	"termyx/internal/audit"
	fraudmodels "termyx/internal/fraud/models"
	"termyx/internal/gate"
	"termyx/internal/signup/service/mocks"
	id "termyx/pkg/domain"
	dErrors "termyx/pkg/domain-errors"
	"termyx/pkg/platform/sentinel"
	"termyx/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockFraud    *mocks.MockFraudGate
	mockProfiles *mocks.MockProfiles
	mockAuditor  *mocks.MockAuditPublisher
	service      *Service
	userID       id.UserID
	ctx          context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockFraud = mocks.NewMockFraudGate(s.ctrl)
	s.mockProfiles = mocks.NewMockProfiles(s.ctrl)
	s.mockAuditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.service = New(s.mockFraud, s.mockProfiles,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAuditor),
	)
	s.userID = id.UserID(uuid.New())
	s.ctx = requestcontext.WithClientMetadata(context.Background(), "203.0.113.7", "Mozilla/5.0 (iPhone)")
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) TestCheck() {
	s.Run("builds the attempt from the request context", func() {
		s.mockFraud.EXPECT().CheckSignup(gomock.Any(), fraudmodels.SignupAttempt{
			Email:           "ana@example.com",
			IPAddress:       "203.0.113.7",
			FingerprintHash: "abc123",
		}).Return(gate.Allow(), nil)

		decision, err := s.service.Check(s.ctx, "ana@example.com", "abc123")
		s.Require().NoError(err)
		s.True(decision.Allowed)
	})

	s.Run("falls back to the device header fingerprint", func() {
		ctx := requestcontext.WithDeviceFingerprint(s.ctx, "from-header")
		ctx = requestcontext.WithUserID(ctx, s.userID)
		s.mockFraud.EXPECT().CheckSignup(gomock.Any(), fraudmodels.SignupAttempt{
			Email:           "ana@example.com",
			IPAddress:       "203.0.113.7",
			FingerprintHash: "from-header",
			UserID:          s.userID,
		}).Return(gate.Deny(gate.CodeFingerprintUsed, "usado"), nil)

		decision, err := s.service.Check(ctx, "ana@example.com", "")
		s.Require().NoError(err)
		s.Equal(gate.CodeFingerprintUsed, decision.Code)
	})
}

func (s *ServiceSuite) TestComplete() {
	s.Run("creates the profile and records evidence", func() {
		ctx := requestcontext.WithUserEmail(s.ctx, "Ana@Example.com")
		gomock.InOrder(
			s.mockProfiles.EXPECT().EnsureProfile(gomock.Any(), s.userID, "Ana@Example.com").
				Return(&accountmodels.User{ID: s.userID, Plan: accountmodels.FreePlan}, nil),
			s.mockFraud.EXPECT().RecordSignup(gomock.Any(), s.userID, "203.0.113.7", "abc123", "Mozilla/5.0 (iPhone)"),
		)
		s.mockAuditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, event audit.Event) error {
			s.Equal(audit.ActionSignupRecorded, event.Action)
			s.Equal(s.userID.String(), event.UserID)
			s.NotContains(event.Subject, "Ana@")
			return nil
		})

		user, err := s.service.Complete(ctx, s.userID, Completion{Email: "ignored@example.com", FingerprintHash: "abc123"})
		s.Require().NoError(err)
		s.Equal(accountmodels.FreePlan, user.Plan)
	})

	s.Run("uses the body email without a token claim", func() {
		s.mockProfiles.EXPECT().EnsureProfile(gomock.Any(), s.userID, "bia@example.com").
			Return(&accountmodels.User{ID: s.userID}, nil)
		s.mockFraud.EXPECT().RecordSignup(gomock.Any(), s.userID, "203.0.113.7", "", gomock.Any())
		s.mockAuditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("buffer full"))

		_, err := s.service.Complete(s.ctx, s.userID, Completion{Email: "bia@example.com"})
		s.Require().NoError(err, "audit failures are swallowed")
	})

	s.Run("missing email is a validation error", func() {
		_, err := s.service.Complete(s.ctx, s.userID, Completion{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("email owned by another account conflicts", func() {
		s.mockProfiles.EXPECT().EnsureProfile(gomock.Any(), s.userID, "ana@example.com").
			Return(nil, sentinel.ErrAlreadyUsed)

		_, err := s.service.Complete(s.ctx, s.userID, Completion{Email: "ana@example.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("profile store failure is internal and records nothing", func() {
		s.mockProfiles.EXPECT().EnsureProfile(gomock.Any(), s.userID, "ana@example.com").
			Return(nil, errors.New("connection refused"))

		_, err := s.service.Complete(s.ctx, s.userID, Completion{Email: "ana@example.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
