package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Profiles,TrialGate,Ledger,AuditPublisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	accountmodels "termyx/internal/account/models"
	"termyx/internal/audit"
	creditsservice "termyx/internal/credits/service"
	"termyx/internal/documents/models"
	"termyx/internal/documents/service/mocks"
	"termyx/internal/gate"
	id "termyx/pkg/domain"
	dErrors "termyx/pkg/domain-errors"
	"termyx/pkg/platform/sentinel"
	"termyx/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockStore    *mocks.MockStore
	mockProfiles *mocks.MockProfiles
	mockTrial    *mocks.MockTrialGate
	mockLedger   *mocks.MockLedger
	mockAuditor  *mocks.MockAuditPublisher
	service      *Service
	userID       id.UserID
	ctx          context.Context
	draft        models.Draft
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockProfiles = mocks.NewMockProfiles(s.ctrl)
	s.mockTrial = mocks.NewMockTrialGate(s.ctrl)
	s.mockLedger = mocks.NewMockLedger(s.ctrl)
	s.mockAuditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.service = New(s.mockStore, s.mockProfiles, s.mockTrial, s.mockLedger,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAuditor),
	)
	s.userID = id.UserID(uuid.New())
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.draft = models.Draft{Title: "Recibo de março", Template: "recibo", Content: json.RawMessage(`{"valor":"150,00"}`)}
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) profile(plan string) {
	s.mockProfiles.EXPECT().FindByID(gomock.Any(), s.userID).Return(&accountmodels.User{ID: s.userID, Plan: plan}, nil)
}

func (s *ServiceSuite) expectDeniedAudit(code gate.Code) {
	s.mockAuditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, event audit.Event) error {
		s.Equal(audit.ActionDocumentDenied, event.Action)
		s.Equal(string(code), event.Reason)
		s.Equal("recibo", event.Subject)
		return nil
	})
}

func (s *ServiceSuite) TestFreePlan() {
	s.Run("eligible user gets a trial document and is counted", func() {
		s.profile(accountmodels.FreePlan)
		gomock.InOrder(
			s.mockTrial.EXPECT().CheckEligibility(gomock.Any(), s.userID).Return(gate.Allow()),
			s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, doc *models.Document) error {
				s.Equal(models.BillingTrial, doc.Billing)
				s.Equal(s.userID, doc.UserID)
				s.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), doc.CreatedAt)
				return nil
			}),
			s.mockTrial.EXPECT().IncrementUsage(gomock.Any(), s.userID).Return(1, nil),
		)

		outcome, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.Require().NoError(err)
		s.True(outcome.Decision.Allowed)
		s.Equal(1, outcome.TrialRemaining)
		s.Equal("Recibo de março", outcome.Document.Title)
	})

	s.Run("exhausted trial is denied before anything is created", func() {
		s.profile(accountmodels.FreePlan)
		s.mockTrial.EXPECT().CheckEligibility(gomock.Any(), s.userID).
			Return(gate.Deny(gate.CodeTrialExhausted, "esgotado"))
		s.expectDeniedAudit(gate.CodeTrialExhausted)

		outcome, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.Require().NoError(err)
		s.False(outcome.Decision.Allowed)
		s.Equal(gate.CodeTrialExhausted, outcome.Decision.Code)
		s.Nil(outcome.Document)
	})

	s.Run("losing the increment race removes the document and denies", func() {
		s.profile(accountmodels.FreePlan)
		s.mockTrial.EXPECT().CheckEligibility(gomock.Any(), s.userID).Return(gate.Allow())
		var created *models.Document
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, doc *models.Document) error {
			created = doc
			return nil
		})
		s.mockTrial.EXPECT().IncrementUsage(gomock.Any(), s.userID).
			Return(2, dErrors.New(dErrors.CodeTrialExhausted, "esgotado"))
		s.mockStore.EXPECT().Delete(gomock.Any(), s.userID, gomock.Any()).DoAndReturn(func(_ context.Context, _ id.UserID, docID id.DocumentID) error {
			s.Equal(created.ID, docID)
			return nil
		})
		s.expectDeniedAudit(gate.CodeTrialExhausted)

		outcome, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.Require().NoError(err)
		s.Equal(gate.CodeTrialExhausted, outcome.Decision.Code)
		s.Equal("esgotado", outcome.Decision.Reason)
	})

	s.Run("increment infrastructure failure removes the document and errors", func() {
		s.profile(accountmodels.FreePlan)
		s.mockTrial.EXPECT().CheckEligibility(gomock.Any(), s.userID).Return(gate.Allow())
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockTrial.EXPECT().IncrementUsage(gomock.Any(), s.userID).
			Return(0, dErrors.Wrap(errors.New("conn reset"), dErrors.CodeInternal, "failed to record trial usage"))
		s.mockStore.EXPECT().Delete(gomock.Any(), s.userID, gomock.Any()).Return(nil)

		outcome, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.Nil(outcome)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("create failure does not count usage", func() {
		s.profile(accountmodels.FreePlan)
		s.mockTrial.EXPECT().CheckEligibility(gomock.Any(), s.userID).Return(gate.Allow())
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestPaidPlan() {
	s.Run("deducts a credit then creates", func() {
		s.profile("pro")
		gomock.InOrder(
			s.mockLedger.EXPECT().DeductCredit(gomock.Any(), s.userID, "Geração de documento: Recibo de março").
				Return(creditsservice.Result{Success: true, Credits: 4}),
			s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, doc *models.Document) error {
				s.Equal(models.BillingCredit, doc.Billing)
				return nil
			}),
		)

		outcome, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.Require().NoError(err)
		s.True(outcome.Decision.Allowed)
		s.Equal(4, outcome.Credits)
	})

	s.Run("no credits is denied", func() {
		s.profile("pro")
		s.mockLedger.EXPECT().DeductCredit(gomock.Any(), s.userID, gomock.Any()).
			Return(creditsservice.Result{Success: false, Credits: 0, Code: gate.CodeNoCredits})
		s.expectDeniedAudit(gate.CodeNoCredits)

		outcome, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.Require().NoError(err)
		s.Equal(gate.CodeNoCredits, outcome.Decision.Code)
		s.Equal(creditsservice.NoCreditsMessage, outcome.Decision.Reason)
	})

	s.Run("ledger failure is denied as unavailable", func() {
		s.profile("pro")
		s.mockLedger.EXPECT().DeductCredit(gomock.Any(), s.userID, gomock.Any()).
			Return(creditsservice.Result{Success: false, Credits: 3})
		s.expectDeniedAudit(gate.CodeUnavailable)

		outcome, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.Require().NoError(err)
		s.Equal(gate.CodeUnavailable, outcome.Decision.Code)
		s.Equal(3, outcome.Credits)
	})

	s.Run("create failure refunds the credit", func() {
		s.profile("pro")
		s.mockLedger.EXPECT().DeductCredit(gomock.Any(), s.userID, gomock.Any()).
			Return(creditsservice.Result{Success: true, Credits: 0})
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
		s.mockLedger.EXPECT().AddCredits(gomock.Any(), s.userID, 1, accountmodels.TransactionRefund, refundDescription).
			Return(creditsservice.Result{Success: true, Credits: 1}, nil)

		outcome, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.Nil(outcome)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("long titles are truncated in the ledger description", func() {
		s.profile("pro")
		draft := s.draft
		draft.Title = string(make([]rune, 300))
		s.mockLedger.EXPECT().DeductCredit(gomock.Any(), s.userID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.UserID, description string) creditsservice.Result {
				s.LessOrEqual(len([]rune(description)), maxUsageDescription)
				return creditsservice.Result{Success: true, Credits: 1}
			})
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.Create(s.ctx, s.userID, draft)
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestProfileLookup() {
	s.Run("unknown profile is not found", func() {
		s.mockProfiles.EXPECT().FindByID(gomock.Any(), s.userID).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("profile store failure fails closed", func() {
		s.mockProfiles.EXPECT().FindByID(gomock.Any(), s.userID).Return(nil, errors.New("timeout"))
		s.expectDeniedAudit(gate.CodeUnavailable)

		outcome, err := s.service.Create(s.ctx, s.userID, s.draft)
		s.Require().NoError(err)
		s.Equal(gate.CodeUnavailable, outcome.Decision.Code)
	})
}

func (s *ServiceSuite) TestList() {
	docs := []*models.Document{{ID: id.NewDocumentID(), UserID: s.userID, Title: "a"}}
	s.mockStore.EXPECT().ListByUser(gomock.Any(), s.userID, defaultListLimit).Return(docs, nil)

	got, err := s.service.List(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(docs, got)

	s.mockStore.EXPECT().ListByUser(gomock.Any(), s.userID, defaultListLimit).Return(nil, errors.New("boom"))
	_, err = s.service.List(s.ctx, s.userID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
