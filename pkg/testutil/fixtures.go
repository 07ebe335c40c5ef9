package testutil

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	accountmodels "termyx/internal/account/models"
	documentmodels "termyx/internal/documents/models"
	fraudmodels "termyx/internal/fraud/models"
	id "termyx/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	UserID1     id.UserID
	UserID2     id.UserID
	DocumentID1 id.DocumentID
}{
	UserID1:     id.UserID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	UserID2:     id.UserID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	DocumentID1: id.DocumentID(uuid.MustParse("dddd0000-0000-0000-0000-000000000001")),
}

// UserBuilder provides a fluent interface for building billing profiles.
type UserBuilder struct {
	user *accountmodels.User
}

// NewUserBuilder creates a free-plan user with an unused trial.
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: &accountmodels.User{
			ID:        id.UserID(uuid.New()),
			Email:     "test@example.com.br",
			Plan:      accountmodels.FreePlan,
			CreatedAt: time.Now(),
		},
	}
}

func (b *UserBuilder) WithID(userID id.UserID) *UserBuilder {
	b.user.ID = userID
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

func (b *UserBuilder) OnPlan(slug string) *UserBuilder {
	b.user.Plan = slug
	return b
}

func (b *UserBuilder) WithCredits(credits int) *UserBuilder {
	b.user.Credits = credits
	return b
}

// WithTrialDocuments sets the trial counter; reaching the limit marks the trial used.
func (b *UserBuilder) WithTrialDocuments(count int) *UserBuilder {
	b.user.FreeTrialDocumentsCount = count
	b.user.FreeTrialUsed = count >= accountmodels.TrialLimit
	return b
}

func (b *UserBuilder) Build() *accountmodels.User {
	return b.user
}

// NewTestDocument creates a trial-billed document owned by userID.
func NewTestDocument(userID id.UserID, title string) *documentmodels.Document {
	return &documentmodels.Document{
		ID:        id.NewDocumentID(),
		UserID:    userID,
		Title:     title,
		Template:  "orcamento",
		Content:   json.RawMessage(`{"cliente":"Maria"}`),
		Billing:   documentmodels.BillingTrial,
		CreatedAt: time.Now(),
	}
}

// NewTestFingerprint creates fingerprint evidence for userID from a fixed IP.
func NewTestFingerprint(hash string, userID id.UserID) *fraudmodels.DeviceFingerprint {
	return &fraudmodels.DeviceFingerprint{
		FingerprintHash: hash,
		UserID:          userID,
		IPAddress:       "198.51.100.7",
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		DeviceLabel:     "Chrome on Windows",
	}
}
