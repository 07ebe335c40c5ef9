package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termyx/internal/fraud/models"
	"termyx/internal/fraud/service"
	"termyx/internal/fraud/store"
	"termyx/internal/gate"
	id "termyx/pkg/domain"
	dErrors "termyx/pkg/domain-errors"
	"termyx/pkg/requestcontext"
)

func newGate(t *testing.T) (*service.Service, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemory()
	_, err := st.UpsertBlockedDomains(context.Background(), []models.BlockedDomain{
		{Domain: "mailinator.com", Reason: "descartável"},
	})
	require.NoError(t, err)
	return service.New(st), st
}

func TestSignupScenarios(t *testing.T) {
	ctx := context.Background()
	svc, _ := newGate(t)

	decision, err := svc.CheckSignup(ctx, models.SignupAttempt{Email: "user@mailinator.com"})
	require.NoError(t, err)
	assert.Equal(t, gate.Decision{Allowed: false, Code: gate.CodeBlockedEmail, Reason: decision.Reason}, decision)

	decision, err = svc.CheckSignup(ctx, models.SignupAttempt{Email: "user@gmail.com", IPAddress: "198.51.100.20"})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestBlockedDomainIsExactMatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newGate(t)

	for _, email := range []string{"a@mailinator.com.br", "a@notmailinator.com", "a@sub.mailinator.com"} {
		decision, err := svc.CheckSignup(ctx, models.SignupAttempt{Email: email})
		require.NoError(t, err)
		assert.True(t, decision.Allowed, email)
	}
}

func TestBlockedDomainCannotHideBehindDisplayName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newGate(t)

	for _, email := range []string{"Joe <user@mailinator.com>", "user@mailinator.com (x)"} {
		decision, err := svc.CheckSignup(ctx, models.SignupAttempt{Email: email})
		require.Error(t, err, email)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), email)
		assert.False(t, decision.Allowed, email)
	}
}

func TestFingerprintSelfReuseIsAllowed(t *testing.T) {
	svc, _ := newGate(t)
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	svc.RecordFingerprint(ctx, "device-a", owner, "", "")

	decision, err := svc.CheckSignup(ctx, models.SignupAttempt{Email: "me@gmail.com", FingerprintHash: "device-a", UserID: owner})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = svc.CheckSignup(ctx, models.SignupAttempt{Email: "other@gmail.com", FingerprintHash: "device-a", UserID: id.UserID(uuid.New())})
	require.NoError(t, err)
	assert.Equal(t, gate.CodeFingerprintUsed, decision.Code)
}

func TestIPWindowIgnoresOldRecords(t *testing.T) {
	svc, st := newGate(t)
	now := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ip := "203.0.113.50"

	for i := 0; i < 5; i++ {
		require.NoError(t, st.RecordIPSignup(ctx, &models.IPSignup{
			IPAddress: ip,
			UserID:    id.UserID(uuid.New()),
			CreatedAt: now.Add(-25 * time.Hour),
		}))
	}

	for n := 0; n < 3; n++ {
		decision, err := svc.CheckSignup(ctx, models.SignupAttempt{Email: fmt.Sprintf("u%d@gmail.com", n), IPAddress: ip})
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "n=%d", n)
		svc.RecordSignupIP(ctx, ip, id.UserID(uuid.New()))
	}

	decision, err := svc.CheckSignup(ctx, models.SignupAttempt{Email: "u4@gmail.com", IPAddress: ip})
	require.NoError(t, err)
	assert.Equal(t, gate.CodeIPAbuse, decision.Code)
}

func TestCheckOrderFirstFailureWins(t *testing.T) {
	svc, st := newGate(t)
	ctx := context.Background()
	ip := "203.0.113.60"
	for i := 0; i < 3; i++ {
		require.NoError(t, st.RecordIPSignup(ctx, &models.IPSignup{IPAddress: ip, UserID: id.UserID(uuid.New())}))
	}
	svc.RecordFingerprint(ctx, "shared", id.UserID(uuid.New()), "", "")

	decision, err := svc.CheckSignup(ctx, models.SignupAttempt{Email: "x@mailinator.com", IPAddress: ip, FingerprintHash: "shared"})
	require.NoError(t, err)
	assert.Equal(t, gate.CodeBlockedEmail, decision.Code)

	decision, err = svc.CheckSignup(ctx, models.SignupAttempt{Email: "x@gmail.com", IPAddress: ip, FingerprintHash: "shared"})
	require.NoError(t, err)
	assert.Equal(t, gate.CodeFingerprintUsed, decision.Code)

	decision, err = svc.CheckSignup(ctx, models.SignupAttempt{Email: "x@gmail.com", IPAddress: ip})
	require.NoError(t, err)
	assert.Equal(t, gate.CodeIPAbuse, decision.Code)
}
