package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termyx/internal/account/models"
	"termyx/internal/account/store"
	"termyx/internal/credits/service"
	"termyx/internal/gate"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/sentinel"
	"termyx/pkg/testutil"
)

func seedUser(t *testing.T, st *store.InMemoryStore, credits int) id.UserID {
	t.Helper()
	user := testutil.NewUserBuilder().OnPlan("basic").WithCredits(credits).Build()
	require.NoError(t, st.Save(context.Background(), user))
	return user.ID
}

func TestDeductCreditAgainstLedger(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory()
	svc := service.New(st)
	userID := seedUser(t, st, 1)

	first := svc.DeductCredit(ctx, userID, "Contrato")
	assert.Equal(t, service.Result{Success: true, Credits: 0}, first)

	second := svc.DeductCredit(ctx, userID, "Contrato")
	assert.False(t, second.Success)
	assert.Equal(t, gate.CodeNoCredits, second.Code)

	txs, err := st.ListTransactions(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, -1, txs[0].Amount)
	assert.Equal(t, models.TransactionUsage, txs[0].Type)
	assert.Equal(t, 0, txs[0].BalanceAfter)
}

func TestConcurrentDeductionsNeverOverspend(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory()
	svc := service.New(st)
	userID := seedUser(t, st, 5)

	result := testutil.RunConcurrent(20, func(int) error {
		return spendErr(svc.DeductCredit(ctx, userID, "doc"))
	})

	assert.Equal(t, int32(5), result.Successes)
	assert.Equal(t, int32(15), result.Refusals)
	assert.Equal(t, int32(0), result.Errors)

	balance := svc.CheckCredits(ctx, userID)
	assert.Equal(t, 0, balance.Credits)
	assert.False(t, balance.HasCredits)
}

func TestAddThenSpend(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory()
	svc := service.New(st)
	userID := seedUser(t, st, 0)

	granted, err := svc.AddCredits(ctx, userID, 3, models.TransactionPurchase, "Pacote inicial")
	require.NoError(t, err)
	assert.Equal(t, 3, granted.Credits)

	spent := svc.DeductCredit(ctx, userID, "doc")
	assert.Equal(t, 2, spent.Credits)

	overview, err := svc.Overview(ctx, userID)
	require.NoError(t, err)
	require.Len(t, overview.Transactions, 2)
	assert.Equal(t, models.TransactionUsage, overview.Transactions[0].Type)
	assert.Equal(t, models.TransactionPurchase, overview.Transactions[1].Type)
}

func spendErr(r service.Result) error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("spend refused: %w", sentinel.ErrInsufficientCredits)
}
