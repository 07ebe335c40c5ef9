package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrialRemaining(t *testing.T) {
	tests := []struct {
		name string
		user User
		want int
	}{
		{name: "fresh free user", user: User{Plan: FreePlan}, want: 2},
		{name: "one used", user: User{Plan: FreePlan, FreeTrialDocumentsCount: 1}, want: 1},
		{name: "exhausted", user: User{Plan: FreePlan, FreeTrialDocumentsCount: 2}, want: 0},
		{name: "over limit never negative", user: User{Plan: FreePlan, FreeTrialDocumentsCount: 5}, want: 0},
		{name: "paid plan has no trial", user: User{Plan: "pro"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.TrialRemaining())
		})
	}
}

func TestTransactionTypeIsGrant(t *testing.T) {
	assert.True(t, TransactionPurchase.IsGrant())
	assert.True(t, TransactionBonus.IsGrant())
	assert.True(t, TransactionRefund.IsGrant())
	assert.False(t, TransactionUsage.IsGrant())
	assert.False(t, TransactionType("gift").IsGrant())
}
