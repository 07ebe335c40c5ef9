package models

import (
	"time"

	id "termyx/pkg/domain"
)

// FreePlan is the slug of the plan that is metered by the free trial
// instead of by credits.
const FreePlan = "free"

// TrialLimit is the number of documents a free-plan user may create.
const TrialLimit = 2

// User is the billing profile of an account. The identity itself lives with
// the auth provider; this row carries the balance and trial counters.
type User struct {
	ID                      id.UserID
	Email                   string
	Credits                 int
	Plan                    string
	PlanName                string
	FreeTrialUsed           bool
	FreeTrialDocumentsCount int
	CreatedAt               time.Time
}

// OnFreePlan reports whether the user is metered by the free trial.
func (u *User) OnFreePlan() bool {
	return u.Plan == FreePlan
}

// TrialRemaining is the number of trial documents still available.
func (u *User) TrialRemaining() int {
	if !u.OnFreePlan() {
		return 0
	}
	return max(0, TrialLimit-u.FreeTrialDocumentsCount)
}

// Plan is a subscription plan. Slug is the stable key, Name is shown to users.
type Plan struct {
	Slug string
	Name string
}

// TransactionType classifies a balance change for downstream reporting.
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionBonus    TransactionType = "bonus"
	TransactionRefund   TransactionType = "refund"
	TransactionUsage    TransactionType = "usage"
)

// IsGrant reports whether the type can be used to add credits.
// Usage transactions are only written by the deduction primitive.
func (t TransactionType) IsGrant() bool {
	switch t {
	case TransactionPurchase, TransactionBonus, TransactionRefund:
		return true
	default:
		return false
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// CreditTransaction is the audit trail entry for one balance change.
type CreditTransaction struct {
	ID           id.TransactionID
	UserID       id.UserID
	Amount       int
	Type         TransactionType
	Description  string
	BalanceAfter int
	CreatedAt    time.Time
}
