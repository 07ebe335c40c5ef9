package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"termyx/internal/account/models"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/sentinel"
	psync "termyx/pkg/platform/sync"
	"termyx/pkg/requestcontext"
)

// InMemoryStore keeps billing profiles in process memory.
// Balance and trial mutations are serialized per user through a sharded
// mutex, which gives the same all-or-nothing behaviour as the Postgres
// procedures for a single process.
type InMemoryStore struct {
	mu           sync.RWMutex
	users        map[id.UserID]*models.User
	plans        map[string]models.Plan
	transactions map[id.UserID][]*models.CreditTransaction
	rowLocks     *psync.RowLocks[id.UserID]
}

// NewInMemory constructs an empty store with the default plans.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		users:        make(map[id.UserID]*models.User),
		plans:        defaultPlans(),
		transactions: make(map[id.UserID][]*models.CreditTransaction),
		rowLocks:     psync.NewRowLocks[id.UserID](),
	}
}

func defaultPlans() map[string]models.Plan {
	return map[string]models.Plan{
		models.FreePlan: {Slug: models.FreePlan, Name: "Gratuito"},
		"basic":         {Slug: "basic", Name: "Básico"},
		"pro":           {Slug: "pro", Name: "Profissional"},
	}
}

// Save inserts or replaces a profile. Intended for seeding and tests.
func (s *InMemoryStore) Save(_ context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	if plan, ok := s.plans[cp.Plan]; ok {
		cp.PlanName = plan.Name
	}
	s.users[user.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.lookup(userID)
	if err != nil {
		return nil, err
	}
	s.rowLocks.Lock(userID)
	defer s.rowLocks.Unlock(userID)
	cp := *user
	return &cp, nil
}

// EnsureProfile creates a free-plan profile with zero credits unless one exists.
func (s *InMemoryStore) EnsureProfile(ctx context.Context, userID id.UserID, email string) (*models.User, error) {
	s.mu.Lock()
	user, ok := s.users[userID]
	if !ok {
		user = &models.User{
			ID:        userID,
			Email:     strings.ToLower(email),
			Plan:      models.FreePlan,
			PlanName:  s.plans[models.FreePlan].Name,
			CreatedAt: requestcontext.Now(ctx),
		}
		s.users[userID] = user
	}
	s.mu.Unlock()

	s.rowLocks.Lock(userID)
	defer s.rowLocks.Unlock(userID)
	cp := *user
	return &cp, nil
}

// SetPlan moves a user to another plan.
func (s *InMemoryStore) SetPlan(_ context.Context, userID id.UserID, slug string) error {
	s.mu.RLock()
	plan, ok := s.plans[slug]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("plan %q: %w", slug, sentinel.ErrNotFound)
	}
	user, err := s.lookup(userID)
	if err != nil {
		return err
	}
	s.rowLocks.Lock(userID)
	defer s.rowLocks.Unlock(userID)
	user.Plan = plan.Slug
	user.PlanName = plan.Name
	return nil
}

// DeductCredit removes one credit and logs a usage transaction.
// Returns ErrInsufficientCredits when the balance is already zero.
func (s *InMemoryStore) DeductCredit(ctx context.Context, userID id.UserID, description string) (int, error) {
	user, err := s.lookup(userID)
	if err != nil {
		return 0, err
	}
	s.rowLocks.Lock(userID)
	defer s.rowLocks.Unlock(userID)

	if user.Credits <= 0 {
		return user.Credits, fmt.Errorf("deduct credit: %w", sentinel.ErrInsufficientCredits)
	}
	user.Credits--
	s.appendTransaction(ctx, userID, -1, models.TransactionUsage, description, user.Credits)
	return user.Credits, nil
}

// AddCredits grants credits and logs the transaction in the same critical section.
func (s *InMemoryStore) AddCredits(ctx context.Context, userID id.UserID, amount int, txType models.TransactionType, description string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive: %w", sentinel.ErrInvalidInput)
	}
	user, err := s.lookup(userID)
	if err != nil {
		return 0, err
	}
	s.rowLocks.Lock(userID)
	defer s.rowLocks.Unlock(userID)

	user.Credits += amount
	s.appendTransaction(ctx, userID, amount, txType, description, user.Credits)
	return user.Credits, nil
}

// IncrementTrialDocuments bumps the trial counter unless the limit is reached.
// Returns the new count, or ErrLimitReached with the current count.
func (s *InMemoryStore) IncrementTrialDocuments(_ context.Context, userID id.UserID, limit int) (int, error) {
	user, err := s.lookup(userID)
	if err != nil {
		return 0, err
	}
	s.rowLocks.Lock(userID)
	defer s.rowLocks.Unlock(userID)

	if user.FreeTrialDocumentsCount >= limit {
		return user.FreeTrialDocumentsCount, fmt.Errorf("increment trial documents: %w", sentinel.ErrLimitReached)
	}
	user.FreeTrialDocumentsCount++
	user.FreeTrialUsed = user.FreeTrialDocumentsCount >= limit
	return user.FreeTrialDocumentsCount, nil
}

// ListTransactions returns the newest transactions first.
func (s *InMemoryStore) ListTransactions(_ context.Context, userID id.UserID, limit int) ([]*models.CreditTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txs := s.transactions[userID]
	out := make([]*models.CreditTransaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		cp := *txs[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) lookup(userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	return user, nil
}

// appendTransaction must be called with the user's row lock held.
func (s *InMemoryStore) appendTransaction(ctx context.Context, userID id.UserID, amount int, txType models.TransactionType, description string, balanceAfter int) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[userID] = append(s.transactions[userID], &models.CreditTransaction{
		ID:           id.NewTransactionID(),
		UserID:       userID,
		Amount:       amount,
		Type:         txType,
		Description:  description,
		BalanceAfter: balanceAfter,
		CreatedAt:    now,
	})
}
