package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"termyx/internal/account/models"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/sentinel"
	"termyx/pkg/requestcontext"
)

// PostgresStore persists billing profiles in PostgreSQL. Every balance or
// trial mutation is a single call to a server-side procedure so the row
// update and its transaction record commit together.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectUser = `
	SELECT u.id, u.email, u.credits, u.plan, COALESCE(p.name, u.plan),
	       u.free_trial_used, u.free_trial_documents_count, u.created_at
	FROM users u
	LEFT JOIN plans p ON p.slug = u.plan
`

func (s *PostgresStore) Save(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, credits, plan, free_trial_used, free_trial_documents_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			credits = EXCLUDED.credits,
			plan = EXCLUDED.plan,
			free_trial_used = EXCLUDED.free_trial_used,
			free_trial_documents_count = EXCLUDED.free_trial_documents_count
	`, uuid.UUID(user.ID), strings.ToLower(user.Email), user.Credits, user.Plan,
		user.FreeTrialUsed, user.FreeTrialDocumentsCount, requestcontext.Now(ctx))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("plan %q: %w", user.Plan, sentinel.ErrNotFound)
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` WHERE u.id = $1`, uuid.UUID(userID))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// EnsureProfile creates a free-plan profile with zero credits unless one exists.
func (s *PostgresStore) EnsureProfile(ctx context.Context, userID id.UserID, email string) (*models.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, credits, plan, free_trial_used, free_trial_documents_count, created_at)
		VALUES ($1, $2, 0, $3, false, 0, $4)
		ON CONFLICT (id) DO NOTHING
	`, uuid.UUID(userID), strings.ToLower(email), models.FreePlan, requestcontext.Now(ctx))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email already registered: %w", sentinel.ErrAlreadyUsed)
		}
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return s.FindByID(ctx, userID)
}

func (s *PostgresStore) SetPlan(ctx context.Context, userID id.UserID, slug string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET plan = $2 WHERE id = $1`, uuid.UUID(userID), slug)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("plan %q: %w", slug, sentinel.ErrNotFound)
		}
		return fmt.Errorf("set plan: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set plan rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

// DeductCredit calls deduct_credit, which locks the row, refuses at a zero
// balance, decrements, and writes the usage transaction.
func (s *PostgresStore) DeductCredit(ctx context.Context, userID id.UserID, description string) (int, error) {
	var deducted bool
	var balance int
	err := s.db.QueryRowContext(ctx,
		`SELECT deducted, balance FROM deduct_credit($1, $2)`,
		uuid.UUID(userID), description,
	).Scan(&deducted, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return 0, fmt.Errorf("deduct credit: %w", err)
	}
	if !deducted {
		return balance, fmt.Errorf("deduct credit: %w", sentinel.ErrInsufficientCredits)
	}
	return balance, nil
}

// AddCredits calls add_credits, which increments and logs in one statement.
func (s *PostgresStore) AddCredits(ctx context.Context, userID id.UserID, amount int, txType models.TransactionType, description string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive: %w", sentinel.ErrInvalidInput)
	}
	var balance sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT add_credits($1, $2, $3, $4)`,
		uuid.UUID(userID), amount, string(txType), description,
	).Scan(&balance)
	if err != nil {
		if isCheckViolation(err) {
			return 0, fmt.Errorf("transaction type %q: %w", txType, sentinel.ErrInvalidInput)
		}
		return 0, fmt.Errorf("add credits: %w", err)
	}
	if !balance.Valid {
		return 0, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	return int(balance.Int64), nil
}

// IncrementTrialDocuments calls increment_trial_documents, which compares and
// increments under a row lock and derives free_trial_used in the same update.
func (s *PostgresStore) IncrementTrialDocuments(ctx context.Context, userID id.UserID, limit int) (int, error) {
	var incremented bool
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT incremented, documents_count FROM increment_trial_documents($1, $2)`,
		uuid.UUID(userID), limit,
	).Scan(&incremented, &count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return 0, fmt.Errorf("increment trial documents: %w", err)
	}
	if !incremented {
		return count, fmt.Errorf("increment trial documents: %w", sentinel.ErrLimitReached)
	}
	return count, nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context, userID id.UserID, limit int) ([]*models.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, type, description, balance_after, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, uuid.UUID(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.CreditTransaction
	for rows.Next() {
		var (
			txID, uid   uuid.UUID
			txType      string
			description sql.NullString
			tx          models.CreditTransaction
		)
		if err := rows.Scan(&txID, &uid, &tx.Amount, &txType, &description, &tx.BalanceAfter, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.ID = id.TransactionID(txID)
		tx.UserID = id.UserID(uid)
		tx.Type = models.TransactionType(txType)
		tx.Description = description.String
		out = append(out, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		uid  uuid.UUID
		user models.User
	)
	if err := row.Scan(&uid, &user.Email, &user.Credits, &user.Plan, &user.PlanName,
		&user.FreeTrialUsed, &user.FreeTrialDocumentsCount, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.ID = id.UserID(uid)
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}
