package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"termyx/internal/fraud/models"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/sentinel"
)

// PostgresStore persists the blocklist and signup evidence in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed fraud store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) IsDomainBlocked(ctx context.Context, domain string) (bool, error) {
	var blocked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blocked_email_domains WHERE domain = $1)`, domain,
	).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("lookup blocked domain: %w", err)
	}
	return blocked, nil
}

func (s *PostgresStore) FingerprintUsedByOther(ctx context.Context, hash string, exclude id.UserID) (bool, error) {
	var used bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM device_fingerprints
			WHERE fingerprint_hash = $1 AND user_id <> $2
		)
	`, hash, uuid.UUID(exclude)).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("lookup fingerprint: %w", err)
	}
	return used, nil
}

func (s *PostgresStore) CountIPSignupsSince(ctx context.Context, ip string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ip_signups WHERE ip_address = $1 AND created_at > $2`, ip, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ip signups: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) RecordIPSignup(ctx context.Context, rec *models.IPSignup) error {
	if rec == nil || rec.IPAddress == "" {
		return fmt.Errorf("ip signup requires an address: %w", sentinel.ErrInvalidInput)
	}
	recID, createdAt := rec.ID, rec.CreatedAt
	fillDefaults(ctx, &recID, &createdAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ip_signups (id, ip_address, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, recID, rec.IPAddress, uuid.UUID(rec.UserID), createdAt)
	if err != nil {
		return fmt.Errorf("insert ip signup: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordFingerprint(ctx context.Context, fp *models.DeviceFingerprint) error {
	if fp == nil || fp.FingerprintHash == "" {
		return fmt.Errorf("fingerprint hash is required: %w", sentinel.ErrInvalidInput)
	}
	recID, createdAt := fp.ID, fp.CreatedAt
	fillDefaults(ctx, &recID, &createdAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_fingerprints (id, fingerprint_hash, user_id, ip_address, user_agent, device_label, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
	`, recID, fp.FingerprintHash, uuid.UUID(fp.UserID), fp.IPAddress, fp.UserAgent, fp.DeviceLabel, createdAt)
	if err != nil {
		return fmt.Errorf("insert fingerprint: %w", err)
	}
	return nil
}

// UpsertBlockedDomains writes all entries in one transaction.
func (s *PostgresStore) UpsertBlockedDomains(ctx context.Context, domains []models.BlockedDomain) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin blocklist tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op
	}()

	written := 0
	for _, d := range domains {
		domain := models.NormalizeDomain(d.Domain)
		if domain == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO blocked_email_domains (domain, reason) VALUES ($1, $2)
			ON CONFLICT (domain) DO UPDATE SET reason = EXCLUDED.reason
		`, domain, d.Reason)
		if err != nil {
			return 0, fmt.Errorf("upsert blocked domain %s: %w", domain, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit blocklist: %w", err)
	}
	return written, nil
}

func (s *PostgresStore) ListBlockedDomains(ctx context.Context) ([]models.BlockedDomain, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT domain, reason FROM blocked_email_domains ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("list blocked domains: %w", err)
	}
	defer rows.Close()

	var out []models.BlockedDomain
	for rows.Next() {
		var d models.BlockedDomain
		if err := rows.Scan(&d.Domain, &d.Reason); err != nil {
			return nil, fmt.Errorf("scan blocked domain: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocked domains: %w", err)
	}
	return out, nil
}
