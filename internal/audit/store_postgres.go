package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore appends audit events to the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var userID any
	if parsed, err := uuid.Parse(event.UserID); err == nil {
		userID = parsed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, action, subject, user_id, decision, reason, ip_prefix, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.New(), string(event.Action), event.Subject, userID, event.Decision, event.Reason,
		event.IPPrefix, event.RequestID, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Event, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT action, subject, decision, reason, ip_prefix, request_id, occurred_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e := Event{UserID: userID}
		var action string
		if err := rows.Scan(&action, &e.Subject, &e.Decision, &e.Reason, &e.IPPrefix, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
