package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"termyx/internal/documents/models"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/sentinel"
)

// PostgresStore persists documents in PostgreSQL. Content is stored as jsonb.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	content := doc.Content
	if len(content) == 0 {
		content = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, title, template, content, billing, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	`, uuid.UUID(doc.ID), uuid.UUID(doc.UserID), doc.Title, doc.Template, string(content),
		doc.Billing.String(), doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, template, content, billing, created_at
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, uuid.UUID(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var (
			docID, ownerID uuid.UUID
			content        []byte
			billing        string
			doc            models.Document
		)
		if err := rows.Scan(&docID, &ownerID, &doc.Title, &doc.Template, &content, &billing, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.ID = id.DocumentID(docID)
		doc.UserID = id.UserID(ownerID)
		doc.Content = content
		doc.Billing = models.Billing(billing)
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID, docID id.DocumentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND user_id = $2`,
		uuid.UUID(docID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	return nil
}
