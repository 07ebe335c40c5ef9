package store

import (
	"context"
	"slices"
	"sync"

	"termyx/internal/documents/models"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in process memory, grouped by owner.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[id.UserID][]*models.Document
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[id.UserID][]*models.Document)}
}

func (s *InMemoryStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *doc
	s.byUser[doc.UserID] = append(s.byUser[doc.UserID], &stored)
	return nil
}

// ListByUser returns the newest documents first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, limit int) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.byUser[userID]
	out := make([]*models.Document, 0, min(len(docs), limit))
	for i := len(docs) - 1; i >= 0 && len(out) < limit; i-- {
		d := *docs[i]
		out = append(out, &d)
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID, docID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.byUser[userID]
	idx := slices.IndexFunc(docs, func(d *models.Document) bool { return d.ID == docID })
	if idx < 0 {
		return sentinel.ErrNotFound
	}
	s.byUser[userID] = slices.Delete(docs, idx, idx+1)
	return nil
}
