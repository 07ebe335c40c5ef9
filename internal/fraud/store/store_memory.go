package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"termyx/internal/fraud/models"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/sentinel"
	"termyx/pkg/requestcontext"
)

// InMemoryStore keeps the blocklist and signup evidence in process memory.
type InMemoryStore struct {
	mu           sync.RWMutex
	blocked      map[string]models.BlockedDomain
	fingerprints map[string][]*models.DeviceFingerprint // fingerprint hash -> records
	ipSignups    map[string][]*models.IPSignup          // ip -> records
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		blocked:      make(map[string]models.BlockedDomain),
		fingerprints: make(map[string][]*models.DeviceFingerprint),
		ipSignups:    make(map[string][]*models.IPSignup),
	}
}

func (s *InMemoryStore) IsDomainBlocked(_ context.Context, domain string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocked[domain]
	return ok, nil
}

// FingerprintUsedByOther reports whether any record with the hash belongs to
// a user other than exclude. A nil exclude matches every user.
func (s *InMemoryStore) FingerprintUsedByOther(_ context.Context, hash string, exclude id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fp := range s.fingerprints[hash] {
		if fp.UserID != exclude {
			return true, nil
		}
	}
	return false, nil
}

// CountIPSignupsSince counts records for ip created strictly after since.
func (s *InMemoryStore) CountIPSignupsSince(_ context.Context, ip string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, rec := range s.ipSignups[ip] {
		if rec.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) RecordIPSignup(ctx context.Context, rec *models.IPSignup) error {
	if rec == nil || rec.IPAddress == "" {
		return fmt.Errorf("ip signup requires an address: %w", sentinel.ErrInvalidInput)
	}
	cp := *rec
	fillDefaults(ctx, &cp.ID, &cp.CreatedAt)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ipSignups[cp.IPAddress] = append(s.ipSignups[cp.IPAddress], &cp)
	return nil
}

func (s *InMemoryStore) RecordFingerprint(ctx context.Context, fp *models.DeviceFingerprint) error {
	if fp == nil || fp.FingerprintHash == "" {
		return fmt.Errorf("fingerprint hash is required: %w", sentinel.ErrInvalidInput)
	}
	cp := *fp
	fillDefaults(ctx, &cp.ID, &cp.CreatedAt)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprints[cp.FingerprintHash] = append(s.fingerprints[cp.FingerprintHash], &cp)
	return nil
}

// UpsertBlockedDomains inserts or updates blocklist entries and returns how many were written.
func (s *InMemoryStore) UpsertBlockedDomains(_ context.Context, domains []models.BlockedDomain) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	written := 0
	for _, d := range domains {
		domain := models.NormalizeDomain(d.Domain)
		if domain == "" {
			continue
		}
		s.blocked[domain] = models.BlockedDomain{Domain: domain, Reason: d.Reason}
		written++
	}
	return written, nil
}

func (s *InMemoryStore) ListBlockedDomains(_ context.Context) ([]models.BlockedDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.BlockedDomain, 0, len(s.blocked))
	for _, d := range s.blocked {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out, nil
}

func fillDefaults(ctx context.Context, recID *string, createdAt *time.Time) {
	if *recID == "" {
		*recID = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = requestcontext.Now(ctx)
	}
}
