package service

import (
	"context"
	"time"

	"termyx/internal/audit"
	"termyx/internal/fraud/models"
	id "termyx/pkg/domain"
)

// Store is the read/append surface the fraud gate needs.
// Lookups never mutate; recording is append-only.
type Store interface {
	IsDomainBlocked(ctx context.Context, domain string) (bool, error)
	FingerprintUsedByOther(ctx context.Context, hash string, exclude id.UserID) (bool, error)
	CountIPSignupsSince(ctx context.Context, ip string, since time.Time) (int, error)
	RecordIPSignup(ctx context.Context, rec *models.IPSignup) error
	RecordFingerprint(ctx context.Context, fp *models.DeviceFingerprint) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
