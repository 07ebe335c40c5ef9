package models

import (
	"net/mail"
	"strings"
	"time"

	id "termyx/pkg/domain"
	dErrors "termyx/pkg/domain-errors"
)

const (
	// DefaultIPWindow is the trailing window over which signups per IP are counted.
	DefaultIPWindow = 24 * time.Hour
	// DefaultIPMaxSignups is the count at which further signups from an IP are denied.
	DefaultIPMaxSignups = 3
)

// SignupAttempt is the input of the signup fraud gate.
// UserID is set when the attempt belongs to an already-authenticated account,
// so that account's own fingerprint records are not counted as reuse.
type SignupAttempt struct {
	Email           string
	IPAddress       string
	FingerprintHash string
	UserID          id.UserID
}

// Validate rejects attempts that cannot be evaluated. It makes no store calls.
func (a SignupAttempt) Validate() error {
	if _, err := EmailDomain(a.Email); err != nil {
		return err
	}
	return nil
}

// EmailDomain returns the lower-cased domain of a bare addr-spec. Display
// names and comments are rejected so the domain always matches what the
// mailbox resolves to.
func EmailDomain(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" {
		return "", dErrors.New(dErrors.CodeValidation, "email must be a valid email")
	}
	at := strings.LastIndex(addr.Address, "@")
	domain := strings.ToLower(addr.Address[at+1:])
	// the parser drops comments and angle brackets; the raw input must end in the same domain
	if domain == "" || !strings.HasSuffix(strings.ToLower(email), "@"+domain) {
		return "", dErrors.New(dErrors.CodeValidation, "email must be a valid email")
	}
	return domain, nil
}

// NormalizeDomain prepares a blocklist entry for exact matching.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))
}

// BlockedDomain is an entry of the disposable/abusive email domain blocklist.
type BlockedDomain struct {
	Domain string `yaml:"domain"`
	Reason string `yaml:"reason"`
}

// DeviceFingerprint is the append-only evidence that a device signed up as a user.
type DeviceFingerprint struct {
	ID              string
	FingerprintHash string
	UserID          id.UserID
	IPAddress       string
	UserAgent       string
	DeviceLabel     string
	CreatedAt       time.Time
}

// IPSignup is the append-only record of a signup originating from an IP.
type IPSignup struct {
	ID        string
	IPAddress string
	UserID    id.UserID
	CreatedAt time.Time
}
