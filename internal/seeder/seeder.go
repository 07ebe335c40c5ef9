package seeder

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"termyx/internal/fraud/models"
)

//go:embed blocklist.yaml
var defaultBlocklist []byte

// defaultReason is used for entries that do not name one.
const defaultReason = "disposable"

// BlocklistStore defines methods for seeding the email domain blocklist.
type BlocklistStore interface {
	UpsertBlockedDomains(ctx context.Context, domains []models.BlockedDomain) (int, error)
}

// blocklistFile is the on-disk seed format.
type blocklistFile struct {
	Domains []models.BlockedDomain `yaml:"domains"`
}

// Seeder populates stores with reference data.
type Seeder struct {
	blocklist BlocklistStore
	logger    *slog.Logger
}

// New creates a new seeder
func New(blocklist BlocklistStore, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		blocklist: blocklist,
		logger:    logger,
	}
}

// SeedDefaults upserts the built-in disposable domain list.
func (s *Seeder) SeedDefaults(ctx context.Context) (int, error) {
	domains, err := DefaultBlocklist()
	if err != nil {
		return 0, err
	}
	return s.SeedBlocklist(ctx, domains)
}

// SeedFile upserts the domains listed in a YAML seed file.
func (s *Seeder) SeedFile(ctx context.Context, path string) (int, error) {
	domains, err := LoadBlocklistFile(path)
	if err != nil {
		return 0, err
	}
	return s.SeedBlocklist(ctx, domains)
}

func (s *Seeder) SeedBlocklist(ctx context.Context, domains []models.BlockedDomain) (int, error) {
	written, err := s.blocklist.UpsertBlockedDomains(ctx, domains)
	if err != nil {
		return 0, fmt.Errorf("failed to seed blocklist: %w", err)
	}
	s.logger.InfoContext(ctx, "blocklist seeded",
		"domains", written,
	)
	return written, nil
}

// DefaultBlocklist returns the embedded disposable domain list.
func DefaultBlocklist() ([]models.BlockedDomain, error) {
	return LoadBlocklist(bytes.NewReader(defaultBlocklist))
}

func LoadBlocklistFile(path string) ([]models.BlockedDomain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist: %w", err)
	}
	defer f.Close()
	return LoadBlocklist(f)
}

// LoadBlocklist parses a seed document, normalizing domains and dropping
// duplicates. The first occurrence of a domain wins.
func LoadBlocklist(r io.Reader) ([]models.BlockedDomain, error) {
	var file blocklistFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse blocklist: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Domains))
	out := make([]models.BlockedDomain, 0, len(file.Domains))
	for i, entry := range file.Domains {
		domain := models.NormalizeDomain(entry.Domain)
		if !validDomain(domain) {
			return nil, fmt.Errorf("blocklist entry %d: invalid domain %q", i+1, entry.Domain)
		}
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}
		reason := strings.TrimSpace(entry.Reason)
		if reason == "" {
			reason = defaultReason
		}
		out = append(out, models.BlockedDomain{Domain: domain, Reason: reason})
	}
	return out, nil
}

func validDomain(domain string) bool {
	if domain == "" || strings.ContainsAny(domain, "@ \t/") {
		return false
	}
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
