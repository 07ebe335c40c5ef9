package seeder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termyx/internal/fraud/models"
	fraudstore "termyx/internal/fraud/store"
)

type failingStore struct{}

func (failingStore) UpsertBlockedDomains(context.Context, []models.BlockedDomain) (int, error) {
	return 0, errors.New("connection refused")
}

func TestLoadBlocklist(t *testing.T) {
	t.Run("normalizes and deduplicates", func(t *testing.T) {
		doc := `
domains:
  - domain: " Mailinator.COM "
    reason: disposable
  - domain: "@yopmail.com"
  - domain: mailinator.com
    reason: duplicate
`
		domains, err := LoadBlocklist(strings.NewReader(doc))
		require.NoError(t, err)
		assert.Equal(t, []models.BlockedDomain{
			{Domain: "mailinator.com", Reason: "disposable"},
			{Domain: "yopmail.com", Reason: "disposable"},
		}, domains)
	})

	t.Run("empty document yields nothing", func(t *testing.T) {
		domains, err := LoadBlocklist(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, domains)
	})

	t.Run("rejects invalid domains", func(t *testing.T) {
		for _, bad := range []string{"localhost", "user@example.com", "example.", ".com", "exa mple.com"} {
			_, err := LoadBlocklist(strings.NewReader("domains:\n  - domain: \"" + bad + "\"\n"))
			assert.Error(t, err, bad)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := LoadBlocklist(strings.NewReader("domains:\n  - domian: example.com\n"))
		assert.Error(t, err)
	})
}

func TestDefaultBlocklist(t *testing.T) {
	domains, err := DefaultBlocklist()
	require.NoError(t, err)
	require.NotEmpty(t, domains)
	assert.Contains(t, domains, models.BlockedDomain{Domain: "mailinator.com", Reason: "disposable"})
}

func TestSeeder(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("seeds defaults into the store", func(t *testing.T) {
		store := fraudstore.NewInMemory()
		written, err := New(store, logger).SeedDefaults(ctx)
		require.NoError(t, err)

		blocked, err := store.IsDomainBlocked(ctx, "mailinator.com")
		require.NoError(t, err)
		assert.True(t, blocked)

		listed, err := store.ListBlockedDomains(ctx)
		require.NoError(t, err)
		assert.Len(t, listed, written)
	})

	t.Run("seeds a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "domains.yaml")
		require.NoError(t, os.WriteFile(path, []byte("domains:\n  - domain: spam.example.com\n    reason: abuse\n"), 0o600))

		store := fraudstore.NewInMemory()
		written, err := New(store, logger).SeedFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 1, written)

		blocked, err := store.IsDomainBlocked(ctx, "spam.example.com")
		require.NoError(t, err)
		assert.True(t, blocked)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := New(fraudstore.NewInMemory(), logger).SeedFile(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("store failure", func(t *testing.T) {
		_, err := New(failingStore{}, logger).SeedDefaults(ctx)
		assert.ErrorContains(t, err, "failed to seed blocklist")
	})
}
