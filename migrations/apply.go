package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
)

// Files lists the embedded migrations in the order they are applied.
func Files() ([]string, error) {
	files, err := fs.Glob(FS, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Apply executes every embedded migration. Each file is idempotent, so
// re-running Apply against an up-to-date database is a no-op.
func Apply(ctx context.Context, db *sql.DB) ([]string, error) {
	files, err := Files()
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		content, err := fs.ReadFile(FS, file)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return nil, fmt.Errorf("execute migration %s: %w", file, err)
		}
	}
	return files, nil
}
