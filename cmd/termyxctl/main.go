// Command termyxctl is the operator CLI: it applies migrations, seeds the
// email domain blocklist and adjusts balances and plans outside the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"termyx/internal/platform/database"
	"termyx/internal/platform/logger"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "termyxctl",
		Short:         "termyxctl - operator tooling for the Termyx gate",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres URL (defaults to DATABASE_URL)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedBlocklistCmd())
	rootCmd.AddCommand(creditsCmd())
	rootCmd.AddCommand(planCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openPool connects to the flag or DATABASE_URL. Every command needs a real
// database; the in-memory stores live only inside a server process.
func openPool(cmd *cobra.Command) (*database.Pool, error) {
	url, _ := cmd.Flags().GetString("database-url")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return nil, errors.New("DATABASE_URL is not set (use --database-url)")
	}
	return database.New(cmd.Context(), database.DefaultConfig(url))
}

func newLogger() *slog.Logger {
	return logger.New(os.Getenv("LOG_LEVEL"))
}

// withPool runs fn against an open pool and closes it afterwards.
func withPool(cmd *cobra.Command, fn func(ctx context.Context, pool *database.Pool) error) error {
	pool, err := openPool(cmd)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(cmd.Context(), pool)
}
