package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	accountmodels "termyx/internal/account/models"
	accountstore "termyx/internal/account/store"
	"termyx/internal/audit"
	creditsservice "termyx/internal/credits/service"
	fraudstore "termyx/internal/fraud/store"
	"termyx/internal/platform/database"
	"termyx/internal/seeder"
	"termyx/migrations"
	id "termyx/pkg/domain"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd, func(ctx context.Context, pool *database.Pool) error {
				applied, err := migrations.Apply(ctx, pool.DB())
				if err != nil {
					return err
				}
				for _, file := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", file)
				}
				return nil
			})
		},
	}
}

func seedBlocklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-blocklist",
		Short: "Upsert blocked email domains from a YAML file (built-in list when --file is empty)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			return withPool(cmd, func(ctx context.Context, pool *database.Pool) error {
				s := seeder.New(fraudstore.NewPostgres(pool.DB()), newLogger())
				var (
					written int
					err     error
				)
				if file == "" {
					written, err = s.SeedDefaults(ctx)
				} else {
					written, err = s.SeedFile(ctx, file)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d blocked domains upserted\n", written)
				return nil
			})
		},
	}
	cmd.Flags().StringP("file", "f", "", "YAML file with a top-level domains list")
	return cmd
}

func creditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Inspect and adjust credit balances",
	}
	cmd.AddCommand(creditsGrantCmd())
	return cmd
}

func creditsGrantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Add credits to a user's balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawUser, _ := cmd.Flags().GetString("user")
			amount, _ := cmd.Flags().GetInt("amount")
			txType, _ := cmd.Flags().GetString("type")
			description, _ := cmd.Flags().GetString("description")

			userID, err := id.ParseUserID(rawUser)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}

			return withPool(cmd, func(ctx context.Context, pool *database.Pool) error {
				logger := newLogger()
				publisher := audit.NewPublisher(audit.NewPostgresStore(pool.DB()), audit.WithPublisherLogger(logger))
				defer publisher.Close()

				svc := creditsservice.New(accountstore.NewPostgres(pool.DB()),
					creditsservice.WithLogger(logger),
					creditsservice.WithAuditPublisher(publisher),
				)
				result, err := svc.AddCredits(ctx, userID, amount, accountmodels.TransactionType(txType), description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %s now has %d credits\n", userID, result.Credits)
				return nil
			})
		},
	}
	cmd.Flags().String("user", "", "User ID (UUID)")
	cmd.Flags().IntP("amount", "n", 0, "Credits to add")
	cmd.Flags().StringP("type", "t", string(accountmodels.TransactionPurchase), "Transaction type (purchase, bonus, refund)")
	cmd.Flags().StringP("description", "d", "", "Ledger description")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage subscription plans",
	}
	cmd.AddCommand(planSetCmd())
	return cmd
}

func planSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Move a user to another plan; leaving the free plan ends trial metering",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawUser, _ := cmd.Flags().GetString("user")
			slug, _ := cmd.Flags().GetString("plan")

			userID, err := id.ParseUserID(rawUser)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}

			return withPool(cmd, func(ctx context.Context, pool *database.Pool) error {
				if err := accountstore.NewPostgres(pool.DB()).SetPlan(ctx, userID, slug); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %s moved to plan %s\n", userID, slug)
				return nil
			})
		},
	}
	cmd.Flags().String("user", "", "User ID (UUID)")
	cmd.Flags().StringP("plan", "p", "", "Plan slug (free, basic, pro)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
