package main

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/creski-storefront/migrations"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the order database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(db *postgres.DB, cfg *config.Config) error {
				return migrations.Apply(cmd.Context(), db.Pool, cfg.Logger.NewLogger())
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withDatabase(cmd.Context(), func(db *postgres.DB, _ *config.Config) error {
				return migrations.Down(db.Pool, steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

func withDatabase(ctx context.Context, fn func(db *postgres.DB, cfg *config.Config) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := postgres.Connect(ctx, &cfg.Database, cfg.Logger.NewLogger())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(db, cfg)
}
