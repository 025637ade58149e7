package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/sanosuguru/go-restaurant-seating/internal/config"
	"github.com/sanosuguru/go-restaurant-seating/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage PostgreSQL schema migrations",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *sqlx.DB) error {
				return postgres.RollbackMigrations(db.DB, cfg.Store.MigrationsPath, steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(cfg *config.Config, db *sqlx.DB) error {
					if err := postgres.RunMigrations(db.DB, cfg.Store.MigrationsPath); err != nil {
						return err
					}
					logger.Info("マイグレーションを適用しました")
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(cfg *config.Config, db *sqlx.DB) error {
					version, dirty, err := postgres.MigrationVersion(db.DB, cfg.Store.MigrationsPath)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

// withDB はマイグレーション用に接続を開いて fn を実行する
func withDB(fn func(cfg *config.Config, db *sqlx.DB) error) error {
	cfg := config.Load()
	logger.Set(logger.NewLogger(cfg.App.Env))
	defer logger.Sync()
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db)
}
