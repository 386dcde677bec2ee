package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back or inspect the embedded database migrations.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE: withDatabase(func(ctx context.Context, db *database) error {
				return persistence.RunMigrations(ctx, db.pg.PoolHandle(), db.logger)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withDatabase(func(ctx context.Context, db *database) error {
				return persistence.RollbackMigration(ctx, db.pg.PoolHandle(), db.logger)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: withDatabase(func(ctx context.Context, db *database) error {
				return persistence.MigrationStatus(ctx, db.pg.PoolHandle())
			}),
		},
	)
	return cmd
}

func newResetDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-db",
		Short: "Drop every table and migrate again",
		Long:  `Roll back all migrations and apply them again. All data is lost.`,
		RunE: withDatabase(func(ctx context.Context, db *database) error {
			return persistence.ResetDatabase(ctx, db.pg.PoolHandle(), db.logger)
		}),
	}
}
