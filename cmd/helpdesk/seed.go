package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/app"
	"github.com/spec-kit/helpdesk/internal/persistence"
)

func newSeedCommand() *cobra.Command {
	opts := app.SeedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial admin account",
		Long:  `Create an admin account, and optionally a sample ticket, in the configured database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			if cfg.Postgres.DSN == "" {
				return fmt.Errorf("POSTGRES_DSN is required: %w", persistence.ErrNoDatabase)
			}
			application, err := app.New(ctx, *cfg, logger, app.Options{})
			if err != nil {
				return err
			}
			defer application.Close(context.Background()) //nolint:errcheck

			admin, err := application.Seed(ctx, opts)
			if err != nil {
				return err
			}
			logger.Info("seed complete", zap.String("admin_id", admin.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "admin account: %s\n", admin.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.AdminName, "name", "Admin User", "Admin display name")
	cmd.Flags().StringVar(&opts.AdminEmail, "email", "admin@example.com", "Admin email address")
	cmd.Flags().StringVar(&opts.AdminPassword, "password", "", "Admin password (required)")
	cmd.Flags().BoolVar(&opts.SampleTicket, "sample", false, "Also create a sample ticket")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
