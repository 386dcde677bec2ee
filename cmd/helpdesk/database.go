package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/persistence"
)

type database struct {
	pg     *persistence.Postgres
	logger *zap.Logger
}

// withDatabase adapts a maintenance action into a cobra RunE that opens and
// closes the database around it.
func withDatabase(fn func(context.Context, *database) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadEnv()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx := cmd.Context()
		pg, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer pg.Close()

		return fn(ctx, &database{pg: pg, logger: logger})
	}
}
