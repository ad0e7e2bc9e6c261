package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"courseshop/internal/repos"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and optionally load demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap(root)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer db.Close()

			// OpenDB already applied the schema.
			logger.Info("schema ready", zap.String("dsn", cfg.DBDSN))
			if seed {
				return repos.SeedDemo(db, logger)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert demo courses, coupons and users")
	return cmd
}
