package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"courseshop/internal/config"
	applog "courseshop/internal/log"
	"courseshop/internal/repos"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// rootOptions holds flags shared by all commands.
type rootOptions struct {
	DSN string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "courseshop",
		Short:         "Course orders, coupons and entitlements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.DSN, "db", "", "SQLite DSN (overrides DB_DSN)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newCouponCommand(opts))
	return cmd
}

// bootstrap loads config, installs the logger and opens the database.
func bootstrap(opts *rootOptions) (config.Config, *zap.Logger, *sqlx.DB, error) {
	cfg := config.Load()
	if opts.DSN != "" {
		cfg.DBDSN = opts.DSN
	}
	logger, err := applog.New(applog.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Environment: cfg.Environment,
	})
	if err != nil {
		return cfg, nil, nil, err
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return cfg, logger, nil, fmt.Errorf("open database %s: %w", cfg.DBDSN, err)
	}
	return cfg, logger, db, nil
}
