package main

import (
	"context"

	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/passwords/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/passwords/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Long: `Applies every pending schema migration to the database at PASSWORDS_DB_PATH
and reports the resulting schema version. Only the database settings are
required.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runMigrate(ctx)
	},
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.LoadStorage()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	db, err := openStore(ctx, cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	version, dirty, err := sqliteadapter.SchemaVersion(db.Writer)
	if err != nil {
		return err
	}
	logger.Info("schema ready", "path", cfg.DBPath, "version", version, "dirty", dirty)
	return nil
}
