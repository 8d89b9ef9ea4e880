package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/smartwork/db/migrations"
	"github.com/frahmantamala/smartwork/internal"
	"github.com/frahmantamala/smartwork/pkg/logger"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files (embedded, or from --dir)",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "sql migrations directory; empty uses the migrations built into the binary")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	dialect := "postgres"
	if cfg.Database.Driver == internal.DatabaseDriverSQLite {
		dialect = "sqlite3"
	}
	sqlxDB, _, err := openDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer sqlxDB.Close()
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose: %w", err)
	}

	goose.SetTableName("schema_migrations")
	dir := "."
	if migrateDir == "" {
		goose.SetBaseFS(migrations.FS)
	} else {
		if _, err := os.Stat(migrateDir); err != nil {
			return fmt.Errorf("migrations directory: %w", err)
		}
		goose.SetBaseFS(nil)
		dir = migrateDir
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, sqlxDB.DB, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	logger.L().Info("Migration finished", "command", command, "dialect", dialect)
	return nil
}
