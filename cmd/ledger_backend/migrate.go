package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Rust-Frog/Accounting-System-sub002/pkg/database"
)

const defaultMigrationsPath = "file://migrations"

func migrateCommand(a *app) *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&migrationsPath, "migrations", defaultMigrationsPath, "migration source URL")

	for _, dir := range []database.MigrationDirection{database.MigrateUp, database.MigrateDown} {
		cmd.AddCommand(&cobra.Command{
			Use:   string(dir),
			Short: "Migrate the schema " + string(dir),
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.cfg.DatabaseURL == "" {
					return errors.New("migrate requires PGSQL_URL")
				}
				changed, err := database.RunMigrations(a.cfg.DatabaseURL, migrationsPath, dir)
				if err != nil {
					return err
				}
				a.logger.Info("Migration finished", slog.String("direction", string(dir)), slog.Bool("changed", changed))
				return nil
			},
		})
	}
	return cmd
}
