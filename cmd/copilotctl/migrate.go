package main

import (
	"errors"

	"github.com/spf13/cobra"

	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/shared/storage/db"
	"warranty-copilot/internal/shared/telemetry"
)

func newMigrateCmd(load func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded Postgres migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := load()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx := cmd.Context()
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.ProfileOptions(db.ProfileMigrate))
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				return err
			}
			telemetry.Info("copilotctl.migrated", nil)
			return nil
		},
	}
}
