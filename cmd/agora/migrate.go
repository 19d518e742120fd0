// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/agora-social/agora/internal/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			return runMigrate(cmd, cfg.DatabaseURL, nil)
		},
	}
}

func runMigrate(cmd *cobra.Command, databaseURL string, deps *MigrateDeps) error {
	if deps == nil {
		deps = &MigrateDeps{}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = defaultMigratorFactory
	}
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", config.EnvDatabaseURL)
	}

	cmd.Println("Connecting to database...")
	migrator, closeMigrator, err := openMigrator(deps.MigratorFactory, databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrator()

	pending, err := migrator.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
	} else {
		cmd.Printf("Applying %d pending migration(s)...\n", len(pending))
	}

	schemaVersion, err := applyMigrations(migrator)
	if err != nil {
		return err
	}

	cmd.Printf("Schema at version %d\n", schemaVersion)
	return nil
}
