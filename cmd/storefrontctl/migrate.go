package main

import (
	"fmt"

	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/infrastructure/persistence/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger := cfg.Logger.NewLogger()

			db, err := postgres.Connect(cmd.Context(), &cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			if err := db.RunMigrations(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", envOr("STOREFRONT_CONFIG", ""), "path to a YAML config file")
	return cmd
}
