package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/stacklok/country-registry/database"
	"github.com/stacklok/country-registry/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool",
	Long:  `Database migration tool for the database storage backend. Use with 'up' or 'down' subcommands.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create the countries table",
	Long: `Create the countries table using the database settings of the config file.
The server also applies this migration on start, so running it by hand is optional.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigration(cmd, "apply", database.MigrateUp)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop the countries table",
	Long:  `Drop the countries table. Every stored country is lost.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigration(cmd, "revert", database.MigrateDown)
	},
}

func init() {
	migrateCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	migrateCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := migrateCmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func runMigration(
	cmd *cobra.Command,
	action string,
	migrate func(context.Context, database.Execer) error,
) error {
	ctx := cmd.Context()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.GetStorageType() != config.StorageTypeDatabase || cfg.Storage.Database == nil {
		return fmt.Errorf("database storage configuration is required")
	}
	dbCfg := cfg.Storage.Database

	if !yes {
		fmt.Fprintf(cmd.OutOrStdout(), "About to %s the schema migration on %s@%s:%d/%s. Continue? (yes/no): ",
			action, dbCfg.User, dbCfg.Host, dbCfg.Port, dbCfg.Database)
		response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read user input: %w", err)
		}
		if response = strings.TrimSpace(response); response != "yes" && response != "y" {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	connString, err := dbCfg.GetConnectionString()
	if err != nil {
		return fmt.Errorf("failed to get connection string: %w", err)
	}

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(ctx); closeErr != nil {
			slog.Error("Error closing database connection", "error", closeErr)
		}
	}()

	if err := migrate(ctx, conn); err != nil {
		return err
	}

	slog.Info("Migration finished", "action", action, "database", dbCfg.Database)
	return nil
}
