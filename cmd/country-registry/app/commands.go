// Package app provides the entry point for the country registry application.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/country-registry/internal/versions"
)

var rootCmd = &cobra.Command{
	Use:               "country-registry",
	DisableAutoGenTag: true,
	Short:             "Country registry server",
	Long: `Country registry server provides REST endpoints for managing a list of countries
and a wishlist page rendering the same records.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			slog.Error("Error displaying help", "error", err)
		}
	},
}

// NewRootCmd creates a new root command for the country registry.
// --debug lowers level to debug before any subcommand runs.
func NewRootCmd(level *slog.LevelVar) *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if level != nil && viper.GetBool("debug") {
			level.Set(slog.LevelDebug)
		}
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)

	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versions.GetVersionInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}

		if format == "json" {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format version info as JSON: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "country-registry %s (commit %s, built %s, %s %s)\n",
			info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
		return err
	},
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}
