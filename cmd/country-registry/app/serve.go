package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/country-registry/internal/app"
	"github.com/stacklok/country-registry/internal/config"
	"github.com/stacklok/country-registry/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the country registry server",
	Long: `Start the country registry server.

The port is taken from --port, then the PORT environment variable, then the
configuration file, and defaults to 3000. --address overrides all of them.
The optional configuration file (--config) selects the storage backend
(memory, file, bolt or database) and telemetry settings.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	telemetryFlushTimeout  = 5 * time.Second
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (host:port), overrides --port")
	serveCmd.Flags().Int("port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, optional)")

	for _, name := range []string{"address", "port", "config"} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			slog.Error("Failed to bind flag", "flag", name, "error", err)
			os.Exit(1)
		}
	}
	if err := viper.BindEnv("port", "PORT"); err != nil {
		slog.Error("Failed to bind PORT environment variable", "error", err)
		os.Exit(1)
	}
}

// loadServeConfig loads the config file when given and applies the port override
func loadServeConfig() (*config.Config, error) {
	var opts []config.Option
	if path := viper.GetString("config"); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}

	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// flag or PORT env beat the config file
	if viper.IsSet("port") {
		cfg.Port = viper.GetInt("port")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}
	slog.Info("Loaded configuration",
		"config", viper.GetString("config"),
		"port", cfg.GetPort(),
		"storage", cfg.GetStorageType())

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	opts := []app.RegistryAppOptions{
		app.WithConfig(cfg),
		app.WithTracerProvider(tel.TracerProvider()),
		app.WithMeterProvider(tel.MeterProvider()),
	}
	if handler := tel.MetricsHandler(); handler != nil {
		opts = append(opts, app.WithMetricsHandler(handler))
	}
	if address := viper.GetString("address"); address != "" {
		opts = append(opts, app.WithAddress(address))
	}

	registryApp, err := app.NewRegistryApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build country registry: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- registryApp.Start()
	}()

	select {
	case err := <-errChan:
		stopErr := registryApp.Stop(defaultGracefulTimeout)
		return errors.Join(err, stopErr)
	case <-ctx.Done():
	}

	if err := registryApp.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}
	return <-errChan
}
