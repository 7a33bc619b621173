// Package app provides application lifecycle management for the country registry server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/stacklok/country-registry/internal/config"
)

// RegistryApp encapsulates all components needed to run the country registry server
// It provides lifecycle management and graceful shutdown capabilities
type RegistryApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
}

// Start starts the HTTP server.
// This method blocks until the HTTP server stops or encounters an error
func (app *RegistryApp) Start() error {
	listener, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	return app.Serve(listener)
}

// Serve accepts connections on the given listener until the server is stopped
func (app *RegistryApp) Serve(listener net.Listener) error {
	slog.Info("Server listening", "address", listener.Addr().String())
	if err := app.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// It shuts down the HTTP server and then closes the persister.
func (app *RegistryApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}
	if err := app.components.Persister.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close persister: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *RegistryApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *RegistryApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the components the server is backed by
func (app *RegistryApp) GetComponents() *AppComponents {
	return app.components
}
