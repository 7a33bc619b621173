package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/stacklok/country-registry/internal/api"
	"github.com/stacklok/country-registry/internal/config"
	"github.com/stacklok/country-registry/internal/service"
	"github.com/stacklok/country-registry/internal/service/inmemory"
	"github.com/stacklok/country-registry/internal/storage"
	"github.com/stacklok/country-registry/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	// ServiceTracerName is the tracer used by the country store
	ServiceTracerName = "github.com/stacklok/country-registry/service"
)

// RegistryAppOptions is a function that configures the registry app builder
type RegistryAppOptions func(*registryAppConfig) error

// registryAppConfig collects everything needed to build a RegistryApp.
// Components left unset are built from the configuration.
type registryAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	persister storage.Persister

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Registry options
	collation language.Tag

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...RegistryAppOptions) (*registryAppConfig, error) {
	cfg := &registryAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
		collation:      language.English,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.NewDefaultConfig()
	}
	if cfg.address == "" {
		cfg.address = ":" + strconv.Itoa(cfg.config.GetPort())
	}

	return cfg, nil
}

// NewRegistryApp builds the persister, the country store and the HTTP server
func NewRegistryApp(
	ctx context.Context,
	opts ...RegistryAppOptions,
) (*RegistryApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.persister == nil {
		cfg.persister, err = storage.NewPersister(ctx, cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create persister: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded {
			if err := cfg.persister.Close(); err != nil {
				slog.Warn("Failed to close persister", "error", err)
			}
		}
	}()

	countryService, err := buildServiceComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, countryService)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	cleanupNeeded = false

	return &RegistryApp{
		config: cfg.config,
		components: &AppComponents{
			CountryService: countryService,
			Persister:      cfg.persister,
		},
		httpServer: httpServer,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding the configured port
func WithAddress(addr string) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("address is not valid: %w", err)
		}
		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(net.JoinHostPort(host, port)); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares, replacing the defaults
func WithMiddlewares(mw ...func(http.Handler) http.Handler) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithPersister allows injecting a custom persister (for testing)
func WithPersister(p storage.Persister) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.persister = p
		return nil
	}
}

// WithCollationLanguage sets the language used to sort countries by name
func WithCollationLanguage(tag language.Tag) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.collation = tag
		return nil
	}
}

// WithRequestTimeout sets the per-request handler timeout
func WithRequestTimeout(d time.Duration) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive, got %s", d)
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and registry metrics
func WithMeterProvider(mp metric.MeterProvider) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP and store spans
func WithTracerProvider(tp trace.TracerProvider) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves the given Prometheus handler at /metrics
func WithMetricsHandler(h http.Handler) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildServiceComponents loads the registry from the persister
func buildServiceComponents(
	ctx context.Context,
	b *registryAppConfig,
) (service.CountryService, error) {
	slog.Info("Initializing service components", "source", b.persister.Source())

	storeOpts := []inmemory.Option{inmemory.WithCollationLanguage(b.collation)}

	if b.tracerProvider != nil {
		storeOpts = append(storeOpts, inmemory.WithTracer(b.tracerProvider.Tracer(ServiceTracerName)))
	}

	if b.meterProvider != nil {
		registryMetrics, err := telemetry.NewRegistryMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create registry metrics: %w", err)
		}
		storeOpts = append(storeOpts, inmemory.WithMetrics(registryMetrics))
		slog.Info("Registry metrics enabled")
	}

	svc, err := inmemory.New(ctx, b.persister, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create country service: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	b *registryAppConfig,
	svc service.CountryService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Tracing and metrics wrap the whole chain so they observe every request
	var observability []func(http.Handler) http.Handler
	if b.tracerProvider != nil {
		observability = append(observability, telemetry.TracingMiddleware(b.tracerProvider))
		slog.Info("HTTP tracing middleware enabled")
	}
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		observability = append(observability, metricsMiddleware)
		slog.Info("HTTP metrics middleware enabled")
	}
	b.middlewares = append(observability, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:              b.address,
		Handler:           router,
		ReadTimeout:       b.readTimeout,
		ReadHeaderTimeout: b.readTimeout,
		WriteTimeout:      b.writeTimeout,
		IdleTimeout:       b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
