package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RegistryMetricsMeterName is the name used for the country registry meter
	RegistryMetricsMeterName = "github.com/stacklok/country-registry/registry"
)

// RegistryMetrics holds the OpenTelemetry instruments describing the registry contents
type RegistryMetrics struct {
	countriesTotal  metric.Int64Gauge
	visitedTotal    metric.Int64Gauge
	mutationsTotal  metric.Int64Counter
	persistDuration metric.Float64Histogram
}

// NewRegistryMetrics creates a new RegistryMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistryMetricsMeterName)

	countriesTotal, err := meter.Int64Gauge(
		"country_registry_countries_total",
		metric.WithDescription("Number of countries in the registry"),
		metric.WithUnit("{country}"),
	)
	if err != nil {
		return nil, err
	}

	visitedTotal, err := meter.Int64Gauge(
		"country_registry_visited_countries_total",
		metric.WithDescription("Number of countries marked as visited"),
		metric.WithUnit("{country}"),
	)
	if err != nil {
		return nil, err
	}

	mutationsTotal, err := meter.Int64Counter(
		"country_registry_mutations_total",
		metric.WithDescription("Number of registry mutations by operation and result"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, err
	}

	persistDuration, err := meter.Float64Histogram(
		"country_registry_persist_duration_seconds",
		metric.WithDescription("Duration of registry snapshot writes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{
		countriesTotal:  countriesTotal,
		visitedTotal:    visitedTotal,
		mutationsTotal:  mutationsTotal,
		persistDuration: persistDuration,
	}, nil
}

// RecordCountries records the registry size and how many of its countries were visited
func (m *RegistryMetrics) RecordCountries(ctx context.Context, total, visited int64) {
	if m == nil {
		return
	}

	m.countriesTotal.Record(ctx, total)
	m.visitedTotal.Record(ctx, visited)
}

// RecordMutation counts one mutation attempt. result is one of "success", "conflict",
// "not_found" or "persist_error".
func (m *RegistryMetrics) RecordMutation(ctx context.Context, operation, result string) {
	if m == nil {
		return
	}

	m.mutationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
}

// RecordPersistDuration records how long writing a snapshot to the storage backend took
func (m *RegistryMetrics) RecordPersistDuration(ctx context.Context, storage string, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	m.persistDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("storage", storage),
		attribute.Bool("success", success),
	))
}
