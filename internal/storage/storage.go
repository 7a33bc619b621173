// Package storage provides the persistence strategies of the country registry.
// The registry keeps its records in memory and hands every accepted mutation to a
// Persister as a full snapshot; the snapshot is read back once at startup.
package storage

import (
	"context"
	"errors"

	"github.com/stacklok/country-registry/internal/service"
)

// ErrNoSnapshot is returned by Load when the backend holds no snapshot yet
var ErrNoSnapshot = errors.New("no country snapshot stored")

//go:generate mockgen -destination=mocks/mock_persister.go -package=mocks -source=storage.go Persister

// Persister stores and restores full snapshots of the registry
type Persister interface {
	// Load returns the last saved snapshot in insertion order, or ErrNoSnapshot
	Load(ctx context.Context) ([]service.Country, error)

	// Save replaces the stored snapshot with countries
	Save(ctx context.Context, countries []service.Country) error

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error

	// Source names the backend for logs and traces, e.g. "file:/data/countries.json"
	Source() string

	// Close releases the backend
	Close() error
}
