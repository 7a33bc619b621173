package app

import (
	"github.com/stacklok/country-registry/internal/service"
	"github.com/stacklok/country-registry/internal/storage"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// CountryService provides the country registry business logic
	CountryService service.CountryService

	// Persister mirrors the registry to its configured backend
	Persister storage.Persister
}
