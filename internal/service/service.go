// Package service provides the business logic contract for the country registry
package service

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCountryNotFound is returned when no country matches the given code
	ErrCountryNotFound = errors.New("country not found")
	// ErrCountryExists is returned when a country with the same alpha-2 or alpha-3 code already exists
	ErrCountryExists = errors.New("country already exists")
)

// PersistenceError is returned when a mutation was accepted but the snapshot could not be saved.
// The in-memory registry is left unchanged when this error is returned.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements error
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist country registry after %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying storage error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go CountryService

// CountryService defines the interface for country registry operations
type CountryService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListCountries returns a copy of all countries, in insertion order unless sorted by name
	ListCountries(ctx context.Context, opts ...ListOption) ([]Country, error)

	// GetCountry returns the country whose alpha-2 or alpha-3 code matches, ignoring case
	GetCountry(ctx context.Context, code string) (*Country, error)

	// CreateCountry adds a new country to the registry
	CreateCountry(ctx context.Context, country NewCountry) (*Country, error)

	// UpdateCountry merges the present fields of update onto the matching country
	UpdateCountry(ctx context.Context, code string, update CountryUpdate) (*Country, error)

	// MarkVisited flags the matching country as visited
	MarkVisited(ctx context.Context, code string) (*Country, error)

	// AddToWishlist adds a country by name only, unless one with that name is already listed
	AddToWishlist(ctx context.Context, name string, visited bool) (*Country, error)
}

// ListOption is a function that sets an option for the ListCountries operation
type ListOption func(*ListCountriesOptions)

// ListCountriesOptions is the options for the ListCountries operation
type ListCountriesOptions struct {
	SortByName bool
}

// WithSortByName orders the ListCountries result by country name
func WithSortByName() ListOption {
	return func(o *ListCountriesOptions) {
		o.SortByName = true
	}
}

// NewListCountriesOptions applies opts on top of the default options
func NewListCountriesOptions(opts ...ListOption) *ListCountriesOptions {
	o := &ListCountriesOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
