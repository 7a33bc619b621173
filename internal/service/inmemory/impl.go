// Package inmemory provides the in-memory implementation of the CountryService interface.
// Records live in memory and every accepted mutation is written through to a storage.Persister.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/stacklok/country-registry/internal/otel"
	"github.com/stacklok/country-registry/internal/service"
	"github.com/stacklok/country-registry/internal/storage"
	"github.com/stacklok/country-registry/internal/telemetry"
)

const (
	resultSuccess      = "success"
	resultConflict     = "conflict"
	resultNotFound     = "not_found"
	resultPersistError = "persist_error"
)

// countryStore implements the CountryService interface
type countryStore struct {
	// mu serializes every operation, including the persister write
	mu        sync.Mutex
	persister storage.Persister
	countries []service.Country
	// index maps upper-case alpha-2 and alpha-3 codes to positions in countries
	index  map[string]int
	nextID int

	collator *collate.Collator
	tracer   trace.Tracer
	metrics  *telemetry.RegistryMetrics
}

var _ service.CountryService = (*countryStore)(nil)

// Option is a functional option for configuring the countryStore
type Option func(*countryStore)

// WithTracer sets the OpenTelemetry tracer. Without it spans are not recorded.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *countryStore) {
		s.tracer = tracer
	}
}

// WithMetrics sets the instruments updated after every mutation
func WithMetrics(metrics *telemetry.RegistryMetrics) Option {
	return func(s *countryStore) {
		s.metrics = metrics
	}
}

// WithCollationLanguage sets the language used to order names. Defaults to English.
func WithCollationLanguage(tag language.Tag) Option {
	return func(s *countryStore) {
		s.collator = collate.New(tag)
	}
}

// New creates a country registry backed by persister.
// The stored snapshot is loaded once; when there is none the default countries
// are seeded and saved.
func New(ctx context.Context, persister storage.Persister, opts ...Option) (service.CountryService, error) {
	if persister == nil {
		return nil, fmt.Errorf("persister is required")
	}

	s := &countryStore{
		persister: persister,
		collator:  collate.New(language.English),
	}
	for _, opt := range opts {
		opt(s)
	}

	countries, err := persister.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNoSnapshot):
		countries = service.DefaultCountries()
		if err := persister.Save(ctx, countries); err != nil {
			return nil, &service.PersistenceError{Op: "seed", Err: err}
		}
		slog.Info("Seeded country registry", "count", len(countries), "storage", persister.Source())
	case err != nil:
		return nil, fmt.Errorf("failed to load countries from %s: %w", persister.Source(), err)
	default:
		slog.Info("Loaded country registry", "count", len(countries), "storage", persister.Source())
	}

	if err := s.replace(ctx, countries); err != nil {
		return nil, fmt.Errorf("stored countries are inconsistent: %w", err)
	}
	return s, nil
}

// CheckReadiness implements CountryService.CheckReadiness
func (s *countryStore) CheckReadiness(ctx context.Context) error {
	if err := s.persister.Ping(ctx); err != nil {
		return fmt.Errorf("storage %s not available: %w", s.persister.Source(), err)
	}
	return nil
}

// ListCountries implements CountryService.ListCountries
func (s *countryStore) ListCountries(ctx context.Context, opts ...service.ListOption) ([]service.Country, error) {
	options := service.NewListCountriesOptions(opts...)

	_, span := otel.StartSpan(ctx, s.tracer, "countryStore.ListCountries",
		trace.WithAttributes(otel.AttrSortByName.Bool(options.SortByName)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	result := slices.Clone(s.countries)
	if options.SortByName {
		slices.SortStableFunc(result, func(a, b service.Country) int {
			return s.collator.CompareString(a.Name, b.Name)
		})
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(result)))
	return result, nil
}

// GetCountry implements CountryService.GetCountry
func (s *countryStore) GetCountry(ctx context.Context, code string) (*service.Country, error) {
	_, span := otel.StartSpan(ctx, s.tracer, "countryStore.GetCountry",
		trace.WithAttributes(otel.AttrCountryCode.String(code)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.lookup(code)
	if !ok {
		otel.RecordUnexpectedError(span, service.ErrCountryNotFound, service.ErrCountryNotFound)
		return nil, fmt.Errorf("%w: %s", service.ErrCountryNotFound, code)
	}

	c := s.countries[pos]
	return &c, nil
}

// CreateCountry implements CountryService.CreateCountry
func (s *countryStore) CreateCountry(ctx context.Context, country service.NewCountry) (*service.Country, error) {
	const op = "create"

	ctx, span := otel.StartSpan(ctx, s.tracer, "countryStore.CreateCountry",
		trace.WithAttributes(otel.AttrCountryName.String(country.Name)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	created := service.Country{
		ID:         s.nextID,
		Name:       country.Name,
		Alpha2Code: service.NormalizeCode(country.Alpha2Code),
		Alpha3Code: service.NormalizeCode(country.Alpha3Code),
		Visited:    country.Visited,
	}

	if s.codeTaken(created.Alpha2Code, -1) || s.codeTaken(created.Alpha3Code, -1) {
		s.metrics.RecordMutation(ctx, op, resultConflict)
		otel.RecordUnexpectedError(span, service.ErrCountryExists, service.ErrCountryExists)
		return nil, fmt.Errorf("%w: %s/%s", service.ErrCountryExists, created.Alpha2Code, created.Alpha3Code)
	}

	next := append(slices.Clone(s.countries), created)
	if err := s.commit(ctx, op, next); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(otel.AttrCountryID.Int(created.ID))
	slog.InfoContext(ctx, "Country created",
		"id", created.ID,
		"name", created.Name,
		"alpha2Code", created.Alpha2Code)
	return &created, nil
}

// UpdateCountry implements CountryService.UpdateCountry
func (s *countryStore) UpdateCountry(
	ctx context.Context,
	code string,
	update service.CountryUpdate,
) (*service.Country, error) {
	const op = "update"

	ctx, span := otel.StartSpan(ctx, s.tracer, "countryStore.UpdateCountry",
		trace.WithAttributes(otel.AttrCountryCode.String(code)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.lookup(code)
	if !ok {
		s.metrics.RecordMutation(ctx, op, resultNotFound)
		otel.RecordUnexpectedError(span, service.ErrCountryNotFound, service.ErrCountryNotFound)
		return nil, fmt.Errorf("%w: %s", service.ErrCountryNotFound, code)
	}

	updated := update.Apply(s.countries[pos])
	if s.codeTaken(updated.Alpha2Code, pos) || s.codeTaken(updated.Alpha3Code, pos) {
		s.metrics.RecordMutation(ctx, op, resultConflict)
		otel.RecordUnexpectedError(span, service.ErrCountryExists, service.ErrCountryExists)
		return nil, fmt.Errorf("%w: %s/%s", service.ErrCountryExists, updated.Alpha2Code, updated.Alpha3Code)
	}

	next := slices.Clone(s.countries)
	next[pos] = updated
	if err := s.commit(ctx, op, next); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	slog.InfoContext(ctx, "Country updated", "id", updated.ID, "code", code)
	return &updated, nil
}

// MarkVisited implements CountryService.MarkVisited
func (s *countryStore) MarkVisited(ctx context.Context, code string) (*service.Country, error) {
	const op = "mark_visited"

	ctx, span := otel.StartSpan(ctx, s.tracer, "countryStore.MarkVisited",
		trace.WithAttributes(otel.AttrCountryCode.String(code)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.lookup(code)
	if !ok {
		s.metrics.RecordMutation(ctx, op, resultNotFound)
		otel.RecordUnexpectedError(span, service.ErrCountryNotFound, service.ErrCountryNotFound)
		return nil, fmt.Errorf("%w: %s", service.ErrCountryNotFound, code)
	}

	visited := s.countries[pos]
	if visited.Visited {
		s.metrics.RecordMutation(ctx, op, resultSuccess)
		return &visited, nil
	}

	visited.Visited = true
	next := slices.Clone(s.countries)
	next[pos] = visited
	if err := s.commit(ctx, op, next); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	slog.InfoContext(ctx, "Country marked as visited", "id", visited.ID, "code", code)
	return &visited, nil
}

// AddToWishlist implements CountryService.AddToWishlist
func (s *countryStore) AddToWishlist(ctx context.Context, name string, visited bool) (*service.Country, error) {
	const op = "add_to_wishlist"

	name = strings.TrimSpace(name)
	ctx, span := otel.StartSpan(ctx, s.tracer, "countryStore.AddToWishlist",
		trace.WithAttributes(otel.AttrCountryName.String(name)))
	defer span.End()

	if name == "" {
		err := fmt.Errorf("country name is required")
		otel.RecordError(span, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.countries {
		if strings.EqualFold(c.Name, name) {
			s.metrics.RecordMutation(ctx, op, resultConflict)
			return &c, nil
		}
	}

	added := service.Country{ID: s.nextID, Name: name, Visited: visited}
	next := append(slices.Clone(s.countries), added)
	if err := s.commit(ctx, op, next); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	slog.InfoContext(ctx, "Country added to wishlist", "id", added.ID, "name", added.Name)
	return &added, nil
}

// lookup returns the position of the country holding code. Caller must hold s.mu.
func (s *countryStore) lookup(code string) (int, bool) {
	code = service.NormalizeCode(code)
	if code == "" {
		return 0, false
	}
	pos, ok := s.index[code]
	return pos, ok
}

// codeTaken reports whether code belongs to a record other than the one at self.
// Caller must hold s.mu.
func (s *countryStore) codeTaken(code string, self int) bool {
	pos, ok := s.lookup(code)
	return ok && pos != self
}

// commit saves next and, only when that succeeds, makes it the live state.
// Caller must hold s.mu.
func (s *countryStore) commit(ctx context.Context, op string, next []service.Country) error {
	start := time.Now()
	err := s.persister.Save(ctx, next)
	s.metrics.RecordPersistDuration(ctx, s.persister.Source(), time.Since(start), err == nil)
	if err != nil {
		s.metrics.RecordMutation(ctx, op, resultPersistError)
		slog.ErrorContext(ctx, "Failed to persist country registry",
			"operation", op,
			"storage", s.persister.Source(),
			"error", err)
		return &service.PersistenceError{Op: op, Err: err}
	}

	if err := s.replace(ctx, next); err != nil {
		// checked before saving, so a failure here is a bug
		return fmt.Errorf("country registry index is inconsistent after %s: %w", op, err)
	}
	s.metrics.RecordMutation(ctx, op, resultSuccess)
	return nil
}

// replace swaps in countries and rebuilds the code index and id counter.
// Caller must hold s.mu, except from New.
func (s *countryStore) replace(ctx context.Context, countries []service.Country) error {
	index := make(map[string]int, 2*len(countries))
	maxID := 0
	visited := 0
	for pos, c := range countries {
		for _, code := range []string{c.Alpha2Code, c.Alpha3Code} {
			code = service.NormalizeCode(code)
			if code == "" {
				continue
			}
			if other, ok := index[code]; ok && other != pos {
				return fmt.Errorf("code %s is held by both %q and %q", code, countries[other].Name, c.Name)
			}
			index[code] = pos
		}
		maxID = max(maxID, c.ID)
		if c.Visited {
			visited++
		}
	}

	s.countries = countries
	s.index = index
	s.nextID = maxID + 1
	s.metrics.RecordCountries(ctx, int64(len(countries)), int64(visited))
	return nil
}
