package inmemory

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/country-registry/internal/service"
	"github.com/stacklok/country-registry/internal/storage"
	"github.com/stacklok/country-registry/internal/storage/mocks"
)

func ptr[T any](v T) *T {
	return &v
}

func newStore(t *testing.T, opts ...Option) service.CountryService {
	t.Helper()
	svc, err := New(context.Background(), storage.NewMemoryPersister(), opts...)
	require.NoError(t, err)
	return svc
}

func names(countries []service.Country) []string {
	out := make([]string, 0, len(countries))
	for _, c := range countries {
		out = append(out, c.Name)
	}
	return out
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires a persister", func(t *testing.T) {
		t.Parallel()
		_, err := New(context.Background(), nil)
		require.Error(t, err)
	})

	t.Run("seeds and saves defaults when nothing is stored", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		p := mocks.NewMockPersister(ctrl)
		p.EXPECT().Source().Return("mock").AnyTimes()
		p.EXPECT().Load(gomock.Any()).Return(nil, storage.ErrNoSnapshot)
		p.EXPECT().Save(gomock.Any(), service.DefaultCountries()).Return(nil)

		svc, err := New(context.Background(), p)
		require.NoError(t, err)

		countries, err := svc.ListCountries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, service.DefaultCountries(), countries)
	})

	t.Run("restores a stored snapshot", func(t *testing.T) {
		t.Parallel()
		stored := []service.Country{
			{ID: 1, Name: "Chile", Alpha2Code: "CL", Alpha3Code: "CHL"},
			{ID: 7, Name: "Peru", Visited: true},
		}
		ctrl := gomock.NewController(t)
		p := mocks.NewMockPersister(ctrl)
		p.EXPECT().Source().Return("mock").AnyTimes()
		p.EXPECT().Load(gomock.Any()).Return(stored, nil)
		p.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		svc, err := New(context.Background(), p)
		require.NoError(t, err)

		created, err := svc.CreateCountry(context.Background(), service.NewCountry{Name: "Fiji", Alpha2Code: "FJ", Alpha3Code: "FJI"})
		require.NoError(t, err)
		assert.Equal(t, 8, created.ID, "ids continue after the highest stored id")
	})

	t.Run("load failure", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		p := mocks.NewMockPersister(ctrl)
		p.EXPECT().Source().Return("mock").AnyTimes()
		p.EXPECT().Load(gomock.Any()).Return(nil, errors.New("corrupt"))

		_, err := New(context.Background(), p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "corrupt")
	})

	t.Run("seed save failure", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		p := mocks.NewMockPersister(ctrl)
		p.EXPECT().Source().Return("mock").AnyTimes()
		p.EXPECT().Load(gomock.Any()).Return(nil, storage.ErrNoSnapshot)
		p.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("read-only"))

		_, err := New(context.Background(), p)
		var pe *service.PersistenceError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("duplicate codes in snapshot", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		p := mocks.NewMockPersister(ctrl)
		p.EXPECT().Source().Return("mock").AnyTimes()
		p.EXPECT().Load(gomock.Any()).Return([]service.Country{
			{ID: 1, Name: "Canada", Alpha2Code: "CA", Alpha3Code: "CAN"},
			{ID: 2, Name: "Canadia", Alpha2Code: "CA", Alpha3Code: "CAX"},
		}, nil)

		_, err := New(context.Background(), p)
		require.Error(t, err)
	})
}

func TestListCountries(t *testing.T) {
	t.Parallel()

	svc := newStore(t)
	ctx := context.Background()

	countries, err := svc.ListCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bhutan", "Canada", "Australia", "Japan", "United Kingdom"}, names(countries))

	sorted, err := svc.ListCountries(ctx, service.WithSortByName())
	require.NoError(t, err)
	assert.Equal(t, []string{"Australia", "Bhutan", "Canada", "Japan", "United Kingdom"}, names(sorted))

	// sorting never reorders the stored records
	again, err := svc.ListCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, names(countries), names(again))

	// callers get copies
	countries[0].Name = "changed"
	fresh, err := svc.ListCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bhutan", fresh[0].Name)
}

func TestListCountries_SortIsLocaleAware(t *testing.T) {
	t.Parallel()

	svc := newStore(t)
	ctx := context.Background()
	for _, c := range []service.NewCountry{
		{Name: "Åland Islands", Alpha2Code: "AX", Alpha3Code: "ALA"},
		{Name: "Côte d'Ivoire", Alpha2Code: "CI", Alpha3Code: "CIV"},
		{Name: "algeria", Alpha2Code: "DZ", Alpha3Code: "DZA"},
	} {
		_, err := svc.CreateCountry(ctx, c)
		require.NoError(t, err)
	}

	sorted, err := svc.ListCountries(ctx, service.WithSortByName())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Åland Islands", "algeria", "Australia", "Bhutan", "Canada", "Côte d'Ivoire", "Japan", "United Kingdom",
	}, names(sorted))
}

func TestGetCountry(t *testing.T) {
	t.Parallel()

	svc := newStore(t)

	tests := []struct {
		name    string
		code    string
		want    string
		wantErr error
	}{
		{name: "alpha2", code: "CA", want: "Canada"},
		{name: "alpha3", code: "GBR", want: "United Kingdom"},
		{name: "lower case", code: "jpn", want: "Japan"},
		{name: "mixed case", code: "bT", want: "Bhutan"},
		{name: "unknown", code: "XX", wantErr: service.ErrCountryNotFound},
		{name: "empty", code: "", wantErr: service.ErrCountryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := svc.GetCountry(context.Background(), tt.code)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestCreateCountry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("assigns next id and appends", func(t *testing.T) {
		t.Parallel()
		svc := newStore(t)

		created, err := svc.CreateCountry(ctx, service.NewCountry{Name: "Mexico", Alpha2Code: "mx", Alpha3Code: "mex"})
		require.NoError(t, err)
		assert.Equal(t, service.Country{ID: 6, Name: "Mexico", Alpha2Code: "MX", Alpha3Code: "MEX"}, *created)

		countries, err := svc.ListCountries(ctx)
		require.NoError(t, err)
		require.Len(t, countries, 6)
		assert.Equal(t, *created, countries[5])

		got, err := svc.GetCountry(ctx, "mex")
		require.NoError(t, err)
		assert.Equal(t, *created, *got)
	})

	t.Run("conflicts on either code", func(t *testing.T) {
		t.Parallel()
		svc := newStore(t)

		for _, c := range []service.NewCountry{
			{Name: "Chad", Alpha2Code: "CA", Alpha3Code: "TCD"},
			{Name: "Canada", Alpha2Code: "CX", Alpha3Code: "can"},
		} {
			_, err := svc.CreateCountry(ctx, c)
			require.ErrorIs(t, err, service.ErrCountryExists)
		}

		countries, err := svc.ListCountries(ctx)
		require.NoError(t, err)
		assert.Len(t, countries, 5)
	})
}

func TestUpdateCountry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("merges present fields only", func(t *testing.T) {
		t.Parallel()
		svc := newStore(t)

		updated, err := svc.UpdateCountry(ctx, "ca", service.CountryUpdate{Visited: ptr(true)})
		require.NoError(t, err)
		assert.Equal(t, service.Country{ID: 2, Name: "Canada", Alpha2Code: "CA", Alpha3Code: "CAN", Visited: true}, *updated)

		got, err := svc.GetCountry(ctx, "CAN")
		require.NoError(t, err)
		assert.Equal(t, *updated, *got)
	})

	t.Run("changing a code moves the lookup", func(t *testing.T) {
		t.Parallel()
		svc := newStore(t)

		_, err := svc.UpdateCountry(ctx, "JP", service.CountryUpdate{Alpha2Code: ptr("jx")})
		require.NoError(t, err)

		_, err = svc.GetCountry(ctx, "JP")
		require.ErrorIs(t, err, service.ErrCountryNotFound)
		got, err := svc.GetCountry(ctx, "JX")
		require.NoError(t, err)
		assert.Equal(t, "Japan", got.Name)
	})

	t.Run("keeping its own code is not a conflict", func(t *testing.T) {
		t.Parallel()
		svc := newStore(t)

		_, err := svc.UpdateCountry(ctx, "AU", service.CountryUpdate{Alpha2Code: ptr("AU"), Name: ptr("Oz")})
		require.NoError(t, err)
	})

	t.Run("code held by another record", func(t *testing.T) {
		t.Parallel()
		svc := newStore(t)

		_, err := svc.UpdateCountry(ctx, "AU", service.CountryUpdate{Alpha3Code: ptr("JPN")})
		require.ErrorIs(t, err, service.ErrCountryExists)

		got, err := svc.GetCountry(ctx, "AU")
		require.NoError(t, err)
		assert.Equal(t, "AUS", got.Alpha3Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()
		svc := newStore(t)

		_, err := svc.UpdateCountry(ctx, "ZZ", service.CountryUpdate{Visited: ptr(true)})
		require.ErrorIs(t, err, service.ErrCountryNotFound)
	})
}

func TestPaddedCodesSurviveRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "countries.json")
	open := func() service.CountryService {
		p, err := storage.NewFilePersister(path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Close() })
		svc, err := New(ctx, p)
		require.NoError(t, err)
		return svc
	}

	svc := open()
	created, err := svc.CreateCountry(ctx, service.NewCountry{Name: "Xland", Alpha2Code: "x ", Alpha3Code: "XY "})
	require.NoError(t, err)
	assert.Equal(t, "X ", created.Alpha2Code)
	assert.Equal(t, "XY ", created.Alpha3Code)

	_, err = svc.UpdateCountry(ctx, "JP", service.CountryUpdate{Alpha2Code: ptr("j "), Alpha3Code: ptr("jp ")})
	require.NoError(t, err)

	reopened := open()
	countries, err := reopened.ListCountries(ctx)
	require.NoError(t, err)
	require.Len(t, countries, 6)
	assert.Equal(t, service.Country{ID: 4, Name: "Japan", Alpha2Code: "J ", Alpha3Code: "JP "}, countries[3])
	assert.Equal(t, *created, countries[5])

	got, err := reopened.GetCountry(ctx, "xy ")
	require.NoError(t, err)
	assert.Equal(t, "Xland", got.Name)
}

func TestMarkVisited(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newStore(t)

	visited, err := svc.MarkVisited(ctx, "btn")
	require.NoError(t, err)
	assert.True(t, visited.Visited)
	assert.Equal(t, 1, visited.ID)

	again, err := svc.MarkVisited(ctx, "BT")
	require.NoError(t, err)
	assert.Equal(t, *visited, *again)

	countries, err := svc.ListCountries(ctx)
	require.NoError(t, err)
	assert.Len(t, countries, 5, "marking visited never deletes")

	_, err = svc.MarkVisited(ctx, "QQ")
	require.ErrorIs(t, err, service.ErrCountryNotFound)
}

func TestAddToWishlist(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newStore(t)

	added, err := svc.AddToWishlist(ctx, "  Peru ", false)
	require.NoError(t, err)
	assert.Equal(t, service.Country{ID: 6, Name: "Peru"}, *added)

	existing, err := svc.AddToWishlist(ctx, "canada", true)
	require.NoError(t, err)
	assert.Equal(t, 2, existing.ID)
	assert.False(t, existing.Visited, "existing records are returned unchanged")

	_, err = svc.AddToWishlist(ctx, " ", false)
	require.Error(t, err)

	countries, err := svc.ListCountries(ctx)
	require.NoError(t, err)
	assert.Len(t, countries, 6)

	// code-less records do not claim the empty code
	created, err := svc.CreateCountry(ctx, service.NewCountry{Name: "Chile", Alpha2Code: "CL", Alpha3Code: "CHL"})
	require.NoError(t, err)
	assert.Equal(t, 7, created.ID)
}

func TestMutations_PersistenceFailureLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("disk full")
	tests := []struct {
		name   string
		mutate func(service.CountryService) (*service.Country, error)
	}{
		{
			name: "create",
			mutate: func(s service.CountryService) (*service.Country, error) {
				return s.CreateCountry(context.Background(), service.NewCountry{Name: "Mexico", Alpha2Code: "MX", Alpha3Code: "MEX"})
			},
		},
		{
			name: "update",
			mutate: func(s service.CountryService) (*service.Country, error) {
				return s.UpdateCountry(context.Background(), "CA", service.CountryUpdate{Name: ptr("Kanada")})
			},
		},
		{
			name: "mark visited",
			mutate: func(s service.CountryService) (*service.Country, error) {
				return s.MarkVisited(context.Background(), "JP")
			},
		},
		{
			name: "add to wishlist",
			mutate: func(s service.CountryService) (*service.Country, error) {
				return s.AddToWishlist(context.Background(), "Peru", true)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			p := mocks.NewMockPersister(ctrl)
			p.EXPECT().Source().Return("mock").AnyTimes()
			p.EXPECT().Load(gomock.Any()).Return(service.DefaultCountries(), nil)
			p.EXPECT().Save(gomock.Any(), gomock.Any()).Return(saveErr)

			svc, err := New(context.Background(), p)
			require.NoError(t, err)

			got, err := tt.mutate(svc)
			require.ErrorIs(t, err, saveErr)
			var pe *service.PersistenceError
			require.ErrorAs(t, err, &pe)
			assert.Nil(t, got)

			countries, err := svc.ListCountries(context.Background())
			require.NoError(t, err)
			assert.Equal(t, service.DefaultCountries(), countries)
		})
	}
}

func TestMarkVisited_AlreadyVisitedSkipsSave(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	p := mocks.NewMockPersister(ctrl)
	p.EXPECT().Source().Return("mock").AnyTimes()
	p.EXPECT().Load(gomock.Any()).Return(service.DefaultCountries(), nil)

	svc, err := New(context.Background(), p)
	require.NoError(t, err)

	got, err := svc.MarkVisited(context.Background(), "AUS")
	require.NoError(t, err)
	assert.True(t, got.Visited)
}

func TestCheckReadiness(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	p := mocks.NewMockPersister(ctrl)
	p.EXPECT().Source().Return("mock").AnyTimes()
	p.EXPECT().Load(gomock.Any()).Return(service.DefaultCountries(), nil)
	gomock.InOrder(
		p.EXPECT().Ping(gomock.Any()).Return(nil),
		p.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused")),
	)

	svc, err := New(context.Background(), p)
	require.NoError(t, err)

	require.NoError(t, svc.CheckReadiness(context.Background()))
	err = svc.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestConcurrentCreatesGetUniqueIDs(t *testing.T) {
	t.Parallel()

	svc := newStore(t)
	codes := []string{"AA", "AB", "AC", "AD", "AE", "AF", "AG", "AH"}

	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateCountry(context.Background(), service.NewCountry{
				Name:       code,
				Alpha2Code: code,
				Alpha3Code: code + string(rune('A'+i)),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	countries, err := svc.ListCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 5+len(codes))

	seen := map[int]bool{}
	for _, c := range countries {
		assert.False(t, seen[c.ID], "duplicate id %d", c.ID)
		seen[c.ID] = true
	}
}

func TestTracing(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc := newStore(t, WithTracer(tp.Tracer("test")))
	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	_, err := svc.GetCountry(ctx, "XX")
	require.ErrorIs(t, err, service.ErrCountryNotFound)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "countryStore.GetCountry", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code, "a missing country is not a server error")
}
