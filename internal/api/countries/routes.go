// Package countries provides the JSON endpoints of the country registry.
package countries

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/country-registry/internal/api/common"
	"github.com/stacklok/country-registry/internal/service"
	"github.com/stacklok/country-registry/internal/validators"
)

// maxBodyBytes bounds the size of a create or update body
const maxBodyBytes = 1 << 20

// Routes handles HTTP requests for the /api/countries endpoints.
type Routes struct {
	service service.CountryService
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.CountryService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates and configures the HTTP router for the country endpoints.
func Router(svc service.CountryService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/", routes.listCountries)
	r.Post("/", routes.createCountry)
	r.Route("/{code}", func(r chi.Router) {
		r.Get("/", routes.getCountry)
		r.Put("/", routes.updateCountry)
		r.Delete("/", routes.markVisited)
	})

	return r
}

// listCountries handles GET /api/countries
func (routes *Routes) listCountries(w http.ResponseWriter, r *http.Request) {
	query, errs := validators.ValidateListQuery(r.URL.Query())
	if errs != nil {
		common.WriteValidationErrors(w, errs)
		return
	}

	var opts []service.ListOption
	if query.Sort {
		opts = append(opts, service.WithSortByName())
	}

	countries, err := routes.service.ListCountries(r.Context(), opts...)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, countries, http.StatusOK)
}

// getCountry handles GET /api/countries/{code}
func (routes *Routes) getCountry(w http.ResponseWriter, r *http.Request) {
	code, errs := common.GetCodeParam(r)
	if errs != nil {
		common.WriteValidationErrors(w, errs)
		return
	}

	country, err := routes.service.GetCountry(r.Context(), code)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, country, http.StatusOK)
}

// createCountry handles POST /api/countries
func (routes *Routes) createCountry(w http.ResponseWriter, r *http.Request) {
	body, errs := readBody(w, r)
	if errs != nil {
		common.WriteValidationErrors(w, errs)
		return
	}

	newCountry, errs := validators.ValidateNewCountry(body)
	if errs != nil {
		common.WriteValidationErrors(w, errs)
		return
	}

	country, err := routes.service.CreateCountry(r.Context(), newCountry)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, country, http.StatusCreated)
}

// updateCountry handles PUT /api/countries/{code}. Path and body problems are reported together.
func (routes *Routes) updateCountry(w http.ResponseWriter, r *http.Request) {
	code, errs := common.GetCodeParam(r)

	var update service.CountryUpdate
	body, bodyErrs := readBody(w, r)
	if bodyErrs == nil {
		update, bodyErrs = validators.ValidateCountryUpdate(body)
	}
	if errs = append(errs, bodyErrs...); len(errs) > 0 {
		common.WriteValidationErrors(w, errs)
		return
	}

	country, err := routes.service.UpdateCountry(r.Context(), code, update)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, country, http.StatusOK)
}

// markVisited handles DELETE /api/countries/{code}. Records are never removed,
// the matching country is flagged as visited instead.
func (routes *Routes) markVisited(w http.ResponseWriter, r *http.Request) {
	code, errs := common.GetCodeParam(r)
	if errs != nil {
		common.WriteValidationErrors(w, errs)
		return
	}

	country, err := routes.service.MarkVisited(r.Context(), code)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, country, http.StatusOK)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, validators.Errors) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, validators.Errors{{
			Type:     "field",
			Msg:      validators.MsgInvalidJSON,
			Location: validators.LocationBody,
		}}
	}
	return body, nil
}
