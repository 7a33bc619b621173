package common

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/country-registry/internal/validators"
)

// GetCodeParam extracts, decodes and validates the {code} URL parameter
func GetCodeParam(r *http.Request) (string, validators.Errors) {
	encoded := chi.URLParam(r, "code")

	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return "", validators.Errors{{
			Type:     "field",
			Value:    encoded,
			Msg:      validators.MsgInvalidValue,
			Path:     "code",
			Location: validators.LocationParams,
		}}
	}

	if errs := validators.ValidateCode(decoded); errs != nil {
		return "", errs
	}
	return decoded, nil
}
