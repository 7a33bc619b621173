package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/country-registry/internal/service"
	"github.com/stacklok/country-registry/internal/validators"
)

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "not found",
			err:         service.ErrCountryNotFound,
			wantStatus:  http.StatusNotFound,
			wantMessage: MsgCountryNotFound,
		},
		{
			name:        "wrapped conflict",
			err:         fmt.Errorf("create: %w", service.ErrCountryExists),
			wantStatus:  http.StatusConflict,
			wantMessage: MsgCountryExists,
		},
		{
			name:        "persistence failure",
			err:         &service.PersistenceError{Op: "create", Err: errors.New("disk full")},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgPersistFailed,
		},
		{
			name:        "unexpected",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/countries/CA", nil)
			WriteServiceError(rr, req, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body MessageResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}

func TestWriteValidationErrors(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteValidationErrors(rr, validators.ValidateCode("C"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t,
		`{"errors":[{"type":"field","value":"C","msg":"Invalid value","path":"code","location":"params"}]}`,
		rr.Body.String())
}

func TestGetCodeParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		param    string
		want     string
		wantErrs bool
	}{
		{name: "alpha2", param: "ca", want: "ca"},
		{name: "alpha3", param: "CAN", want: "CAN"},
		{name: "encoded", param: "%43A", want: "CA"},
		{name: "too long", param: "CANA", wantErrs: true},
		{name: "too short", param: "C", wantErrs: true},
		{name: "bad escape", param: "C%zz", wantErrs: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("code", tt.param)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, errs := GetCodeParam(req)
			if tt.wantErrs {
				require.Len(t, errs, 1)
				assert.Equal(t, validators.LocationParams, errs[0].Location)
				return
			}
			require.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}
