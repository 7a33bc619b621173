package v0_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	v0 "github.com/stacklok/country-registry/internal/api/v0"
	"github.com/stacklok/country-registry/internal/service/mocks"
	"github.com/stacklok/country-registry/internal/versions"
)

func TestHealthRouter(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockSvc := mocks.NewMockCountryService(ctrl)
	mockSvc.EXPECT().CheckReadiness(gomock.Any()).Return(nil).AnyTimes()

	router := v0.HealthRouter(mockSvc)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantKey    string
	}{
		{name: "health endpoint", path: "/health", wantStatus: http.StatusOK, wantKey: "status"},
		{name: "readiness endpoint - ready", path: "/readiness", wantStatus: http.StatusOK, wantKey: "status"},
		{name: "version endpoint", path: "/version", wantStatus: http.StatusOK, wantKey: "version"},
		{name: "unknown path", path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req, err := http.NewRequest(http.MethodGet, tt.path, nil)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantKey == "" {
				return
			}
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Contains(t, body, tt.wantKey)
		})
	}
}

func TestReadinessNotReady(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockSvc := mocks.NewMockCountryService(ctrl)
	mockSvc.EXPECT().CheckReadiness(gomock.Any()).Return(errors.New("database unreachable"))

	rr := httptest.NewRecorder()
	v0.HealthRouter(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readiness", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var body v0.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "database unreachable")
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	rr := httptest.NewRecorder()
	v0.HealthRouter(mocks.NewMockCountryService(ctrl)).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, versions.GetVersionInfo(), info)
}
