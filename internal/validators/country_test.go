package validators

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/country-registry/internal/service"
)

func paths(errs Errors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Path)
	}
	return out
}

func TestValidateNewCountry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		want      service.NewCountry
		wantPaths []string
	}{
		{
			name: "valid without visited",
			body: `{"name":"Chile","alpha2Code":"CL","alpha3Code":"CHL"}`,
			want: service.NewCountry{Name: "Chile", Alpha2Code: "CL", Alpha3Code: "CHL"},
		},
		{
			name: "valid with visited",
			body: `{"name":"Chile","alpha2Code":"cl","alpha3Code":"chl","visited":true}`,
			want: service.NewCountry{Name: "Chile", Alpha2Code: "cl", Alpha3Code: "chl", Visited: true},
		},
		{
			name:      "empty body reports every required field",
			body:      ``,
			wantPaths: []string{"name", "alpha2Code", "alpha3Code"},
		},
		{
			name:      "wrong lengths",
			body:      `{"name":"Chile","alpha2Code":"CHL","alpha3Code":"CL"}`,
			wantPaths: []string{"alpha2Code", "alpha3Code"},
		},
		{
			name:      "wrong types",
			body:      `{"name":42,"alpha2Code":12,"alpha3Code":["CHL"],"visited":"yes"}`,
			wantPaths: []string{"name", "alpha2Code", "alpha3Code", "visited"},
		},
		{
			name:      "empty name",
			body:      `{"name":"","alpha2Code":"CL","alpha3Code":"CHL"}`,
			wantPaths: []string{"name"},
		},
		{
			name: "whitespace name is a non-empty string",
			body: `{"name":"   ","alpha2Code":"CL","alpha3Code":"CHL"}`,
			want: service.NewCountry{Name: "   ", Alpha2Code: "CL", Alpha3Code: "CHL"},
		},
		{
			name: "padded codes are taken as sent",
			body: `{"name":"Xland","alpha2Code":"x ","alpha3Code":"XY "}`,
			want: service.NewCountry{Name: "Xland", Alpha2Code: "x ", Alpha3Code: "XY "},
		},
		{
			name:      "padding counts towards the length",
			body:      `{"name":"Chile","alpha2Code":" CL","alpha3Code":"CHL "}`,
			wantPaths: []string{"alpha2Code", "alpha3Code"},
		},
		{
			name:      "null visited",
			body:      `{"name":"Chile","alpha2Code":"CL","alpha3Code":"CHL","visited":null}`,
			wantPaths: []string{"visited"},
		},
		{
			name:      "malformed json",
			body:      `{"name":`,
			wantPaths: []string{""},
		},
		{
			name:      "array body",
			body:      `[{"name":"Chile"}]`,
			wantPaths: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, errs := ValidateNewCountry([]byte(tt.body))
			if tt.wantPaths != nil {
				require.NotEmpty(t, errs)
				assert.Equal(t, tt.wantPaths, paths(errs))
				for _, e := range errs {
					assert.Equal(t, "field", e.Type)
					assert.Equal(t, LocationBody, e.Location)
				}
				return
			}
			require.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateNewCountry_Messages(t *testing.T) {
	t.Parallel()

	_, errs := ValidateNewCountry([]byte(`{"alpha2Code":"C","alpha3Code":"CH","visited":1}`))
	require.Len(t, errs, 4)
	assert.Equal(t, MsgName, errs[0].Msg)
	assert.Nil(t, errs[0].Value, "missing values are not echoed")
	assert.Equal(t, MsgAlpha2Code, errs[1].Msg)
	assert.Equal(t, "C", errs[1].Value)
	assert.Equal(t, MsgAlpha3Code, errs[2].Msg)
	assert.Equal(t, MsgVisited, errs[3].Msg)
	assert.InDelta(t, 1.0, errs[3].Value, 0)
}

func TestValidateCountryUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		want      service.CountryUpdate
		wantPaths []string
	}{
		{
			name: "empty object",
			body: `{}`,
			want: service.CountryUpdate{},
		},
		{
			name: "visited only",
			body: `{"visited":false}`,
			want: service.CountryUpdate{Visited: ptr(false)},
		},
		{
			name: "all fields",
			body: `{"name":"Kanada","alpha2Code":"KA","alpha3Code":"KAN","visited":true}`,
			want: service.CountryUpdate{Name: ptr("Kanada"), Alpha2Code: ptr("KA"), Alpha3Code: ptr("KAN"), Visited: ptr(true)},
		},
		{
			name:      "id is rejected",
			body:      `{"id":9,"name":"Kanada"}`,
			wantPaths: []string{"id"},
		},
		{
			name:      "present fields are checked",
			body:      `{"name":"","alpha3Code":"CA"}`,
			wantPaths: []string{"name", "alpha3Code"},
		},
		{
			name:      "malformed json",
			body:      `not json`,
			wantPaths: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, errs := ValidateCountryUpdate([]byte(tt.body))
			if tt.wantPaths != nil {
				assert.Equal(t, tt.wantPaths, paths(errs))
				return
			}
			require.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateCode(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"CA", "can", "Ca"} {
		assert.Empty(t, ValidateCode(code), code)
	}
	for _, code := range []string{"", "C", "CANA"} {
		errs := ValidateCode(code)
		require.Len(t, errs, 1, code)
		assert.Equal(t, LocationParams, errs[0].Location)
		assert.Equal(t, "code", errs[0].Path)
		assert.Equal(t, MsgInvalidValue, errs[0].Msg)
	}
}

func TestValidateListQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		want      ListQuery
		wantPaths []string
	}{
		{name: "no params", query: "", want: ListQuery{}},
		{name: "sort true", query: "sort=true", want: ListQuery{Sort: true}},
		{name: "sort upper case", query: "sort=TRUE", want: ListQuery{Sort: true}},
		{name: "sort numeric is accepted without sorting", query: "sort=1", want: ListQuery{}},
		{name: "sort zero", query: "sort=0", want: ListQuery{}},
		{name: "sort false", query: "sort=false", want: ListQuery{}},
		{name: "visited accepted", query: "visited=0", want: ListQuery{Visited: ptr(false)}},
		{name: "sort invalid", query: "sort=yes", wantPaths: []string{"sort"}},
		{name: "empty sort", query: "sort=", wantPaths: []string{"sort"}},
		{name: "both invalid", query: "sort=x&visited=y", wantPaths: []string{"sort", "visited"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, errs := ValidateListQuery(values)
			if tt.wantPaths != nil {
				assert.Equal(t, tt.wantPaths, paths(errs))
				for _, e := range errs {
					assert.Equal(t, LocationQuery, e.Location)
				}
				return
			}
			require.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormBool(t *testing.T) {
	t.Parallel()

	assert.True(t, ParseFormBool("on"))
	assert.True(t, ParseFormBool("true"))
	assert.True(t, ParseFormBool("1"))
	assert.False(t, ParseFormBool(""))
	assert.False(t, ParseFormBool("off"))
	assert.False(t, ParseFormBool("false"))
}

func TestErrors_JSONShape(t *testing.T) {
	t.Parallel()

	_, errs := ValidateNewCountry([]byte(`{"name":"Chile","alpha2Code":"C","alpha3Code":"CHL"}`))
	data, err := json.Marshal(errs)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"type":"field","value":"C","msg":"Alpha 2 code must be a string of length 2.","path":"alpha2Code","location":"body"}]`,
		string(data))
	assert.Contains(t, errs.Error(), "alpha2Code")
}

func ptr[T any](v T) *T {
	return &v
}
