package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T {
	return &v
}

func TestCountryUpdate_Apply(t *testing.T) {
	t.Parallel()

	base := Country{ID: 2, Name: "Canada", Alpha2Code: "CA", Alpha3Code: "CAN", Visited: false}

	tests := []struct {
		name   string
		update CountryUpdate
		want   Country
	}{
		{
			name:   "empty update keeps every field",
			update: CountryUpdate{},
			want:   base,
		},
		{
			name:   "visited only",
			update: CountryUpdate{Visited: ptr(true)},
			want:   Country{ID: 2, Name: "Canada", Alpha2Code: "CA", Alpha3Code: "CAN", Visited: true},
		},
		{
			name:   "codes are upper-cased",
			update: CountryUpdate{Alpha2Code: ptr("cx"), Alpha3Code: ptr("cxr")},
			want:   Country{ID: 2, Name: "Canada", Alpha2Code: "CX", Alpha3Code: "CXR"},
		},
		{
			name:   "padded codes keep their length",
			update: CountryUpdate{Alpha2Code: ptr("x "), Alpha3Code: ptr("xy ")},
			want:   Country{ID: 2, Name: "Canada", Alpha2Code: "X ", Alpha3Code: "XY "},
		},
		{
			name:   "rename",
			update: CountryUpdate{Name: ptr("Kanada")},
			want:   Country{ID: 2, Name: "Kanada", Alpha2Code: "CA", Alpha3Code: "CAN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.update.Apply(base))
		})
	}
}

func TestCountryUpdate_IsEmpty(t *testing.T) {
	t.Parallel()
	assert.True(t, CountryUpdate{}.IsEmpty())
	assert.False(t, CountryUpdate{Visited: ptr(false)}.IsEmpty())
}

func TestCountry_MatchesCode(t *testing.T) {
	t.Parallel()

	c := Country{Name: "Bhutan", Alpha2Code: "BT", Alpha3Code: "BTN"}
	assert.True(t, c.MatchesCode("bt"))
	assert.True(t, c.MatchesCode("BT"))
	assert.True(t, c.MatchesCode("btn"))
	assert.False(t, c.MatchesCode("BTX"))
	assert.False(t, c.MatchesCode(""))
	assert.False(t, c.MatchesCode("bt "))

	codeless := Country{Name: "Peru"}
	assert.False(t, codeless.MatchesCode(""))
}

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"ca", "Can", "x ", " xy", "ÅL"} {
		got := NormalizeCode(code)
		assert.Len(t, []rune(got), len([]rune(code)), code)
		assert.Equal(t, strings.ToUpper(code), got)
	}
}

func TestDefaultCountries(t *testing.T) {
	t.Parallel()

	countries := DefaultCountries()
	assert.Len(t, countries, 5)
	for i, c := range countries {
		assert.Equal(t, i+1, c.ID)
		assert.Len(t, c.Alpha2Code, 2)
		assert.Len(t, c.Alpha3Code, 3)
	}

	// callers get their own copy
	countries[0].Name = "changed"
	assert.Equal(t, "Bhutan", DefaultCountries()[0].Name)
}

func TestPersistenceError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := error(&PersistenceError{Op: "create", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "create")
	assert.Contains(t, err.Error(), "disk full")

	var pe *PersistenceError
	assert.True(t, errors.As(err, &pe))
}
