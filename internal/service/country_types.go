package service

import "strings"

// Country is a single registry record
type Country struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Alpha2Code string `json:"alpha2Code"`
	Alpha3Code string `json:"alpha3Code"`
	Visited    bool   `json:"visited"`
}

// NewCountry holds the fields accepted when creating a country
type NewCountry struct {
	Name       string `json:"name"`
	Alpha2Code string `json:"alpha2Code"`
	Alpha3Code string `json:"alpha3Code"`
	Visited    bool   `json:"visited"`
}

// CountryUpdate holds a partial set of fields to merge onto an existing country.
// Nil fields are left untouched.
type CountryUpdate struct {
	Name       *string `json:"name,omitempty"`
	Alpha2Code *string `json:"alpha2Code,omitempty"`
	Alpha3Code *string `json:"alpha3Code,omitempty"`
	Visited    *bool   `json:"visited,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (u CountryUpdate) IsEmpty() bool {
	return u.Name == nil && u.Alpha2Code == nil && u.Alpha3Code == nil && u.Visited == nil
}

// Apply returns a copy of c with the present fields of u merged in
func (u CountryUpdate) Apply(c Country) Country {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Alpha2Code != nil {
		c.Alpha2Code = NormalizeCode(*u.Alpha2Code)
	}
	if u.Alpha3Code != nil {
		c.Alpha3Code = NormalizeCode(*u.Alpha3Code)
	}
	if u.Visited != nil {
		c.Visited = *u.Visited
	}
	return c
}

// NormalizeCode returns the canonical upper-case form of an alpha-2 or alpha-3 code.
// Only the case changes, so the result keeps the length that was validated.
func NormalizeCode(code string) string {
	return strings.ToUpper(code)
}

// MatchesCode reports whether code equals either of the country's codes, ignoring case
func (c *Country) MatchesCode(code string) bool {
	code = NormalizeCode(code)
	if code == "" {
		return false
	}
	return c.Alpha2Code == code || c.Alpha3Code == code
}

// DefaultCountries returns the records the registry starts with when no snapshot is stored
func DefaultCountries() []Country {
	return []Country{
		{ID: 1, Name: "Bhutan", Alpha2Code: "BT", Alpha3Code: "BTN", Visited: false},
		{ID: 2, Name: "Canada", Alpha2Code: "CA", Alpha3Code: "CAN", Visited: false},
		{ID: 3, Name: "Australia", Alpha2Code: "AU", Alpha3Code: "AUS", Visited: true},
		{ID: 4, Name: "Japan", Alpha2Code: "JP", Alpha3Code: "JPN", Visited: false},
		{ID: 5, Name: "United Kingdom", Alpha2Code: "GB", Alpha3Code: "GBR", Visited: true},
	}
}
