// Package validators checks request input for the country registry before it reaches the service.
package validators

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/stacklok/country-registry/internal/service"
)

// Locations of a rejected value
const (
	LocationBody   = "body"
	LocationParams = "params"
	LocationQuery  = "query"
)

// Messages reported for rejected fields
const (
	MsgName         = "Country name is required and must be a string."
	MsgAlpha2Code   = "Alpha 2 code must be a string of length 2."
	MsgAlpha3Code   = "Alpha 3 code must be a string of length 3."
	MsgVisited      = "Visited status must be a boolean value."
	MsgIDImmutable  = "Country id cannot be changed."
	MsgInvalidValue = "Invalid value"
	MsgInvalidJSON  = "Request body must be a valid JSON object."
)

// FieldError describes one rejected input value
type FieldError struct {
	Type     string `json:"type"`
	Value    any    `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// Errors is the list of rejected values of one request
type Errors []FieldError

// Error implements error
func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		if fe.Path == "" {
			msgs = append(msgs, fe.Msg)
			continue
		}
		msgs = append(msgs, fe.Path+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ListQuery holds the accepted query parameters of the list operation
type ListQuery struct {
	Sort bool
	// Visited is accepted and validated, but the list is not filtered by it
	Visited *bool
}

func fieldError(location, path, msg string, value any) FieldError {
	return FieldError{Type: "field", Value: value, Msg: msg, Path: path, Location: location}
}

// parseBody returns the top-level object of a JSON body. An empty body counts as {}.
func parseBody(body []byte) (gjson.Result, Errors) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return gjson.Parse("{}"), nil
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, Errors{fieldError(LocationBody, "", MsgInvalidJSON, nil)}
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return gjson.Result{}, Errors{fieldError(LocationBody, "", MsgInvalidJSON, nil)}
	}
	return doc, nil
}

func checkName(doc gjson.Result) (string, *FieldError) {
	v := doc.Get("name")
	if v.Type != gjson.String || v.Str == "" {
		fe := fieldError(LocationBody, "name", MsgName, v.Value())
		return "", &fe
	}
	return v.Str, nil
}

func checkCode(doc gjson.Result, path string, length int, msg string) (string, *FieldError) {
	v := doc.Get(path)
	if v.Type != gjson.String || utf8.RuneCountInString(v.Str) != length {
		fe := fieldError(LocationBody, path, msg, v.Value())
		return "", &fe
	}
	return v.Str, nil
}

func checkVisited(doc gjson.Result) (bool, *FieldError) {
	v := doc.Get("visited")
	switch v.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	default:
		fe := fieldError(LocationBody, "visited", MsgVisited, v.Value())
		return false, &fe
	}
}

// ValidateNewCountry checks a create body: name, alpha2Code and alpha3Code are required,
// visited is optional and defaults to false.
func ValidateNewCountry(body []byte) (service.NewCountry, Errors) {
	doc, errs := parseBody(body)
	if errs != nil {
		return service.NewCountry{}, errs
	}

	var country service.NewCountry
	if name, fe := checkName(doc); fe != nil {
		errs = append(errs, *fe)
	} else {
		country.Name = name
	}
	if code, fe := checkCode(doc, "alpha2Code", 2, MsgAlpha2Code); fe != nil {
		errs = append(errs, *fe)
	} else {
		country.Alpha2Code = code
	}
	if code, fe := checkCode(doc, "alpha3Code", 3, MsgAlpha3Code); fe != nil {
		errs = append(errs, *fe)
	} else {
		country.Alpha3Code = code
	}
	if doc.Get("visited").Exists() {
		if visited, fe := checkVisited(doc); fe != nil {
			errs = append(errs, *fe)
		} else {
			country.Visited = visited
		}
	}

	if len(errs) > 0 {
		return service.NewCountry{}, errs
	}
	return country, nil
}

// ValidateCountryUpdate checks an update body. Every field is optional but checked
// by the create rules when present; an id is never accepted.
func ValidateCountryUpdate(body []byte) (service.CountryUpdate, Errors) {
	doc, errs := parseBody(body)
	if errs != nil {
		return service.CountryUpdate{}, errs
	}

	var update service.CountryUpdate
	if id := doc.Get("id"); id.Exists() {
		errs = append(errs, fieldError(LocationBody, "id", MsgIDImmutable, id.Value()))
	}
	if doc.Get("name").Exists() {
		if name, fe := checkName(doc); fe != nil {
			errs = append(errs, *fe)
		} else {
			update.Name = &name
		}
	}
	if doc.Get("alpha2Code").Exists() {
		if code, fe := checkCode(doc, "alpha2Code", 2, MsgAlpha2Code); fe != nil {
			errs = append(errs, *fe)
		} else {
			update.Alpha2Code = &code
		}
	}
	if doc.Get("alpha3Code").Exists() {
		if code, fe := checkCode(doc, "alpha3Code", 3, MsgAlpha3Code); fe != nil {
			errs = append(errs, *fe)
		} else {
			update.Alpha3Code = &code
		}
	}
	if doc.Get("visited").Exists() {
		if visited, fe := checkVisited(doc); fe != nil {
			errs = append(errs, *fe)
		} else {
			update.Visited = &visited
		}
	}

	if len(errs) > 0 {
		return service.CountryUpdate{}, errs
	}
	return update, nil
}

// ValidateCode checks a code path parameter: 2 or 3 characters
func ValidateCode(code string) Errors {
	n := utf8.RuneCountInString(code)
	if n != 2 && n != 3 {
		return Errors{fieldError(LocationParams, "code", MsgInvalidValue, code)}
	}
	return nil
}

// ValidateListQuery checks the optional sort and visited query parameters.
// Both accept true, false, 1 or 0, ignoring case. Only the literal "true"
// turns sorting on; 1 passes validation and keeps insertion order.
func ValidateListQuery(query url.Values) (ListQuery, Errors) {
	var (
		q    ListQuery
		errs Errors
	)

	if query.Has("sort") {
		raw := query.Get("sort")
		if _, ok := parseBool(raw); !ok {
			errs = append(errs, fieldError(LocationQuery, "sort", MsgInvalidValue, raw))
		}
		q.Sort = strings.EqualFold(raw, "true")
	}
	if query.Has("visited") {
		visited, ok := parseBool(query.Get("visited"))
		if !ok {
			errs = append(errs, fieldError(LocationQuery, "visited", MsgInvalidValue, query.Get("visited")))
		}
		q.Visited = &visited
	}

	if len(errs) > 0 {
		return ListQuery{}, errs
	}
	return q, nil
}

// ParseFormBool reads a checkbox style form value. Missing, empty or unparsable values are false.
func ParseFormBool(raw string) bool {
	if strings.EqualFold(strings.TrimSpace(raw), "on") {
		return true
	}
	v, _ := parseBool(raw)
	return v
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}
