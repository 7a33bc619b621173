// Package wishlist provides the server-rendered wishlist page and its form endpoint.
package wishlist

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/stacklok/country-registry/internal/service"
	"github.com/stacklok/country-registry/internal/validators"
)

const (
	// PagePath is where the wishlist page is served
	PagePath = "/wishlist"
	// AddPath accepts new wishlist entries
	AddPath = "/addCountry"

	maxFormBytes = 64 << 10
)

//go:embed templates/wishlist.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/wishlist.html"))

// pageData is the data rendered by the wishlist template
type pageData struct {
	Countries []service.Country
}

// Routes handles the wishlist page requests.
type Routes struct {
	service service.CountryService
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.CountryService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates the router serving the wishlist page and the add form endpoint.
func Router(svc service.CountryService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get(PagePath, routes.DisplayWishlist)
	r.Post(AddPath, routes.AddCountry)

	return r
}

// DisplayWishlist handles GET /wishlist
func (routes *Routes) DisplayWishlist(w http.ResponseWriter, r *http.Request) {
	countries, err := routes.service.ListCountries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list countries for wishlist", "error", err)
		http.Error(w, "Failed to load wishlist", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageData{Countries: countries}); err != nil {
		slog.ErrorContext(r.Context(), "Failed to render wishlist", "error", err)
		http.Error(w, "Failed to render wishlist", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// AddCountry handles POST /addCountry. It always redirects back to the wishlist page.
func (routes *Routes) AddCountry(w http.ResponseWriter, r *http.Request) {
	routes.addEntry(w, r)
	http.Redirect(w, r, PagePath, http.StatusFound)
}

func (routes *Routes) addEntry(w http.ResponseWriter, r *http.Request) {
	name, visited, err := readEntry(w, r)
	if err != nil {
		slog.WarnContext(r.Context(), "Ignoring unreadable wishlist entry", "error", err)
		return
	}
	if strings.TrimSpace(name) == "" {
		slog.DebugContext(r.Context(), "Ignoring wishlist entry without a name")
		return
	}

	if _, err := routes.service.AddToWishlist(r.Context(), name, visited); err != nil {
		slog.ErrorContext(r.Context(), "Failed to add country to wishlist", "name", name, "error", err)
	}
}

// readEntry extracts name and visited from a JSON or form encoded body
func readEntry(w http.ResponseWriter, r *http.Request) (string, bool, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return "", false, err
		}
		doc := gjson.ParseBytes(body)
		visited := doc.Get("visited")
		return doc.Get("name").Str, visited.Type == gjson.True || validators.ParseFormBool(visited.Str), nil
	}

	if err := r.ParseForm(); err != nil {
		return "", false, err
	}
	return r.PostForm.Get("name"), validators.ParseFormBool(r.PostForm.Get("visited")), nil
}
