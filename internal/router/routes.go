// Package router implements client-side navigation: the route table, the
// guard consulted before every navigation, and the Navigator that tracks the
// current view.
package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route names.
const (
	NameLogin       = "Login"
	NameRegister    = "Register"
	NameVerifyEmail = "VerifyEmail"
	NameHome        = "Home"
	NameMap         = "Map"
	NameStatistics  = "Statistics"
	NameProfile     = "Profile"
	NameUpload      = "Upload"
	NameTourDetail  = "TourDetail"
	NameTours       = "Tours"
	NameAdmin       = "Admin"
)

// Well-known paths.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Route describes one navigable view.
type Route struct {
	Name          string
	Pattern       string // chi pattern, e.g. /tour/{id}
	RequiresAuth  bool
	RequiresAdmin bool
}

// DefaultRoutes is the application's route surface.
var DefaultRoutes = []Route{
	{Name: NameLogin, Pattern: LoginPath},
	{Name: NameRegister, Pattern: "/register"},
	{Name: NameVerifyEmail, Pattern: "/verify-email"},
	{Name: NameHome, Pattern: HomePath, RequiresAuth: true},
	{Name: NameMap, Pattern: "/map", RequiresAuth: true},
	{Name: NameStatistics, Pattern: "/statistics", RequiresAuth: true},
	{Name: NameProfile, Pattern: "/profile", RequiresAuth: true},
	{Name: NameUpload, Pattern: "/upload", RequiresAuth: true},
	{Name: NameTourDetail, Pattern: "/tour/{id}", RequiresAuth: true},
	{Name: NameTours, Pattern: "/tours", RequiresAuth: true},
	{Name: NameAdmin, Pattern: "/admin", RequiresAuth: true, RequiresAdmin: true},
}

// Match is a resolved navigation target.
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
}

// Param returns the named URL parameter, or "".
func (m Match) Param(key string) string {
	return m.Params[key]
}

// Table resolves paths to routes using a chi routing tree.
type Table struct {
	mux    *chi.Mux
	routes map[string]Route // by pattern
}

// NewTable builds a table from routes. Later duplicates of a pattern win.
func NewTable(routes []Route) *Table {
	t := &Table{mux: chi.NewRouter(), routes: make(map[string]Route, len(routes))}
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, r := range routes {
		if _, dup := t.routes[r.Pattern]; !dup {
			t.mux.Get(r.Pattern, noop)
		}
		t.routes[r.Pattern] = r
	}
	return t
}

// Resolve matches path against the table.
func (t *Table) Resolve(path string) (Match, bool) {
	path = normalize(path)
	rctx := chi.NewRouteContext()
	pattern := t.mux.Find(rctx, http.MethodGet, path)
	route, ok := t.routes[pattern]
	if pattern == "" || !ok {
		return Match{Path: path}, false
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		params[k] = rctx.URLParams.Values[i]
	}
	return Match{Route: route, Path: path, Params: params}, true
}

// Routes returns the registered routes in no particular order.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r)
	}
	return out
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
