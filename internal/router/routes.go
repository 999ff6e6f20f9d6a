package router

import (
	"fmt"
	"net/url"
	"strings"
)

// ViewKind identifies which screen a route renders.
type ViewKind int

const (
	ViewDashboard ViewKind = iota
	ViewLogin
	ViewRegister
	ViewFitFlix
	ViewPlayer
	ViewFitGran
	ViewWorkouts
	ViewRecipes
	ViewProfile
	ViewAdmin
)

func (v ViewKind) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewLogin:
		return "login"
	case ViewRegister:
		return "register"
	case ViewFitFlix:
		return "fitflix"
	case ViewPlayer:
		return "player"
	case ViewFitGran:
		return "fitgran"
	case ViewWorkouts:
		return "workouts"
	case ViewRecipes:
		return "recipes"
	case ViewProfile:
		return "profile"
	case ViewAdmin:
		return "admin"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// LayoutKind selects the chrome a route is shown in.
type LayoutKind int

const (
	LayoutMain LayoutKind = iota
	LayoutAuth
	LayoutFullscreen
)

func (l LayoutKind) String() string {
	switch l {
	case LayoutMain:
		return "main"
	case LayoutAuth:
		return "auth"
	case LayoutFullscreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// Route paths.
const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathFitFlix  = "/fitflix"
	PathWatch    = "/watch"
	PathFitGran  = "/fitgran"
	PathWorkouts = "/treinos"
	PathRecipes  = "/receitas"
	PathProfile  = "/perfil"
	PathAdmin    = "/admin"

	RoleAdmin = "admin"
)

// Route maps a path to a view and its access policy.
type Route struct {
	Path         string
	View         ViewKind
	RequiresAuth bool
	RequiredRole string
	Layout       LayoutKind
	Title        string
}

// Table is the static route table. Lookups never fail.
type Table struct {
	routes   map[string]Route
	order    []string
	fallback Route
}

// NewTable builds a [Table] from routes. The route for fallback is returned for unknown paths.
func NewTable(fallback string, routes ...Route) (*Table, error) {
	t := &Table{routes: make(map[string]Route, len(routes))}
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route path %q must start with /", r.Path)
		}
		if _, dup := t.routes[r.Path]; dup {
			return nil, fmt.Errorf("duplicate route %q", r.Path)
		}
		t.routes[r.Path] = r
		t.order = append(t.order, r.Path)
	}

	fb, ok := t.routes[fallback]
	if !ok {
		return nil, fmt.Errorf("fallback route %q is not in the table", fallback)
	}
	t.fallback = fb
	return t, nil
}

// DefaultTable returns the application's routes with "/" as the fallback.
func DefaultTable() *Table {
	t, err := NewTable(PathHome,
		Route{Path: PathHome, View: ViewDashboard, RequiresAuth: true, Layout: LayoutMain, Title: "Dashboard"},
		Route{Path: PathLogin, View: ViewLogin, Layout: LayoutAuth, Title: "Login"},
		Route{Path: PathRegister, View: ViewRegister, Layout: LayoutAuth, Title: "Register"},
		Route{Path: PathFitFlix, View: ViewFitFlix, RequiresAuth: true, Layout: LayoutMain, Title: "FitFlix"},
		Route{Path: PathWatch, View: ViewPlayer, RequiresAuth: true, Layout: LayoutFullscreen, Title: "Watch"},
		Route{Path: PathFitGran, View: ViewFitGran, RequiresAuth: true, Layout: LayoutMain, Title: "FitGran"},
		Route{Path: PathWorkouts, View: ViewWorkouts, RequiresAuth: true, Layout: LayoutMain, Title: "Workouts"},
		Route{Path: PathRecipes, View: ViewRecipes, RequiresAuth: true, Layout: LayoutMain, Title: "Recipes"},
		Route{Path: PathProfile, View: ViewProfile, RequiresAuth: true, Layout: LayoutMain, Title: "Profile"},
		Route{Path: PathAdmin, View: ViewAdmin, RequiresAuth: true, RequiredRole: RoleAdmin, Layout: LayoutMain, Title: "Admin"},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve returns the route for path, ignoring any query string. Unknown paths get the fallback route.
func (t *Table) Resolve(path string) Route {
	p, _ := SplitPath(path)
	if r, ok := t.routes[p]; ok {
		return r
	}
	return t.fallback
}

// Lookup reports whether path, without its query, is in the table.
func (t *Table) Lookup(path string) (Route, bool) {
	p, _ := SplitPath(path)
	r, ok := t.routes[p]
	return r, ok
}

// Routes returns the routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, t.routes[p])
	}
	return out
}

// SplitPath separates "/watch?id=1" into "/watch" and its query. A leading "#" is dropped
// and an empty path is "/".
func SplitPath(raw string) (string, url.Values) {
	raw = strings.TrimPrefix(raw, "#")
	p, rawQuery, _ := strings.Cut(raw, "?")
	if p == "" {
		p = PathHome
	}
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		q = url.Values{}
	}
	return p, q
}
