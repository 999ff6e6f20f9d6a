package router

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/charmbracelet/log"
)

// maxRedirects bounds [Engine.Go]. The policy never needs more than two hops.
const maxRedirects = 4

// SessionSource is the engine's read-only view of the session provider.
type SessionSource interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// IntentKind distinguishes moving to a route from triggering a tool on the current one.
type IntentKind int

const (
	IntentNavigate IntentKind = iota
	IntentActivateTool
)

// Tool is a side action bound to a route rather than a route of its own.
type Tool int

const (
	ToolNone Tool = iota
	ToolCamera
)

func (t Tool) String() string {
	switch t {
	case ToolCamera:
		return "camera"
	default:
		return "none"
	}
}

// Intent is a user or programmatic request handed to [Engine.Dispatch].
type Intent struct {
	Kind IntentKind
	Path string
	Tool Tool
}

// NavigateTo returns a navigation intent.
func NavigateTo(path string) Intent {
	return Intent{Kind: IntentNavigate, Path: path}
}

// Activate returns a tool activation intent.
func Activate(tool Tool) Intent {
	return Intent{Kind: IntentActivateTool, Tool: tool}
}

// Ticket identifies one navigation request. Only the most recently issued ticket may commit.
type Ticket struct {
	Seq  uint64
	Path string
}

// Resolution is the outcome of resolving a [Ticket]: the route, the user it was resolved for,
// and a redirect target when the policy refused the route.
type Resolution struct {
	Ticket   Ticket
	Route    Route
	Query    url.Values
	User     *models.User
	Redirect string
}

// Outcome reports what [Engine.Commit] did.
type Outcome int

const (
	Committed Outcome = iota
	Redirected
	Superseded
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Redirected:
		return "redirected"
	default:
		return "superseded"
	}
}

// State is the navigation state owned by the engine.
type State struct {
	CurrentPath string
	CurrentUser *models.User
}

// Hooks are the engine's side effects, run on commit in order Mount then Load.
// ActivateTool runs for tool intents. Nil hooks are skipped.
type Hooks struct {
	Mount        func(Resolution)
	Load         func(Resolution)
	ActivateTool func(Tool)
}

// Options tunes the access policy.
type Options struct {
	EnforceRoles bool
	Logger       *log.Logger
}

// Engine performs guarded navigation over a [Table].
type Engine struct {
	table    *Table
	sessions SessionSource
	opts     Options
	logger   *log.Logger

	mu    sync.Mutex
	hooks Hooks
	seq   uint64
	state State
}

// NewEngine creates an [Engine].
func NewEngine(table *Table, sessions SessionSource, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{table: table, sessions: sessions, opts: opts, logger: logger}
}

// SetHooks replaces the commit hooks.
func (e *Engine) SetHooks(h Hooks) {
	e.mu.Lock()
	e.hooks = h
	e.mu.Unlock()
}

// Table returns the route table.
func (e *Engine) Table() *Table {
	return e.table
}

// State returns a copy of the navigation state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Navigate issues a new ticket for path, superseding every earlier one.
// Navigating to the current path still issues a ticket and resolves again.
func (e *Engine) Navigate(path string) Ticket {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	return Ticket{Seq: e.seq, Path: path}
}

// Latest reports whether t is the most recently issued ticket.
func (e *Engine) Latest(t Ticket) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return t.Seq == e.seq
}

// Resolve looks up the route for t and applies the access policy against the current session.
// It may block on the session provider and is safe to call off the UI loop.
// A session lookup error is treated as no user.
func (e *Engine) Resolve(ctx context.Context, t Ticket) Resolution {
	route := e.table.Resolve(t.Path)
	_, query := SplitPath(t.Path)

	user, err := e.sessions.CurrentUser(ctx)
	if err != nil {
		e.logger.Warn("session lookup failed, treating as signed out", "path", t.Path, "error", err)
		user = nil
	}

	return Resolution{
		Ticket:   t,
		Route:    route,
		Query:    query,
		User:     user,
		Redirect: Authorize(route, user, e.opts.EnforceRoles),
	}
}

// Authorize applies the access policy in order and returns the redirect target, or "" to allow.
//  1. protected route without a user goes to /login
//  2. /login with a user goes to /
//  3. with enforceRoles, a role-gated route whose role the user lacks goes to /
func Authorize(route Route, user *models.User, enforceRoles bool) string {
	switch {
	case route.RequiresAuth && user == nil:
		return PathLogin
	case route.Path == PathLogin && user != nil:
		return PathHome
	case enforceRoles && route.RequiredRole != "" && user.Role() != route.RequiredRole:
		return PathHome
	}
	return ""
}

// Commit applies r on the UI loop. A superseded resolution writes nothing. A redirect writes
// nothing either; the caller navigates to r.Redirect. Otherwise the state is updated and the
// Mount hook runs before the Load hook.
func (e *Engine) Commit(r Resolution) Outcome {
	e.mu.Lock()
	if r.Ticket.Seq != e.seq {
		e.mu.Unlock()
		e.logger.Debug("dropping superseded navigation", "path", r.Ticket.Path, "seq", r.Ticket.Seq)
		return Superseded
	}
	if r.Redirect != "" {
		e.mu.Unlock()
		e.logger.Debug("navigation redirected", "from", r.Ticket.Path, "to", r.Redirect)
		return Redirected
	}

	e.state = State{CurrentPath: r.Route.Path, CurrentUser: r.User}
	hooks := e.hooks
	e.mu.Unlock()

	if hooks.Mount != nil {
		hooks.Mount(r)
	}
	if hooks.Load != nil {
		hooks.Load(r)
	}
	return Committed
}

// Go navigates to path and resolves and commits synchronously, following redirects.
func (e *Engine) Go(ctx context.Context, path string) (Resolution, error) {
	for hop := 0; hop <= maxRedirects; hop++ {
		r := e.Resolve(ctx, e.Navigate(path))
		switch e.Commit(r) {
		case Committed:
			return r, nil
		case Redirected:
			path = r.Redirect
		case Superseded:
			return r, fmt.Errorf("navigation to %s superseded", path)
		}
	}
	return Resolution{}, fmt.Errorf("too many redirects navigating to %s", path)
}

// Dispatch routes an intent. A navigation intent returns its ticket and true so the caller can
// resolve it. A tool intent runs the ActivateTool hook and returns false without touching routes.
func (e *Engine) Dispatch(in Intent) (Ticket, bool) {
	switch in.Kind {
	case IntentActivateTool:
		e.mu.Lock()
		fn := e.hooks.ActivateTool
		e.mu.Unlock()
		if fn != nil {
			fn(in.Tool)
		}
		return Ticket{}, false
	default:
		return e.Navigate(in.Path), true
	}
}
