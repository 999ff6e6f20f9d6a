package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/log"
)

// CallbackPath is where the provider redirects after login.
const CallbackPath = "/callback"

// Exchanger completes a PKCE login.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*models.Session, error)
}

// CallbackResult is the outcome of a login callback.
type CallbackResult struct {
	Session *models.Session
	err     error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler handles the provider redirect. It serves one callback only.
type CallbackHandler struct {
	exchanger   Exchanger
	state       string
	timeout     time.Duration
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a [CallbackHandler]. When state is not empty the callback must carry it.
func NewCallbackHandler(exchanger Exchanger, state string) *CallbackHandler {
	return &CallbackHandler{
		exchanger:  exchanger,
		state:      state,
		timeout:    30 * time.Second,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{CallbackPath}
}

var page = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #fdf2f8; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 16px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #d63384; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

func render(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Execute(w, struct{ Title, Message string }{title, message})
}

// ServeHTTP validates the state, exchanges the code and delivers the result.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if h.state != "" && q.Get("state") != h.state {
		h.Send(CallbackResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		render(w, http.StatusBadRequest, "Login failed", "Invalid state parameter.")
		return
	}

	code := q.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))
		h.Send(CallbackResult{err: err})
		render(w, http.StatusBadRequest, "Login failed", "The provider did not authorize the login.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		h.Send(CallbackResult{err: fmt.Errorf("code exchange failed: %w", err)})
		render(w, http.StatusInternalServerError, "Login failed", "Could not complete the login. Return to the terminal and try again.")
		return
	}

	h.Send(CallbackResult{Session: session})
	render(w, http.StatusOK, "✓ Welcome to Espaço Mulher", "You can close this window and return to the terminal.")
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

// Listener is a running callback server.
type Listener struct {
	srv     *http.Server
	handler *CallbackHandler
	addr    string
	errc    chan error
	logger  *log.Logger
}

// Listen serves handler on addr behind [Recover] and [Logging].
func Listen(addr string, handler *CallbackHandler, logger *log.Logger) (*Listener, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handler(handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot listen on %s: %v", shared.ErrInvalidConfig, addr, err)
	}

	l := &Listener{
		srv:     &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		handler: handler,
		addr:    ln.Addr().String(),
		errc:    make(chan error, 1),
		logger:  logger,
	}
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.errc <- err
		}
	}()
	logger.Debug("callback listener started", "addr", l.addr)
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() string {
	return l.addr
}

// CallbackURL is the redirect target to hand to the provider.
func (l *Listener) CallbackURL() string {
	u := "http://" + l.addr + CallbackPath
	if l.handler.state != "" {
		u += "?state=" + l.handler.state
	}
	return u
}

// Wait blocks until the callback completes, ctx ends or timeout passes, then shuts the server down.
func (l *Listener) Wait(ctx context.Context, timeout time.Duration) (*models.Session, error) {
	defer l.shutdown()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-l.handler.Result():
		return res.Session, res.Error()
	case err := <-l.errc:
		return nil, fmt.Errorf("callback server failed: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: no login callback within %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the server without waiting for a callback.
func (l *Listener) Close() {
	l.shutdown()
}

func (l *Listener) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.srv.Shutdown(ctx); err != nil {
		l.logger.Warn("callback listener shutdown", "error", err)
	}
}
