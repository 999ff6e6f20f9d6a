package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// tokenResponse is the auth service's session payload.
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func (r tokenResponse) session(now time.Time) *models.Session {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
	}
	switch {
	case r.ExpiresAt > 0:
		tok.Expiry = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		tok.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return &models.Session{User: r.User, Token: tok}
}

// AuthOpts mirrors the backend client options.
type AuthOpts struct {
	PersistSession   bool
	AutoRefreshToken bool
}

// AuthService implements [SessionProvider] against the hosted auth endpoints.
//
// When AutoRefreshToken is set the access token is wrapped in an [oauth2.ReuseTokenSource]
// so an expired token is exchanged for a new one on first use. When PersistSession is set
// sessions are written to the [SessionStore] and restored on first lookup.
type AuthService struct {
	client *Client
	store  SessionStore
	opts   AuthOpts
	logger *log.Logger
	now    func() time.Time

	mu        sync.Mutex
	session   *models.Session
	source    oauth2.TokenSource
	restored  bool
	verifier  string
	listeners map[int]func(AuthEvent, *models.Session)
	nextID    int
}

// NewAuthService creates an [AuthService]. store may be nil when sessions are not persisted.
func NewAuthService(client *Client, store SessionStore, opts AuthOpts, logger *log.Logger) *AuthService {
	a := &AuthService{
		client:    client,
		store:     store,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		listeners: map[int]func(AuthEvent, *models.Session){},
	}
	client.SetTokenSource(a)
	return a
}

// Token implements [oauth2.TokenSource] for the data client.
func (a *AuthService) Token() (*oauth2.Token, error) {
	session, err := a.CurrentSession(context.Background())
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return session.Token, nil
}

func (a *AuthService) CurrentSession(ctx context.Context) (*models.Session, error) {
	a.mu.Lock()
	if !a.restored {
		a.restored = true
		a.restoreLocked()
	}
	session, source := a.session, a.source
	a.mu.Unlock()

	if session == nil {
		return nil, nil
	}
	if session.Token.Valid() {
		return session, nil
	}
	if source == nil {
		a.logger.Debug("session expired and refresh disabled")
		a.clear(EventSignedOut)
		return nil, nil
	}

	tok, err := source.Token()
	if err != nil {
		a.clear(EventSignedOut)
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	a.mu.Lock()
	if a.session == nil || a.session.Token.AccessToken == tok.AccessToken {
		session = a.session
		a.mu.Unlock()
		return session, nil
	}
	a.session = &models.Session{User: a.session.User, Token: tok}
	session = a.session
	a.mu.Unlock()

	a.persist(session)
	a.notify(EventTokenRefreshed, session)
	return session, nil
}

func (a *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	session, err := a.CurrentSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	return session.User, nil
}

func (a *AuthService) OnSessionChange(fn func(AuthEvent, *models.Session)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	var resp tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := a.client.postJSON(ctx, authPrefix+"/token?grant_type=password", a.client.anonKey, body, &resp); err != nil {
		return nil, authError(err)
	}
	return a.establish(ctx, resp)
}

func (a *AuthService) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	var resp tokenResponse
	body := map[string]any{"email": email, "password": password, "data": metadata}
	if err := a.client.postJSON(ctx, authPrefix+"/signup", a.client.anonKey, body, &resp); err != nil {
		return nil, authError(err)
	}

	// Accounts that still need email confirmation come back without tokens.
	if resp.AccessToken == "" {
		return nil, nil
	}
	return a.establish(ctx, resp)
}

func (a *AuthService) SignOut(ctx context.Context) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()

	var err error
	if session != nil && session.Token != nil {
		if err = a.client.postJSON(ctx, authPrefix+"/logout", session.Token.AccessToken, struct{}{}, nil); err != nil {
			a.logger.Warn("remote sign out failed, clearing local session", "error", err)
		}
	}
	a.clear(EventSignedOut)
	return err
}

func (a *AuthService) AuthorizeURL(provider, redirectTo string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("%w: provider", shared.ErrMissingArgument)
	}

	verifier := oauth2.GenerateVerifier()
	a.mu.Lock()
	a.verifier = verifier
	a.mu.Unlock()

	params := url.Values{}
	params.Set("provider", provider)
	if redirectTo != "" {
		params.Set("redirect_to", redirectTo)
	}
	params.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	params.Set("code_challenge_method", "s256")
	return a.client.BaseURL() + authPrefix + "/authorize?" + params.Encode(), nil
}

func (a *AuthService) ExchangeCode(ctx context.Context, code string) (*models.Session, error) {
	a.mu.Lock()
	verifier := a.verifier
	a.verifier = ""
	a.mu.Unlock()

	if verifier == "" {
		return nil, fmt.Errorf("%w: no pending provider login", shared.ErrAuthFailed)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	var resp tokenResponse
	body := map[string]string{"auth_code": code, "code_verifier": verifier}
	if err := a.client.postJSON(ctx, authPrefix+"/token?grant_type=pkce", a.client.anonKey, body, &resp); err != nil {
		return nil, authError(err)
	}
	return a.establish(ctx, resp)
}

// establish installs a freshly issued session, attaches the profile and notifies listeners.
func (a *AuthService) establish(ctx context.Context, resp tokenResponse) (*models.Session, error) {
	if resp.AccessToken == "" || resp.User == nil {
		return nil, fmt.Errorf("%w: response carried no session", shared.ErrAuthFailed)
	}

	session := resp.session(a.now())
	a.attachProfile(ctx, session)

	a.mu.Lock()
	a.session = session
	a.source = a.refreshSourceLocked(session.Token)
	a.restored = true
	a.mu.Unlock()

	a.persist(session)
	a.notify(EventSignedIn, session)
	return session, nil
}

// attachProfile loads the profiles row. A missing profile leaves the user without one.
func (a *AuthService) attachProfile(ctx context.Context, session *models.Session) {
	var profile models.Profile
	q := From(tableProfiles).Select("*").Eq("id", session.User.ID).Single()
	if err := a.client.selectAs(ctx, session.Token.AccessToken, q, &profile); err != nil {
		a.logger.Debug("profile not loaded", "user", session.User.ID, "error", err)
		return
	}
	session.User.Profile = &profile
}

func (a *AuthService) refreshSourceLocked(tok *oauth2.Token) oauth2.TokenSource {
	if !a.opts.AutoRefreshToken || tok.RefreshToken == "" {
		return nil
	}
	return oauth2.ReuseTokenSource(tok, &refresher{auth: a, refreshToken: tok.RefreshToken})
}

func (a *AuthService) restoreLocked() {
	if !a.opts.PersistSession || a.store == nil {
		return
	}
	session, err := a.store.Load()
	if err != nil {
		a.logger.Warn("failed to restore session", "error", err)
		return
	}
	if session == nil || session.User == nil || session.Token == nil {
		return
	}
	a.session = session
	a.source = a.refreshSourceLocked(session.Token)
}

func (a *AuthService) persist(session *models.Session) {
	if !a.opts.PersistSession || a.store == nil {
		return
	}
	if err := a.store.Save(session); err != nil {
		a.logger.Warn("failed to persist session", "error", err)
	}
}

func (a *AuthService) clear(event AuthEvent) {
	a.mu.Lock()
	had := a.session != nil
	a.session, a.source = nil, nil
	a.mu.Unlock()

	if a.opts.PersistSession && a.store != nil {
		if err := a.store.Clear(); err != nil {
			a.logger.Warn("failed to clear stored session", "error", err)
		}
	}
	if had {
		a.notify(event, nil)
	}
}

func (a *AuthService) notify(event AuthEvent, session *models.Session) {
	a.mu.Lock()
	fns := make([]func(AuthEvent, *models.Session), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// refresher exchanges a refresh token for a new token pair.
type refresher struct {
	auth         *AuthService
	refreshToken string
}

func (r *refresher) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.auth.client.timeout)
	defer cancel()

	var resp tokenResponse
	body := map[string]string{"refresh_token": r.refreshToken}
	if err := r.auth.client.postJSON(ctx, authPrefix+"/token?grant_type=refresh_token", r.auth.client.anonKey, body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, shared.ErrNoRefreshToken
	}
	if resp.RefreshToken != "" {
		r.refreshToken = resp.RefreshToken
	}
	return resp.session(r.auth.now()).Token, nil
}

// authError maps credential rejections onto [shared.ErrAuthFailed].
func authError(err error) error {
	if errors.Is(err, shared.ErrAPIRequest) || errors.Is(err, shared.ErrNotAuthenticated) {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return err
}
