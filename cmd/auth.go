package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/server"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with e-mail and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))
	password := cmd.String("password")
	if email == "" || password == "" {
		return fmt.Errorf("%w: --email and --password are required", shared.ErrMissingArgument)
	}

	if err := r.connect(ctx); err != nil {
		return err
	}

	r.logger.Info("signing in", "email", email)
	session, err := r.sessions.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	r.writePlain("✓ Signed in as %s\n", session.User.Email)
	if name := session.User.FirstName(); name != "" {
		r.writePlain("Hello, %s!\n", name)
	}
	return nil
}

// AuthSignup creates an account. The backend may require e-mail confirmation before the first login.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.String("name"))
	email := strings.TrimSpace(cmd.String("email"))
	password := cmd.String("password")
	if name == "" || email == "" || password == "" {
		return fmt.Errorf("%w: --name, --email and --password are required", shared.ErrMissingArgument)
	}

	if err := r.connect(ctx); err != nil {
		return err
	}

	r.logger.Info("creating account", "email", email)
	session, err := r.sessions.SignUp(ctx, email, password, map[string]any{"full_name": name})
	if err != nil {
		return err
	}

	r.writePlain("✓ Account created!\n")
	if session == nil {
		r.writePlain("Confirm your e-mail, then run 'espaco auth login --email %s'\n", email)
		return nil
	}
	return r.writePlain("Signed in as %s\n", session.User.Email)
}

// AuthLogout signs out locally and remotely.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	if err := r.sessions.SignOut(ctx); err != nil {
		r.logger.Warn("remote sign out failed", "error", err)
	}
	return r.writePlain("✓ Signed out\n")
}

type authStatus struct {
	SignedIn  bool   `json:"signed_in"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// AuthStatus shows the current session, refreshing it when allowed.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	session, err := r.sessions.CurrentSession(ctx)
	if err != nil {
		return err
	}

	status := authStatus{}
	if session != nil && session.User != nil {
		status = authStatus{
			SignedIn: true,
			Email:    session.User.Email,
			Name:     session.User.DisplayName(),
			Role:     session.User.Role(),
		}
		if session.Token != nil && !session.Token.Expiry.IsZero() {
			status.ExpiresAt = session.Token.Expiry.Format("2006-01-02 15:04:05")
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	if !status.SignedIn {
		return r.writePlain("✗ Not signed in\n")
	}
	r.writePlain("✓ Signed in\n")
	r.writePlain("User: %s <%s>\n", status.Name, status.Email)
	if status.Role != "" {
		r.writePlain("Role: %s\n", status.Role)
	}
	if status.ExpiresAt != "" {
		r.writePlain("Token expires: %s\n", status.ExpiresAt)
	}
	return nil
}

// AuthProvider performs the OAuth provider login with PKCE.
//
// Starts a local HTTP server, opens the browser on the provider's consent page and exchanges
// the returned code for a session.
func (r *Runner) AuthProvider(ctx context.Context, cmd *cli.Command) error {
	provider := strings.TrimSpace(cmd.StringArg("provider"))
	if provider == "" {
		return fmt.Errorf("%w: provider name (e.g. google)", shared.ErrMissingArgument)
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	session, err := r.doOAuth(ctx, provider, cmd.Duration("timeout"), !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	return r.writePlain("Signed in as %s\n", session.User.Email)
}

func (r *Runner) doOAuth(ctx context.Context, provider string, timeout time.Duration, openBrowser bool) (*models.Session, error) {
	handler := server.NewCallbackHandler(r.sessions, shared.GenerateID())
	listener, err := server.Listen(r.config.Server.Addr(), handler, r.logger)
	if err != nil {
		return nil, err
	}

	authURL, err := r.sessions.AuthorizeURL(provider, listener.CallbackURL())
	if err != nil {
		listener.Close()
		return nil, err
	}

	r.writePlain("Opening browser for %s login...\n", provider)
	r.writePlain("If the browser doesn't open, visit:\n%s\n\n", authURL)
	if openBrowser {
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	r.logger.Info("waiting for login callback", "addr", listener.Addr(), "timeout", timeout)
	return listener.Wait(ctx, timeout)
}
