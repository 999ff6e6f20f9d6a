package main

import (
	"context"
	"strings"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/router"
	"github.com/urfave/cli/v3"
)

// signedOut stands in for the session provider when the backend is not configured.
type signedOut struct{}

func (signedOut) CurrentUser(context.Context) (*models.User, error) { return nil, nil }

// Routes prints the route table. With --resolve it runs the access policy for one path.
func (r *Runner) Routes(ctx context.Context, cmd *cli.Command) error {
	table := router.DefaultTable()

	target := strings.TrimSpace(cmd.String("resolve"))
	if target == "" {
		r.writePlain("%-10s %-10s %-6s %-8s %-12s %s\n", "PATH", "VIEW", "AUTH", "ROLE", "LAYOUT", "TITLE")
		for _, route := range table.Routes() {
			auth := "-"
			if route.RequiresAuth {
				auth = "yes"
			}
			role := route.RequiredRole
			if role == "" {
				role = "-"
			}
			r.writePlain("%-10s %-10s %-6s %-8s %-12s %s\n",
				route.Path, route.View, auth, role, route.Layout, route.Title)
		}
		return nil
	}

	var source router.SessionSource = signedOut{}
	if err := r.connect(ctx); err != nil {
		r.logger.Warn("backend unavailable, resolving as signed out", "error", err)
	} else {
		source = r.sessions
	}

	engine := router.NewEngine(table, source, router.Options{EnforceRoles: r.config.App.EnforceRoles, Logger: r.logger})
	res, err := engine.Go(ctx, target)
	if err != nil {
		return err
	}

	landed := engine.State().CurrentPath
	if landed != target {
		r.writePlain("%s → %s\n", target, landed)
	} else {
		r.writePlain("%s\n", landed)
	}
	r.writePlain("View: %s\nLayout: %s\n", res.Route.View, res.Route.Layout)
	if res.User != nil {
		return r.writePlain("User: %s\n", res.User.Email)
	}
	return r.writePlain("User: (signed out)\n")
}
