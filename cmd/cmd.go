// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// setupCommand handles local setup: config file and database migrations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml if missing, initialize the local database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead",
			},
		},
		Action: r.SetupDatabase,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with e-mail and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account e-mail",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("ESPACO_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Full name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account e-mail",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("ESPACO_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in user",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:  "provider",
				Usage: "Sign in through an OAuth provider in the browser",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "provider"},
				},
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the login URL without opening it",
					},
				},
				Action: r.AuthProvider,
			},
		},
	}
}

// videosCommand handles FitFlix operations
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "videos",
		Aliases: []string{"fitflix"},
		Usage:   "FitFlix classes",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List classes, newest first",
				Flags:  jsonFlags(),
				Action: r.VideosList,
			},
			{
				Name:  "show",
				Usage: "Show one class",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: append(jsonFlags(), &cli.BoolFlag{
					Name:  "open",
					Usage: "Open the video in the browser",
				}),
				Action: r.VideosShow,
			},
		},
	}
}

// feedCommand handles FitGran operations
func feedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "feed",
		Aliases: []string{"fitgran"},
		Usage:   "FitGran community feed",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List posts, newest first",
				Flags: append(jsonFlags(), &cli.IntFlag{
					Name:  "limit",
					Usage: "Maximum number of posts to show",
					Value: 20,
				}),
				Action: r.FeedList,
			},
			{
				Name:  "like",
				Usage: "Like or unlike a post",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "post"},
				},
				Action: r.FeedLike,
			},
			{
				Name:  "comments",
				Usage: "List a post's comments",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "post"},
				},
				Flags:  jsonFlags(),
				Action: r.FeedComments,
			},
			{
				Name:  "comment",
				Usage: "Comment on a post",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "post"},
					&cli.StringArg{Name: "text"},
				},
				Action: r.FeedComment,
			},
			{
				Name:  "post",
				Usage: "Publish a photo",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "image"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "caption",
						Usage: "Post caption",
					},
				},
				Action: r.FeedPost,
			},
		},
	}
}

// workoutsCommand handles workout operations
func workoutsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "workouts",
		Aliases: []string{"treinos"},
		Usage:   "Assigned workouts",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your workouts and their exercises",
				Flags:  jsonFlags(),
				Action: r.WorkoutsList,
			},
			{
				Name:  "export",
				Usage: "Export a workout as CSV, Markdown or text",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown or text",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (file base for csv, directory for markdown)",
					},
				},
				Action: r.WorkoutsExport,
			},
			{
				Name:   "stats",
				Usage:  "Show completed workout count",
				Flags:  jsonFlags(),
				Action: r.WorkoutsStats,
			},
			{
				Name:  "dropped",
				Usage: "List set logs that could not be delivered",
				Flags: append(jsonFlags(), &cli.BoolFlag{
					Name:  "purge",
					Usage: "Delete the listed entries",
				}),
				Action: r.WorkoutsDropped,
			},
		},
	}
}

// routesCommand prints the route table and optionally resolves a path.
func routesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "routes",
		Usage: "Show the route table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "resolve",
				Usage: "Resolve a path against the current session and print where it lands",
			},
		},
		Action: r.Routes,
	}
}

// tuiCommand returns the top-level command for the interactive client.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "start",
				Usage: "Path to open first",
				Value: "/",
			},
			&cli.StringFlag{
				Name:  "gallery",
				Usage: "Directory offered when picking a photo (default: home directory)",
			},
		},
		Action: r.TUI,
	}
}
