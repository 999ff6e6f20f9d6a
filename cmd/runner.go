package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/repositories"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/services"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The backend is connected lazily so commands that only touch local state (setup, routes)
// work without credentials.
type Runner struct {
	config     *shared.Config
	svc        services.Service
	sessions   services.SessionProvider
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	closeOnce sync.Once
	closers   []func()
}

// RunnerOpts contains configuration options for creating a Runner.
// Service and Sessions replace the configured backend when set.
type RunnerOpts struct {
	Config     *shared.Config
	Service    services.Service
	Sessions   services.SessionProvider
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		svc:        opts.Service,
		sessions:   opts.Sessions,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, videosCommand, feedCommand, workoutsCommand, routesCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, used by the TUI to move log output to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases whatever [Runner.connect] and [Runner.database] opened.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		for i := len(r.closers) - 1; i >= 0; i-- {
			r.closers[i]()
		}
	})
}

// database opens the local SQLite database on first use and applies migrations.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenLocal(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	r.closers = append(r.closers, func() { db.Close() })
	return db, nil
}

// connect builds the session provider and the data facade from the config unless they were injected.
func (r *Runner) connect(ctx context.Context) error {
	if r.svc != nil && r.sessions != nil {
		return nil
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	b := r.config.Backend
	client := services.NewClient(services.ClientOpts{
		URL:        b.URL,
		AnonKey:    b.AnonKey,
		Schema:     b.Schema,
		HTTPClient: r.httpClient,
		RateLimit:  b.RateLimit,
		Timeout:    b.Timeout(),
		Logger:     r.logger,
	})

	if r.sessions == nil {
		var store services.SessionStore
		if b.PersistSession {
			db, err := r.database()
			if err != nil {
				return fmt.Errorf("failed to open session store: %w", err)
			}
			store = repositories.NewSessionRepository(db)
		}
		opts := services.AuthOpts{PersistSession: b.PersistSession, AutoRefreshToken: b.AutoRefreshToken}
		r.sessions = services.NewAuthService(client, store, opts, r.logger)
	}

	if r.svc != nil {
		return nil
	}
	storage := services.NewStorage(client, b.Bucket)
	switch b.Mode {
	case "postgres":
		pg, err := services.NewPostgresService(ctx, b.DSN, b.Schema, storage, r.logger)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, pg.Close)
		r.svc = pg
	default:
		r.svc = services.NewSupabaseService(client, storage, r.logger)
	}
	return nil
}

// requireUser connects and returns the signed-in user.
func (r *Runner) requireUser(ctx context.Context) (*models.User, error) {
	if err := r.connect(ctx); err != nil {
		return nil, err
	}
	user, err := r.sessions.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: run 'espaco auth login' first", shared.ErrNotAuthenticated)
	}
	return user, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
