package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/media"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/repositories"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/tasks"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

// queueDrain bounds how long the TUI waits for queued set logs on exit.
const queueDrain = 5 * time.Second

// TUI launches the interactive client.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/espaco-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	b := r.config.Backend
	queue := tasks.NewQueue(tasks.QueueOpts{
		Rate:    b.RateLimit,
		Timeout: b.Timeout(),
		Logger:  r.logger,
	})
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), queueDrain)
		defer cancel()
		if err := queue.Close(drainCtx); err != nil {
			r.logger.Warn("set log queue did not drain", "error", err)
		}
		stats := queue.Stats()
		r.logger.Info("set log queue closed", "delivered", stats.Delivered, "failed", stats.Failed, "dropped", stats.Dropped)
	}()

	var journal tasks.Journal
	if db, err := r.database(); err != nil {
		r.logger.Warn("dropped set logs will not be kept", "error", err)
	} else {
		journal = repositories.NewDroppedSetLogRepository(db)
	}

	app := r.config.App
	model := ui.NewModel(ctx, r.svc, r.sessions, ui.Options{
		AppName:          app.Name,
		SocialRoute:      app.SocialRoute,
		FullscreenChrome: app.FullscreenChrome,
		EnforceRoles:     app.EnforceRoles,
		StartPath:        cmd.String("start"),
		Timeout:          b.Timeout(),
		Camera:           media.Unavailable{},
		Gallery:          media.NewGallery(cmd.String("gallery")),
		Recorder:         tasks.NewSetLogRecorder(queue, r.svc, journal, r.logger),
		Logger:           r.logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
