package tasks

import (
	"context"
	"io"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/charmbracelet/log"
)

// SetLogWriter writes a set log to the backend.
type SetLogWriter interface {
	LogWorkoutSet(ctx context.Context, entry models.SetLog) error
}

// Journal keeps set logs that were never delivered.
type Journal interface {
	Record(entry models.SetLog, reason string) (string, error)
}

// SetLogRecorder submits set logs to a [Queue] without waiting for them.
type SetLogRecorder struct {
	queue   *Queue
	writer  SetLogWriter
	journal Journal
	logger  *log.Logger
}

// NewSetLogRecorder creates a [SetLogRecorder]. journal may be nil.
func NewSetLogRecorder(queue *Queue, writer SetLogWriter, journal Journal, logger *log.Logger) *SetLogRecorder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &SetLogRecorder{queue: queue, writer: writer, journal: journal, logger: logger}
}

// Record queues entry for delivery and returns immediately.
func (r *SetLogRecorder) Record(entry models.SetLog) {
	r.queue.Submit(Job{
		Name: "log_set",
		Run: func(ctx context.Context) error {
			return r.writer.LogWorkoutSet(ctx, entry)
		},
		OnDrop: func(reason string) {
			if r.journal == nil {
				return
			}
			if _, err := r.journal.Record(entry, reason); err != nil {
				r.logger.Error("failed to journal dropped set log", "workout", entry.WorkoutID, "error", err)
			}
		},
	})
}
