package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/formatter"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/repositories"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/services"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/urfave/cli/v3"
)

// WorkoutsList lists the signed-in user's workouts with their exercises.
func (r *Runner) WorkoutsList(ctx context.Context, cmd *cli.Command) error {
	user, err := r.requireUser(ctx)
	if err != nil {
		return err
	}

	workouts, err := r.svc.GetMyWorkouts(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(workouts, cmd.Bool("pretty"))
	}

	if len(workouts) == 0 {
		return r.writePlain("No workouts assigned yet.\n")
	}

	for _, w := range workouts {
		r.writePlainHeader(w.Name)
		if w.Description != "" {
			r.writePlain("%s\n", w.Description)
		}
		r.writePlain("ID: %s · %d exercises · %d sets\n\n", w.ID, len(w.Items), w.TotalSets())
		for i, item := range w.Items {
			name := "Exercise"
			if item.Exercise != nil && item.Exercise.Name != "" {
				name = item.Exercise.Name
			}
			r.writePlain("%2d. %s\n", i+1, name)
			r.writePlain("    %d x %s · rest %s · load %s\n",
				item.Sets, item.Reps, formatter.FormatRest(item.RestSeconds), formatter.FormatLoad(item.SuggestedLoadKg))
		}
		r.writePlain("\n")
	}
	return nil
}

// WorkoutsExport writes one workout to disk as CSV, Markdown or plain text.
func (r *Runner) WorkoutsExport(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: workout id", shared.ErrMissingArgument)
	}

	format := strings.ToLower(cmd.String("format"))
	switch format {
	case "csv", "markdown", "md", "text", "txt":
	default:
		return fmt.Errorf("%w: --format must be csv, markdown or text, got %q", shared.ErrInvalidFlag, format)
	}

	workout, err := r.findWorkout(ctx, id)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	r.logger.Info("exporting workout", "id", workout.ID, "format", format)

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(workout, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s\n", workout.Name)
		r.writePlain("  %s\n", result.ItemsFile)
		return r.writePlain("  %s\n", result.MetadataFile)
	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(workout, output, formatter.CoverURL(workout), r.output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s to %s\n", workout.Name, result.Directory)
		for _, f := range result.Files {
			r.writePlain("  %s\n", f)
		}
		return nil
	default:
		path, err := formatter.WriteTextExport(workout, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %s to %s\n", workout.Name, path)
	}
}

func (r *Runner) findWorkout(ctx context.Context, id string) (*models.Workout, error) {
	user, err := r.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	workouts, err := r.svc.GetMyWorkouts(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	for i := range workouts {
		if workouts[i].ID == id {
			return &workouts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrWorkoutNotFound, id)
}

type workoutStats struct {
	Workouts          int    `json:"workouts"`
	CompletedWorkouts int    `json:"completed_workouts"`
	Backend           string `json:"backend"`
}

// WorkoutsStats prints the dashboard counters.
func (r *Runner) WorkoutsStats(ctx context.Context, cmd *cli.Command) error {
	user, err := r.requireUser(ctx)
	if err != nil {
		return err
	}

	if pg, ok := r.svc.(*services.PostgresService); ok {
		if err := pg.Ping(ctx, r.config.Backend.Timeout()); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
	}

	stats, err := r.svc.GetDashboardStats(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	workouts, err := r.svc.GetMyWorkouts(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	out := workoutStats{
		Workouts:          len(workouts),
		CompletedWorkouts: stats.CompletedWorkouts,
		Backend:           r.backendName(),
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlain("Hello, %s!\n", user.FirstName())
	r.writePlain("Assigned workouts: %d\n", out.Workouts)
	return r.writePlain("Completed: %d\n", out.CompletedWorkouts)
}

func (r *Runner) backendName() string {
	if r.config.Backend.Mode == "" {
		return "rest"
	}
	return r.config.Backend.Mode
}

type droppedEntry struct {
	ID        string  `json:"id"`
	WorkoutID string  `json:"workout_id"`
	Exercise  string  `json:"exercise_id"`
	LoadKg    float64 `json:"load_kg"`
	Reps      int     `json:"reps_performed"`
	Reason    string  `json:"reason"`
	CreatedAt string  `json:"created_at"`
}

// WorkoutsDropped lists set logs the client gave up delivering, optionally purging them.
func (r *Runner) WorkoutsDropped(ctx context.Context, cmd *cli.Command) error {
	user, err := r.requireUser(ctx)
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	repo := repositories.NewDroppedSetLogRepository(db)

	logs, err := repo.ListByUser(user.ID)
	if err != nil {
		return err
	}

	entries := make([]droppedEntry, 0, len(logs))
	for _, d := range logs {
		entries = append(entries, droppedEntry{
			ID:        d.ID,
			WorkoutID: d.Entry.WorkoutID,
			Exercise:  d.Entry.ExerciseID,
			LoadKg:    d.Entry.LoadKg,
			Reps:      d.Entry.RepsPerformed,
			Reason:    d.Reason,
			CreatedAt: d.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(entries, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else if len(entries) == 0 {
		r.writePlain("No dropped set logs.\n")
	} else {
		r.writePlain("Found %d dropped set logs:\n\n", len(entries))
		for _, e := range entries {
			r.writePlain("%s  workout %s · exercise %s · %.1f kg x %d (%s)\n",
				e.CreatedAt, e.WorkoutID, e.Exercise, e.LoadKg, e.Reps, e.Reason)
		}
	}

	if !cmd.Bool("purge") {
		return nil
	}
	n, err := repo.Purge(user.ID)
	if err != nil {
		return err
	}
	r.logger.Info("purged dropped set logs", "count", n)
	if cmd.Bool("json") {
		return nil
	}
	return r.writePlain("✓ Purged %d entries\n", n)
}
