package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
)

// DroppedSetLog is a set log that was never delivered, with the reason.
type DroppedSetLog struct {
	ID        string
	Entry     models.SetLog
	Reason    string
	CreatedAt time.Time
}

// DroppedSetLogRepository journals set logs the best-effort queue dropped.
type DroppedSetLogRepository struct {
	db *sql.DB
}

// NewDroppedSetLogRepository creates a new [DroppedSetLogRepository] with the given database connection
func NewDroppedSetLogRepository(db *sql.DB) *DroppedSetLogRepository {
	return &DroppedSetLogRepository{db: db}
}

// Record stores entry with reason and returns the generated id.
func (r *DroppedSetLogRepository) Record(entry models.SetLog, reason string) (string, error) {
	id := shared.GenerateID()
	query := `
		INSERT INTO dropped_set_logs (id, user_id, workout_id, exercise_id, load_kg, reps_performed, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, id, entry.UserID, entry.WorkoutID, entry.ExerciseID, entry.LoadKg, entry.RepsPerformed, reason, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to insert dropped set log: %w", err)
	}
	return id, nil
}

// ListByUser returns the user's dropped logs, newest first.
func (r *DroppedSetLogRepository) ListByUser(userID string) ([]DroppedSetLog, error) {
	query := `
		SELECT id, user_id, workout_id, exercise_id, load_kg, reps_performed, reason, created_at
		FROM dropped_set_logs
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dropped set logs: %w", err)
	}
	defer rows.Close()

	var logs []DroppedSetLog
	for rows.Next() {
		var d DroppedSetLog
		if err := rows.Scan(&d.ID, &d.Entry.UserID, &d.Entry.WorkoutID, &d.Entry.ExerciseID,
			&d.Entry.LoadKg, &d.Entry.RepsPerformed, &d.Reason, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dropped set log: %w", err)
		}
		logs = append(logs, d)
	}
	return logs, rows.Err()
}

// Purge deletes the user's dropped logs and reports how many were removed.
func (r *DroppedSetLogRepository) Purge(userID string) (int64, error) {
	result, err := r.db.Exec("DELETE FROM dropped_set_logs WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge dropped set logs: %w", err)
	}
	return result.RowsAffected()
}
