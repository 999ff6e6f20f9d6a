// Direct database implementation of [Service]
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresService implements [Service] by querying the backend's schema directly.
// Image uploads still go through [Storage] since objects do not live in the database.
type PostgresService struct {
	pool    *pgxpool.Pool
	storage *Storage
	logger  *log.Logger
}

// NewPostgresService connects to dsn with search_path set to schema.
func NewPostgresService(ctx context.Context, dsn, schema string, storage *Storage, logger *log.Logger) (*PostgresService, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing dsn: %v", shared.ErrInvalidConfig, err)
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging database: %v", shared.ErrServiceUnavailable, err)
	}
	return &PostgresService{pool: pool, storage: storage, logger: logger}, nil
}

// Close closes the connection pool.
func (s *PostgresService) Close() {
	s.pool.Close()
}

func (s *PostgresService) GetVideos(ctx context.Context) ([]models.Video, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, coalesce(title, ''), coalesce(description, ''), coalesce(video_url, ''),
		        coalesce(thumbnail_url, ''), created_at
		 FROM fitflix_videos
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *PostgresService) GetVideoByID(ctx context.Context, id string) (*models.Video, error) {
	var v models.Video
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, coalesce(title, ''), coalesce(description, ''), coalesce(video_url, ''),
		        coalesce(thumbnail_url, ''), created_at
		 FROM fitflix_videos WHERE id::text = $1`, id,
	).Scan(&v.ID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying video %s: %w", id, err)
	}
	return &v, nil
}

func (s *PostgresService) GetPosts(ctx context.Context, userID string) ([]models.Post, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id::text, p.user_id::text, coalesce(p.image_url, ''), coalesce(p.caption, ''),
		        coalesce(p.likes_count, 0), p.created_at,
		        coalesce(pr.full_name, ''), coalesce(pr.avatar_url, ''),
		        EXISTS (SELECT 1 FROM fitgran_likes l WHERE l.post_id = p.id AND l.user_id::text = $1)
		 FROM fitgran_posts p
		 LEFT JOIN profiles pr ON pr.id = p.user_id
		 ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var (
			p      models.Post
			author models.Author
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.ImageURL, &p.Caption, &p.LikesCount, &p.CreatedAt,
			&author.FullName, &author.AvatarURL, &p.IsLiked); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		p.Author = &author
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ToggleLike runs the check, write, recount and counter update in one transaction
// with the post row locked, so concurrent toggles serialise.
func (s *PostgresService) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id::text FROM fitgran_posts WHERE id::text = $1 FOR UPDATE`, postID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPostNotFound, postID)
	}
	if err != nil {
		return nil, fmt.Errorf("locking post: %w", err)
	}

	result := &models.LikeResult{Action: models.ActionUnlike}
	tag, err := tx.Exec(ctx, `DELETE FROM fitgran_likes WHERE post_id::text = $1 AND user_id::text = $2`, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("removing like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx, `INSERT INTO fitgran_likes (post_id, user_id) VALUES ($1, $2)`, postID, userID); err != nil {
			return nil, fmt.Errorf("adding like: %w", err)
		}
		result.Action = models.ActionLike
	}

	if err := tx.QueryRow(ctx, `SELECT count(*) FROM fitgran_likes WHERE post_id::text = $1`, postID).Scan(&result.NewCount); err != nil {
		return nil, fmt.Errorf("counting likes: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE fitgran_posts SET likes_count = $1 WHERE id::text = $2`, result.NewCount, postID); err != nil {
		return nil, fmt.Errorf("updating like count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing like: %w", err)
	}
	return result, nil
}

func (s *PostgresService) GetComments(ctx context.Context, postID string) ([]models.Comment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id::text, c.post_id::text, c.user_id::text, c.content, c.created_at,
		        coalesce(pr.full_name, ''), coalesce(pr.avatar_url, '')
		 FROM fitgran_comments c
		 LEFT JOIN profiles pr ON pr.id = c.user_id
		 WHERE c.post_id::text = $1
		 ORDER BY c.created_at ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func (s *PostgresService) AddComment(ctx context.Context, postID, userID, content string) (*models.Comment, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty comment", shared.ErrInvalidInput)
	}
	row := s.pool.QueryRow(ctx,
		`WITH inserted AS (
		    INSERT INTO fitgran_comments (post_id, user_id, content) VALUES ($1, $2, $3)
		    RETURNING id, post_id, user_id, content, created_at
		 )
		 SELECT i.id::text, i.post_id::text, i.user_id::text, i.content, i.created_at,
		        coalesce(pr.full_name, ''), coalesce(pr.avatar_url, '')
		 FROM inserted i
		 LEFT JOIN profiles pr ON pr.id = i.user_id`, postID, userID, content)
	return scanComment(row)
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var (
		c      models.Comment
		author models.Author
	)
	if err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &author.FullName, &author.AvatarURL); err != nil {
		return nil, fmt.Errorf("scanning comment: %w", err)
	}
	c.Author = &author
	return &c, nil
}

func (s *PostgresService) UploadImage(ctx context.Context, file models.ImageFile, userID string) (string, error) {
	if userID == "" {
		return "", shared.ErrNotAuthenticated
	}
	return s.storage.Upload(ctx, ObjectPath(userID, file), file)
}

func (s *PostgresService) CreatePost(ctx context.Context, userID, imageURL, caption string) (*models.Post, error) {
	p := models.Post{UserID: userID, ImageURL: imageURL, Caption: caption}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO fitgran_posts (user_id, image_url, caption) VALUES ($1, $2, $3)
		 RETURNING id::text, coalesce(likes_count, 0), created_at`,
		userID, imageURL, caption,
	).Scan(&p.ID, &p.LikesCount, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}
	return &p, nil
}

func (s *PostgresService) GetMyWorkouts(ctx context.Context, userID string) ([]models.Workout, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, coalesce(name, ''), coalesce(description, ''), assigned_to::text, created_at
		 FROM workouts
		 WHERE assigned_to::text = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}

	var (
		workouts []models.Workout
		ids      []string
	)
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.AssignedTo, &w.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		workouts = append(workouts, w)
		ids = append(ids, w.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workouts: %w", err)
	}
	if len(ids) == 0 {
		return workouts, nil
	}

	items, err := s.workoutItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range workouts {
		workouts[i].Items = items[workouts[i].ID]
		workouts[i].SortItems()
	}
	return workouts, nil
}

func (s *PostgresService) workoutItems(ctx context.Context, workoutIDs []string) (map[string][]models.WorkoutItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT wi.workout_id::text, wi.id::text, coalesce(wi.sets, 0), coalesce(wi.reps::text, ''),
		        coalesce(wi.rest_seconds, 0), wi.suggested_load_kg::float8, coalesce(wi.order_index, 0),
		        e.id::text, coalesce(e.name, ''), coalesce(e.image_url, ''), coalesce(e.video_url, ''),
		        coalesce(e.muscle_group, '')
		 FROM workout_items wi
		 JOIN exercises e ON e.id = wi.exercise_id
		 WHERE wi.workout_id::text = ANY($1)
		 ORDER BY wi.order_index ASC`, workoutIDs)
	if err != nil {
		return nil, fmt.Errorf("querying workout items: %w", err)
	}
	defer rows.Close()

	items := map[string][]models.WorkoutItem{}
	for rows.Next() {
		var (
			workoutID string
			reps      string
			item      models.WorkoutItem
			ex        models.Exercise
		)
		if err := rows.Scan(&workoutID, &item.ID, &item.Sets, &reps, &item.RestSeconds, &item.SuggestedLoadKg,
			&item.OrderIndex, &ex.ID, &ex.Name, &ex.ImageURL, &ex.VideoURL, &ex.MuscleGroup); err != nil {
			return nil, fmt.Errorf("scanning workout item: %w", err)
		}
		item.Reps = models.Reps(reps)
		item.Exercise = &ex
		items[workoutID] = append(items[workoutID], item)
	}
	return items, rows.Err()
}

func (s *PostgresService) LogWorkoutSet(ctx context.Context, entry models.SetLog) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO workout_logs (user_id, workout_id, exercise_id, load_kg, reps_performed)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.UserID, entry.WorkoutID, entry.ExerciseID, entry.LoadKg, entry.RepsPerformed)
	if err != nil {
		return fmt.Errorf("inserting set log: %w", err)
	}
	return nil
}

func (s *PostgresService) GetDashboardStats(ctx context.Context, userID string) (models.DashboardStats, error) {
	var stats models.DashboardStats
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM workout_logs WHERE user_id::text = $1`, userID).Scan(&stats.CompletedWorkouts)
	if err != nil {
		return stats, fmt.Errorf("counting set logs: %w", err)
	}
	return stats, nil
}

// Ping reports whether the database answers within d.
func (s *PostgresService) Ping(ctx context.Context, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return s.pool.Ping(ctx)
}
