// Data API implementation of [Service]
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	tableVideos   = "fitflix_videos"
	tablePosts    = "fitgran_posts"
	tableLikes    = "fitgran_likes"
	tableComments = "fitgran_comments"
	tableProfiles = "profiles"
	tableWorkouts = "workouts"
	tableLogs     = "workout_logs"

	authorEmbed  = `*, profiles:user_id (full_name, avatar_url)`
	workoutEmbed = `*,
		items:workout_items (
			id, sets, reps, rest_seconds, suggested_load_kg, order_index,
			exercise:exercises (id, name, image_url, video_url, muscle_group)
		)`
)

// SupabaseService implements [Service] over the hosted data API and storage.
type SupabaseService struct {
	client  *Client
	storage *Storage
	logger  *log.Logger
}

// NewSupabaseService creates a [SupabaseService].
func NewSupabaseService(client *Client, storage *Storage, logger *log.Logger) *SupabaseService {
	return &SupabaseService{client: client, storage: storage, logger: logger}
}

func (s *SupabaseService) GetVideos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	q := From(tableVideos).Select("*").Order("created_at", false)
	if err := s.client.Select(ctx, q, &videos); err != nil {
		return nil, fmt.Errorf("get videos: %w", err)
	}
	return videos, nil
}

func (s *SupabaseService) GetVideoByID(ctx context.Context, id string) (*models.Video, error) {
	if id == "" {
		return nil, shared.ErrVideoNotFound
	}

	var video models.Video
	q := From(tableVideos).Select("*").Eq("id", id).Single()
	if err := s.client.Select(ctx, q, &video); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, id)
		}
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	return &video, nil
}

// GetPosts fetches the feed and the viewer's likes concurrently.
func (s *SupabaseService) GetPosts(ctx context.Context, userID string) ([]models.Post, error) {
	var (
		posts []models.Post
		likes []struct {
			PostID string `json:"post_id"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := From(tablePosts).Select(authorEmbed).Order("created_at", false)
		return s.client.Select(gctx, q, &posts)
	})
	if userID != "" {
		g.Go(func() error {
			q := From(tableLikes).Select("post_id").Eq("user_id", userID)
			if err := s.client.Select(gctx, q, &likes); err != nil {
				s.logger.Warn("failed to load likes, feed shown as unliked", "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get posts: %w", err)
	}

	liked := make(map[string]bool, len(likes))
	for _, l := range likes {
		liked[l.PostID] = true
	}
	for i := range posts {
		posts[i].IsLiked = liked[posts[i].ID]
	}
	return posts, nil
}

// ToggleLike removes the viewer's like when present, adds it otherwise,
// then writes the recounted total back to the post.
func (s *SupabaseService) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error) {
	var existing []struct {
		ID string `json:"id"`
	}
	q := From(tableLikes).Select("id").Eq("post_id", postID).Eq("user_id", userID).Limit(1)
	if err := s.client.Select(ctx, q, &existing); err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	result := &models.LikeResult{}
	if len(existing) > 0 {
		if err := s.client.Delete(ctx, From(tableLikes).Eq("id", existing[0].ID)); err != nil {
			return nil, fmt.Errorf("unlike: %w", err)
		}
		result.Action = models.ActionUnlike
	} else {
		row := map[string]string{"post_id": postID, "user_id": userID}
		if err := s.client.Insert(ctx, From(tableLikes), []any{row}, nil); err != nil {
			return nil, fmt.Errorf("like: %w", err)
		}
		result.Action = models.ActionLike
	}

	count, err := s.client.Count(ctx, From(tableLikes).Eq("post_id", postID))
	if err != nil {
		return nil, fmt.Errorf("recount likes: %w", err)
	}
	result.NewCount = count

	if err := s.client.Update(ctx, From(tablePosts).Eq("id", postID), map[string]int{"likes_count": count}); err != nil {
		s.logger.Warn("failed to store like count", "post", postID, "error", err)
	}
	return result, nil
}

func (s *SupabaseService) GetComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	q := From(tableComments).Select(authorEmbed).Eq("post_id", postID).Order("created_at", true)
	if err := s.client.Select(ctx, q, &comments); err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}
	return comments, nil
}

func (s *SupabaseService) AddComment(ctx context.Context, postID, userID, content string) (*models.Comment, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty comment", shared.ErrInvalidInput)
	}

	var comment models.Comment
	row := map[string]string{"post_id": postID, "user_id": userID, "content": content}
	if err := s.client.Insert(ctx, From(tableComments).Select(authorEmbed).Single(), []any{row}, &comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return &comment, nil
}

func (s *SupabaseService) UploadImage(ctx context.Context, file models.ImageFile, userID string) (string, error) {
	if userID == "" {
		return "", shared.ErrNotAuthenticated
	}
	return s.storage.Upload(ctx, ObjectPath(userID, file), file)
}

func (s *SupabaseService) CreatePost(ctx context.Context, userID, imageURL, caption string) (*models.Post, error) {
	var post models.Post
	row := map[string]string{"user_id": userID, "image_url": imageURL, "caption": caption}
	if err := s.client.Insert(ctx, From(tablePosts).Select("*").Single(), []any{row}, &post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

func (s *SupabaseService) GetMyWorkouts(ctx context.Context, userID string) ([]models.Workout, error) {
	var workouts []models.Workout
	q := From(tableWorkouts).Select(workoutEmbed).Eq("assigned_to", userID).Order("created_at", false)
	if err := s.client.Select(ctx, q, &workouts); err != nil {
		return nil, fmt.Errorf("get workouts: %w", err)
	}
	for i := range workouts {
		workouts[i].SortItems()
	}
	return workouts, nil
}

func (s *SupabaseService) LogWorkoutSet(ctx context.Context, entry models.SetLog) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if err := s.client.Insert(ctx, From(tableLogs), []models.SetLog{entry}, nil); err != nil {
		return fmt.Errorf("log set: %w", err)
	}
	return nil
}

func (s *SupabaseService) GetDashboardStats(ctx context.Context, userID string) (models.DashboardStats, error) {
	count, err := s.client.Count(ctx, From(tableLogs).Eq("user_id", userID))
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return models.DashboardStats{CompletedWorkouts: count}, nil
}
