package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/media"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/urfave/cli/v3"
)

// VideosList lists FitFlix classes.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	videos, err := r.svc.GetVideos(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(videos, cmd.Bool("pretty"))
	}

	if len(videos) == 0 {
		return r.writePlain("No classes yet.\n")
	}

	r.writePlain("Found %d classes:\n\n", len(videos))
	for i, v := range videos {
		r.writePlain("%d. %s\n", i+1, v.Title)
		if v.Description != "" {
			r.writePlain("   %s\n", v.Description)
		}
		r.writePlain("   ID: %s\n", v.ID)
		if !v.CreatedAt.IsZero() {
			r.writePlain("   Added: %s\n", v.CreatedAt.Format("2006-01-02"))
		}
		r.writePlain("\n")
	}
	return nil
}

// VideosShow prints one class and optionally opens it.
func (r *Runner) VideosShow(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	video, err := r.svc.GetVideoByID(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(video.VideoURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(video, cmd.Bool("pretty"))
	}

	r.writePlainHeader(video.Title)
	if video.Description != "" {
		r.writePlain("%s\n\n", video.Description)
	}
	r.writePlain("▶ %s\n", video.VideoURL)
	if video.ThumbnailURL != "" {
		r.writePlain("Poster: %s\n", video.ThumbnailURL)
	}
	return nil
}

// FeedList lists FitGran posts with the viewer's likes.
func (r *Runner) FeedList(ctx context.Context, cmd *cli.Command) error {
	user, err := r.requireUser(ctx)
	if err != nil {
		return err
	}

	posts, err := r.svc.GetPosts(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if limit := cmd.Int("limit"); limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(posts, cmd.Bool("pretty"))
	}

	if len(posts) == 0 {
		return r.writePlain("No posts yet. Be the first!\n")
	}

	for _, p := range posts {
		heart := "🤍"
		if p.IsLiked {
			heart = "❤️"
		}
		r.writePlain("%s · %s\n", p.Author.Name(), p.CreatedAt.Format("2006-01-02 15:04"))
		if p.Caption != "" {
			r.writePlain("   %s\n", p.Caption)
		}
		r.writePlain("   %s %d   ID: %s\n\n", heart, p.LikesCount, p.ID)
	}
	return nil
}

// FeedLike toggles the viewer's like on a post.
func (r *Runner) FeedLike(ctx context.Context, cmd *cli.Command) error {
	postID := strings.TrimSpace(cmd.StringArg("post"))
	if postID == "" {
		return fmt.Errorf("%w: post id", shared.ErrMissingArgument)
	}
	user, err := r.requireUser(ctx)
	if err != nil {
		return err
	}

	res, err := r.svc.ToggleLike(ctx, postID, user.ID)
	if err != nil {
		return err
	}

	if res.Action == models.ActionLike {
		return r.writePlain("❤️ Liked (%d)\n", res.NewCount)
	}
	return r.writePlain("🤍 Unliked (%d)\n", res.NewCount)
}

// FeedComments lists a post's comments, oldest first.
func (r *Runner) FeedComments(ctx context.Context, cmd *cli.Command) error {
	postID := strings.TrimSpace(cmd.StringArg("post"))
	if postID == "" {
		return fmt.Errorf("%w: post id", shared.ErrMissingArgument)
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	comments, err := r.svc.GetComments(ctx, postID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(comments, cmd.Bool("pretty"))
	}

	if len(comments) == 0 {
		return r.writePlain("Be the first to comment!\n")
	}
	for _, c := range comments {
		r.writePlain("%s: %s\n", c.Author.Name(), c.Content)
	}
	return nil
}

// FeedComment adds a comment to a post.
func (r *Runner) FeedComment(ctx context.Context, cmd *cli.Command) error {
	postID := strings.TrimSpace(cmd.StringArg("post"))
	text := strings.TrimSpace(cmd.StringArg("text"))
	if postID == "" || text == "" {
		return fmt.Errorf("%w: post id and comment text", shared.ErrMissingArgument)
	}
	user, err := r.requireUser(ctx)
	if err != nil {
		return err
	}

	comment, err := r.svc.AddComment(ctx, postID, user.ID, text)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Comment added (%s)\n", comment.ID)
}

// FeedPost uploads a local image and publishes it with a caption.
func (r *Runner) FeedPost(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("image"))
	if path == "" {
		return fmt.Errorf("%w: image path", shared.ErrMissingArgument)
	}

	file, err := media.Gallery{}.Pick(path)
	if err != nil {
		return err
	}

	user, err := r.requireUser(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("uploading image", "file", file.Name, "type", file.ContentType, "bytes", len(file.Data))
	url, err := r.svc.UploadImage(ctx, file, user.ID)
	if err != nil {
		return err
	}

	post, err := r.svc.CreatePost(ctx, user.ID, url, cmd.String("caption"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Posted!\n")
	return r.writePlain("ID: %s\nImage: %s\n", post.ID, post.ImageURL)
}
