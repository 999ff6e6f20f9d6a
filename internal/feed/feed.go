// package feed holds the FitGran screen state: posts with optimistic likes, the comments
// sheet, camera activation and new-post composition.
//
// Methods that only change local state are meant for the UI loop. Methods taking a
// context call the backend and may block; run them off the loop.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/media"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/log"
)

// DoubleTapWindow is the longest gap between two taps that still counts as a double tap.
const DoubleTapWindow = 300 * time.Millisecond

const (
	AlertCamera      = "Could not access the camera. Use the gallery."
	AlertNoPhoto     = "No photo selected!"
	AlertUpload      = "Could not upload the image. Check your connection."
	AlertCreatePost  = "Could not create the post."
	EmptyCommentsMsg = "Be the first to comment! 👇"
)

// Backend is the part of the data facade the feed uses.
type Backend interface {
	GetPosts(ctx context.Context, userID string) ([]models.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error)
	GetComments(ctx context.Context, postID string) ([]models.Comment, error)
	AddComment(ctx context.Context, postID, userID, content string) (*models.Comment, error)
	UploadImage(ctx context.Context, file models.ImageFile, userID string) (string, error)
	CreatePost(ctx context.Context, userID, imageURL, caption string) (*models.Post, error)
}

// Hooks receive side effects. Nil hooks are skipped.
type Hooks struct {
	Alert func(msg string)
	// OpenGallery asks the UI to show the file picker.
	OpenGallery func()
	// Changed is called after any state change made off the UI loop.
	Changed func()
}

// Options configures a [Controller].
type Options struct {
	Camera media.Camera
	Now    func() time.Time
	Logger *log.Logger
}

// CommentLine is one row of the comments sheet. Pending rows are shown dimmed until saved.
type CommentLine struct {
	LocalID string
	Author  string
	Content string
	Pending bool
	Failed  bool
}

// Comments is the open comments sheet.
type Comments struct {
	PostID  string
	Lines   []CommentLine
	Loading bool
}

// Draft is a new post being composed.
type Draft struct {
	File       *models.ImageFile
	Caption    string
	Submitting bool
}

// Controller owns the feed state for one signed-in user.
type Controller struct {
	backend Backend
	camera  media.Camera
	now     func() time.Time
	logger  *log.Logger

	mu       sync.Mutex
	hooks    Hooks
	userID   string
	posts    []models.Post
	lastTap  map[string]time.Time
	comments *Comments
	stream   media.Stream
	opening  bool
	draft    *Draft
}

// NewController creates a [Controller].
func NewController(backend Backend, opts Options) *Controller {
	c := &Controller{backend: backend, camera: opts.Camera, now: opts.Now, logger: opts.Logger, lastTap: map[string]time.Time{}}
	if c.camera == nil {
		c.camera = media.Unavailable{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// SetHooks replaces the hooks.
func (c *Controller) SetHooks(h Hooks) {
	c.mu.Lock()
	c.hooks = h
	c.mu.Unlock()
}

func (c *Controller) getHooks() Hooks {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hooks
}

func (c *Controller) alert(msg string) {
	if fn := c.getHooks().Alert; fn != nil {
		fn(msg)
	}
}

func (c *Controller) changed() {
	if fn := c.getHooks().Changed; fn != nil {
		fn()
	}
}

// Init binds the controller to userID, dropping state from a previous user.
func (c *Controller) Init(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != userID {
		c.posts = nil
		c.comments = nil
		c.draft = nil
		clear(c.lastTap)
	}
	c.userID = userID
}

// Load fetches the feed. On error the feed is left empty.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	posts, err := c.backend.GetPosts(ctx, userID)
	if err != nil {
		c.logger.Warn("failed to load feed", "error", err)
		posts = nil
	}
	c.SetPosts(posts)
	return err
}

// SetPosts replaces the feed.
func (c *Controller) SetPosts(posts []models.Post) {
	c.mu.Lock()
	c.posts = posts
	c.mu.Unlock()
}

// Posts returns a copy of the feed.
func (c *Controller) Posts() []models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Post(nil), c.posts...)
}

func (c *Controller) postLocked(postID string) *models.Post {
	for i := range c.posts {
		if c.posts[i].ID == postID {
			return &c.posts[i]
		}
	}
	return nil
}

// Flip toggles the like locally: liking adds one, unliking removes one but never below zero.
// It reports false when the post is not in the feed.
func (c *Controller) Flip(postID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.postLocked(postID)
	if p == nil {
		return false
	}
	if p.IsLiked {
		p.IsLiked = false
		p.LikesCount = max(p.LikesCount-1, 0)
	} else {
		p.IsLiked = true
		p.LikesCount++
	}
	return true
}

// Sync sends the toggle to the backend. Failures are logged and the optimistic state stays.
// A successful response replaces the local count with the backend's.
func (c *Controller) Sync(ctx context.Context, postID string) error {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	res, err := c.backend.ToggleLike(ctx, postID, userID)
	if err != nil {
		c.logger.Warn("like toggle failed", "post", postID, "error", err)
		return err
	}

	c.mu.Lock()
	if p := c.postLocked(postID); p != nil && res != nil {
		p.LikesCount = res.NewCount
		p.IsLiked = res.Action == models.ActionLike
	}
	c.mu.Unlock()
	c.changed()
	return nil
}

// Toggle is [Controller.Flip] followed by [Controller.Sync].
func (c *Controller) Toggle(ctx context.Context, postID string) error {
	if !c.Flip(postID) {
		return fmt.Errorf("%w: %s", shared.ErrPostNotFound, postID)
	}
	return c.Sync(ctx, postID)
}

// Tap registers a tap on a post. A second tap within [DoubleTapWindow] on a post that is not
// yet liked flips it and reports true; the caller then runs [Controller.Sync].
// A double tap never unlikes.
func (c *Controller) Tap(postID string) bool {
	now := c.now()

	c.mu.Lock()
	last, ok := c.lastTap[postID]
	if !ok || now.Sub(last) > DoubleTapWindow {
		c.lastTap[postID] = now
		c.mu.Unlock()
		return false
	}
	delete(c.lastTap, postID)
	p := c.postLocked(postID)
	liked := p == nil || p.IsLiked
	c.mu.Unlock()

	if liked {
		return false
	}
	return c.Flip(postID)
}

// OpenComments shows the comments sheet for postID in its loading state.
func (c *Controller) OpenComments(postID string) {
	c.mu.Lock()
	c.comments = &Comments{PostID: postID, Loading: true}
	c.mu.Unlock()
}

// CloseComments hides the sheet.
func (c *Controller) CloseComments() {
	c.mu.Lock()
	c.comments = nil
	c.mu.Unlock()
}

// Comments returns the open sheet, or nil.
func (c *Controller) Comments() *Comments {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.comments == nil {
		return nil
	}
	cp := *c.comments
	cp.Lines = append([]CommentLine(nil), c.comments.Lines...)
	return &cp
}

// LoadComments fills the open sheet. A failed read leaves the sheet empty.
func (c *Controller) LoadComments(ctx context.Context) error {
	c.mu.Lock()
	if c.comments == nil {
		c.mu.Unlock()
		return nil
	}
	postID := c.comments.PostID
	c.mu.Unlock()

	items, err := c.backend.GetComments(ctx, postID)
	if err != nil {
		c.logger.Warn("failed to load comments", "post", postID, "error", err)
	}

	c.mu.Lock()
	if c.comments != nil && c.comments.PostID == postID {
		lines := make([]CommentLine, 0, len(items))
		for _, it := range items {
			lines = append(lines, CommentLine{LocalID: it.ID, Author: it.Author.Name(), Content: it.Content})
		}
		// keep comments typed while loading
		for _, l := range c.comments.Lines {
			if l.Pending {
				lines = append(lines, l)
			}
		}
		c.comments.Lines = lines
		c.comments.Loading = false
	}
	c.mu.Unlock()
	c.changed()
	return err
}

// AddPending appends content to the open sheet as a pending line. Blank content or a closed
// sheet is ignored.
func (c *Controller) AddPending(content string) (CommentLine, bool) {
	content = strings.TrimSpace(content)
	c.mu.Lock()
	defer c.mu.Unlock()
	if content == "" || c.comments == nil {
		return CommentLine{}, false
	}
	line := CommentLine{LocalID: shared.GenerateID(), Author: "You", Content: content, Pending: true}
	c.comments.Lines = append(c.comments.Lines, line)
	return line, true
}

// SendComment stores a pending line and clears its pending marker. On failure the line is
// marked failed.
func (c *Controller) SendComment(ctx context.Context, postID string, line CommentLine) error {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	_, err := c.backend.AddComment(ctx, postID, userID, line.Content)
	if err != nil {
		c.logger.Warn("failed to add comment", "post", postID, "error", err)
	}

	c.mu.Lock()
	if c.comments != nil && c.comments.PostID == postID {
		for i := range c.comments.Lines {
			if c.comments.Lines[i].LocalID == line.LocalID {
				c.comments.Lines[i].Pending = false
				c.comments.Lines[i].Failed = err != nil
			}
		}
	}
	c.mu.Unlock()
	c.changed()
	return err
}

// ActivateCamera opens the camera unless it is already open or opening. When the camera
// cannot be opened the user is told and the gallery is offered instead.
func (c *Controller) ActivateCamera(ctx context.Context) error {
	c.mu.Lock()
	if c.stream != nil || c.opening {
		c.mu.Unlock()
		return nil
	}
	c.opening = true
	c.mu.Unlock()

	stream, err := c.camera.Open(ctx)

	c.mu.Lock()
	c.opening = false
	if err == nil {
		c.stream = stream
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("camera unavailable", "error", err)
		c.alert(AlertCamera)
		if fn := c.getHooks().OpenGallery; fn != nil {
			fn()
		}
		if errors.Is(err, shared.ErrMediaAccess) {
			return err
		}
		return fmt.Errorf("%w: %v", shared.ErrMediaAccess, err)
	}
	return nil
}

// CameraOpen reports whether a capture stream is live.
func (c *Controller) CameraOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// Capture takes a photo from the open camera, closes it and starts a draft with the photo.
func (c *Controller) Capture(ctx context.Context) error {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return fmt.Errorf("%w: camera is not open", shared.ErrMediaAccess)
	}

	file, err := stream.Capture(ctx)
	c.CloseCamera()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMediaAccess, err)
	}
	c.Select(file)
	return nil
}

// CloseCamera releases the capture stream.
func (c *Controller) CloseCamera() {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()
	if stream != nil {
		if err := stream.Close(); err != nil {
			c.logger.Warn("failed to close camera", "error", err)
		}
	}
}

// Select starts a draft with file.
func (c *Controller) Select(file models.ImageFile) {
	c.mu.Lock()
	c.draft = &Draft{File: &file}
	c.mu.Unlock()
}

// SetCaption sets the draft caption, creating an empty draft when none exists.
func (c *Controller) SetCaption(caption string) {
	c.mu.Lock()
	if c.draft == nil {
		c.draft = &Draft{}
	}
	c.draft.Caption = caption
	c.mu.Unlock()
}

// Draft returns the post being composed, or nil.
func (c *Controller) Draft() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return nil
	}
	d := *c.draft
	return &d
}

// DiscardDraft closes the composer.
func (c *Controller) DiscardDraft() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
}

// Submit uploads the draft's image, creates the post and reloads the feed. A missing
// image is reported to the user without calling the backend.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.draft == nil || c.draft.File == nil {
		c.mu.Unlock()
		c.alert(AlertNoPhoto)
		return fmt.Errorf("%w: no photo selected", shared.ErrMissingArgument)
	}
	if c.draft.Submitting {
		c.mu.Unlock()
		return nil
	}
	c.draft.Submitting = true
	file, caption, userID := *c.draft.File, c.draft.Caption, c.userID
	c.mu.Unlock()

	fail := func(msg string, err error) error {
		c.mu.Lock()
		if c.draft != nil {
			c.draft.Submitting = false
		}
		c.mu.Unlock()
		c.logger.Warn("post submit failed", "error", err)
		c.alert(msg)
		return err
	}

	url, err := c.backend.UploadImage(ctx, file, userID)
	if err != nil {
		return fail(AlertUpload, err)
	}
	if _, err := c.backend.CreatePost(ctx, userID, url, caption); err != nil {
		return fail(AlertCreatePost, err)
	}

	c.DiscardDraft()
	_ = c.Load(ctx)
	c.changed()
	return nil
}
