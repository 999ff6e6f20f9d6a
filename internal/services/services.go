// package services defines the data and session facades over the hosted backend
package services

import (
	"context"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
)

// Service is the data facade consumed by the views. Every operation is request/response;
// reads that fail leave it to the caller to render an empty state.
type Service interface {
	// GetVideos lists FitFlix lessons, newest first.
	GetVideos(ctx context.Context) ([]models.Video, error)

	// GetVideoByID returns a single lesson or [shared.ErrVideoNotFound].
	GetVideoByID(ctx context.Context, id string) (*models.Video, error)

	// GetPosts lists FitGran posts, newest first, with IsLiked computed for userID.
	// An empty userID leaves every post unliked.
	GetPosts(ctx context.Context, userID string) ([]models.Post, error)

	// ToggleLike likes or unlikes postID for userID and recounts the post's likes.
	ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error)

	// GetComments lists a post's comments, oldest first.
	GetComments(ctx context.Context, postID string) ([]models.Comment, error)

	// AddComment stores a comment and returns it with the author embedded.
	AddComment(ctx context.Context, postID, userID, content string) (*models.Comment, error)

	// UploadImage stores file under the user's folder and returns its public URL.
	UploadImage(ctx context.Context, file models.ImageFile, userID string) (string, error)

	// CreatePost publishes a post for an already uploaded image.
	CreatePost(ctx context.Context, userID, imageURL, caption string) (*models.Post, error)

	// GetMyWorkouts lists workouts assigned to userID with items sorted by OrderIndex.
	GetMyWorkouts(ctx context.Context, userID string) ([]models.Workout, error)

	// LogWorkoutSet records one performed set.
	LogWorkoutSet(ctx context.Context, entry models.SetLog) error

	// GetDashboardStats counts the user's logged sets.
	GetDashboardStats(ctx context.Context, userID string) (models.DashboardStats, error)
}

// AuthEvent names a session transition delivered to [SessionProvider.OnSessionChange] listeners.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// SessionProvider owns the authenticated session. Readers never mutate what it returns.
type SessionProvider interface {
	// CurrentSession returns the live session, refreshing it when allowed.
	// A nil session with a nil error means nobody is signed in.
	CurrentSession(ctx context.Context) (*models.Session, error)

	// CurrentUser is CurrentSession reduced to its user.
	CurrentUser(ctx context.Context) (*models.User, error)

	// OnSessionChange registers fn and returns a function that unregisters it.
	OnSessionChange(fn func(AuthEvent, *models.Session)) (unsubscribe func())

	SignIn(ctx context.Context, email, password string) (*models.Session, error)

	// SignUp creates an account. The returned session is nil when the backend requires email confirmation.
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.Session, error)

	SignOut(ctx context.Context) error

	// AuthorizeURL starts an OAuth provider login with PKCE and returns the URL to open.
	AuthorizeURL(provider, redirectTo string) (string, error)

	// ExchangeCode completes the flow started by AuthorizeURL.
	ExchangeCode(ctx context.Context, code string) (*models.Session, error)
}

// SessionStore persists a session between runs.
type SessionStore interface {
	Load() (*models.Session, error)
	Save(session *models.Session) error
	Clear() error
}
