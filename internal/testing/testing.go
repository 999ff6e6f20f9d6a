// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/services"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
)

// MockService is an in-memory [services.Service]. Err, when set, fails every call.
type MockService struct {
	mu sync.Mutex

	Videos   []models.Video
	Posts    []models.Post
	Comments map[string][]models.Comment
	Workouts []models.Workout
	Logs     []models.SetLog
	Uploads  []models.ImageFile
	Stats    models.DashboardStats
	Err      error

	likes map[string]bool // postID|userID
	Calls []string
}

var _ services.Service = (*MockService)(nil)

func (m *MockService) call(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
	return m.Err
}

// Called reports how many times the named method ran.
func (m *MockService) Called(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockService) GetVideos(ctx context.Context) ([]models.Video, error) {
	if err := m.call("GetVideos"); err != nil {
		return nil, err
	}
	return m.Videos, nil
}

func (m *MockService) GetVideoByID(ctx context.Context, id string) (*models.Video, error) {
	if err := m.call("GetVideoByID"); err != nil {
		return nil, err
	}
	for _, v := range m.Videos {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, id)
}

func (m *MockService) GetPosts(ctx context.Context, userID string) ([]models.Post, error) {
	if err := m.call("GetPosts"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Post, len(m.Posts))
	for i, p := range m.Posts {
		p.IsLiked = m.likes[p.ID+"|"+userID]
		out[i] = p
	}
	return out, nil
}

func (m *MockService) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error) {
	if err := m.call("ToggleLike"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.likes == nil {
		m.likes = map[string]bool{}
	}
	key := postID + "|" + userID
	action := models.ActionLike
	delta := 1
	if m.likes[key] {
		action, delta = models.ActionUnlike, -1
		delete(m.likes, key)
	} else {
		m.likes[key] = true
	}
	for i := range m.Posts {
		if m.Posts[i].ID == postID {
			m.Posts[i].LikesCount = max(m.Posts[i].LikesCount+delta, 0)
			return &models.LikeResult{Action: action, NewCount: m.Posts[i].LikesCount}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPostNotFound, postID)
}

func (m *MockService) GetComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if err := m.call("GetComments"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Comments[postID], nil
}

func (m *MockService) AddComment(ctx context.Context, postID, userID, content string) (*models.Comment, error) {
	if err := m.call("AddComment"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Comments == nil {
		m.Comments = map[string][]models.Comment{}
	}
	c := models.Comment{ID: shared.GenerateID(), PostID: postID, UserID: userID, Content: content}
	m.Comments[postID] = append(m.Comments[postID], c)
	return &c, nil
}

func (m *MockService) UploadImage(ctx context.Context, file models.ImageFile, userID string) (string, error) {
	if err := m.call("UploadImage"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploads = append(m.Uploads, file)
	return "https://storage.test/" + services.ObjectPath(userID, file), nil
}

func (m *MockService) CreatePost(ctx context.Context, userID, imageURL, caption string) (*models.Post, error) {
	if err := m.call("CreatePost"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := models.Post{ID: shared.GenerateID(), UserID: userID, ImageURL: imageURL, Caption: caption}
	m.Posts = append([]models.Post{p}, m.Posts...)
	return &p, nil
}

func (m *MockService) GetMyWorkouts(ctx context.Context, userID string) ([]models.Workout, error) {
	if err := m.call("GetMyWorkouts"); err != nil {
		return nil, err
	}
	return m.Workouts, nil
}

func (m *MockService) LogWorkoutSet(ctx context.Context, entry models.SetLog) error {
	if err := m.call("LogWorkoutSet"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, entry)
	return nil
}

func (m *MockService) GetDashboardStats(ctx context.Context, userID string) (models.DashboardStats, error) {
	if err := m.call("GetDashboardStats"); err != nil {
		return models.DashboardStats{}, err
	}
	return m.Stats, nil
}

// MockSessions is an in-memory [services.SessionProvider]. Accounts maps email to password.
type MockSessions struct {
	mu        sync.Mutex
	session   *models.Session
	listeners []func(services.AuthEvent, *models.Session)

	Accounts map[string]string
	Profile  models.Profile
}

var _ services.SessionProvider = (*MockSessions)(nil)

// SignedIn returns a [MockSessions] with user already signed in.
func SignedIn(user *models.User) *MockSessions {
	return &MockSessions{session: &models.Session{User: user}}
}

func (m *MockSessions) CurrentSession(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *MockSessions) CurrentUser(ctx context.Context) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	return m.session.User, nil
}

func (m *MockSessions) OnSessionChange(fn func(services.AuthEvent, *models.Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
	i := len(m.listeners) - 1
	return func() {
		m.mu.Lock()
		m.listeners[i] = nil
		m.mu.Unlock()
	}
}

func (m *MockSessions) notify(e services.AuthEvent) {
	m.mu.Lock()
	ls, s := append([]func(services.AuthEvent, *models.Session){}, m.listeners...), m.session
	m.mu.Unlock()
	for _, fn := range ls {
		if fn != nil {
			fn(e, s)
		}
	}
}

func (m *MockSessions) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	m.mu.Lock()
	if pw, ok := m.Accounts[email]; !ok || pw != password {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: invalid login credentials", shared.ErrAuthFailed)
	}
	profile := m.Profile
	m.session = &models.Session{User: &models.User{ID: "user-" + email, Email: email, Profile: &profile}}
	s := m.session
	m.mu.Unlock()
	m.notify(services.EventSignedIn)
	return s, nil
}

func (m *MockSessions) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Accounts[email]; ok {
		return nil, fmt.Errorf("%w: user already registered", shared.ErrAuthFailed)
	}
	if m.Accounts == nil {
		m.Accounts = map[string]string{}
	}
	m.Accounts[email] = password
	return nil, nil
}

func (m *MockSessions) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	m.notify(services.EventSignedOut)
	return nil
}

func (m *MockSessions) AuthorizeURL(provider, redirectTo string) (string, error) {
	return "https://auth.test/authorize?provider=" + provider, nil
}

func (m *MockSessions) ExchangeCode(ctx context.Context, code string) (*models.Session, error) {
	return nil, fmt.Errorf("%w: no pending login", shared.ErrAuthFailed)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
