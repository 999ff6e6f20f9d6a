package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/feed"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/media"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/router"
	tu "github.com/Dgouveia1/mulheres-fitness-app/internal/testing"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/workout"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

// manualClock fires timers only when told to.
type manualClock struct {
	mu  sync.Mutex
	fns []*manualTimer
}

type manualTimer struct {
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() { t.stopped = true }

func (c *manualClock) Every(_ time.Duration, fn func()) workout.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{fn: fn}
	c.fns = append(c.fns, t)
	return t
}

func (c *manualClock) fire() {
	c.mu.Lock()
	timers := append([]*manualTimer(nil), c.fns...)
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.fn()
		}
	}
}

type recorder struct {
	mu      sync.Mutex
	entries []models.SetLog
}

func (r *recorder) Record(e models.SetLog) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

// drive runs cmd and every command it leads to, feeding the messages back into m,
// and drains the inbox after each step.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatal("too many commands")
		}
		c := queue[0]
		queue = queue[1:]
		if c != nil {
			done := make(chan tea.Msg, 1)
			go func() { done <- c() }()
			var msg tea.Msg
			select {
			case msg = <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("command did not return")
			}
			switch msg := msg.(type) {
			case nil, tea.QuitMsg:
			case tea.BatchMsg:
				queue = append(queue, msg...)
			default:
				_, next := m.Update(msg)
				queue = append(queue, next)
			}
		}
		for drained := false; !drained; {
			select {
			case in := <-m.inbox:
				_, next := m.Update(inboxed{msg: in})
				queue = append(queue, next)
			default:
				drained = true
			}
		}
	}
}

// send delivers msg to m and drives whatever follows.
func send(t *testing.T, m *Model, msg tea.Msg) {
	t.Helper()
	_, cmd := m.Update(msg)
	drive(t, m, cmd)
}

func path(m *Model) string {
	return m.engine.State().CurrentPath
}

func ana() *models.User {
	return &models.User{ID: "u1", Email: "ana@example.com", Profile: &models.Profile{FullName: "Ana Clara", Role: "student"}}
}

func newTestModel(t *testing.T, svc *tu.MockService, sessions *tu.MockSessions, opts Options) *Model {
	t.Helper()
	opts.EnforceRoles = true
	opts.FullscreenChrome = true
	if opts.Gallery.Dir == "" {
		opts.Gallery = media.Gallery{Dir: t.TempDir()}
	}
	m := NewModel(context.Background(), svc, sessions, opts)
	t.Cleanup(m.Close)
	send(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	return m
}

func TestNavigation(t *testing.T) {
	t.Run("Signed out start redirects to login", func(t *testing.T) {
		m := newTestModel(t, &tu.MockService{}, &tu.MockSessions{}, Options{})
		drive(t, m, m.navigate("/"))

		if path(m) != router.PathLogin {
			t.Fatalf("expected /login, got %s", path(m))
		}
		if m.layout.Title() != "Login - Espaço Mulher" {
			t.Errorf("unexpected title %q", m.layout.Title())
		}
		if m.layout.ChromeMounted() {
			t.Error("expected no chrome on the auth layout")
		}
		if !strings.Contains(m.View(), "E-MAIL") {
			t.Errorf("expected login form, got:\n%s", m.View())
		}
	})

	t.Run("Only the latest navigation commits", func(t *testing.T) {
		m := newTestModel(t, &tu.MockService{}, tu.SignedIn(ana()), Options{})
		first := m.navigate(router.PathFitFlix)
		second := m.navigate(router.PathProfile)

		drive(t, m, second)
		drive(t, m, first)

		if path(m) != router.PathProfile {
			t.Errorf("expected /perfil to win, got %s", path(m))
		}
	})

	t.Run("Role gated route", func(t *testing.T) {
		m := newTestModel(t, &tu.MockService{}, tu.SignedIn(ana()), Options{})
		drive(t, m, m.navigate(router.PathAdmin))
		if path(m) != router.PathHome {
			t.Errorf("expected redirect home, got %s", path(m))
		}
	})

	t.Run("Nav keys", func(t *testing.T) {
		m := newTestModel(t, &tu.MockService{}, tu.SignedIn(ana()), Options{})
		drive(t, m, m.navigate(router.PathHome))

		send(t, m, keyRunes("2"))
		if path(m) != router.PathWorkouts {
			t.Fatalf("expected /treinos, got %s", path(m))
		}
		if m.nav.Active != 1 {
			t.Errorf("expected nav entry 1 active, got %d", m.nav.Active)
		}
		if m.layout.Renders() != 1 {
			t.Errorf("expected chrome rendered once, got %d", m.layout.Renders())
		}
	})

	t.Run("Resize recomputes the indicator", func(t *testing.T) {
		m := newTestModel(t, &tu.MockService{}, tu.SignedIn(ana()), Options{})
		drive(t, m, m.navigate(router.PathProfile))
		before := m.nav.Offset

		send(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
		if m.nav.Width != 160 || m.nav.Offset <= before {
			t.Errorf("expected offset to grow with width, got %+v (was %d)", m.nav, before)
		}
	})
}

func TestAuthScreens(t *testing.T) {
	t.Run("Login", func(t *testing.T) {
		svc := &tu.MockService{Stats: models.DashboardStats{CompletedWorkouts: 7}}
		sessions := &tu.MockSessions{Accounts: map[string]string{"ana@example.com": "secret"}, Profile: models.Profile{FullName: "Ana Clara"}}
		m := newTestModel(t, svc, sessions, Options{})
		drive(t, m, m.navigate(router.PathLogin))

		send(t, m, keyRunes("ana@example.com"))
		send(t, m, tab)
		send(t, m, keyRunes("secret"))
		send(t, m, enter)

		if path(m) != router.PathHome {
			t.Fatalf("expected dashboard after login, got %s", path(m))
		}
		view := m.View()
		for _, want := range []string{"Ana", "7 workouts", "Dashboard - Espaço Mulher"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in view:\n%s", want, view)
			}
		}
	})

	t.Run("Login failure alerts", func(t *testing.T) {
		m := newTestModel(t, &tu.MockService{}, &tu.MockSessions{}, Options{})
		drive(t, m, m.navigate(router.PathLogin))

		send(t, m, keyRunes("nobody@example.com"))
		send(t, m, enter)
		send(t, m, keyRunes("x"))
		send(t, m, enter)

		if len(m.alerts) != 1 || !strings.HasPrefix(m.alerts[0], "Error: ") {
			t.Fatalf("expected one error alert, got %v", m.alerts)
		}
		if path(m) != router.PathLogin {
			t.Errorf("expected to stay on /login, got %s", path(m))
		}

		send(t, m, enter)
		if len(m.alerts) != 0 {
			t.Error("expected enter to dismiss the alert")
		}
	})

	t.Run("Empty login", func(t *testing.T) {
		m := newTestModel(t, &tu.MockService{}, &tu.MockSessions{}, Options{})
		drive(t, m, m.navigate(router.PathLogin))
		send(t, m, enter)
		send(t, m, enter)
		if diff := cmp.Diff([]string{AlertFillLogin}, m.alerts); diff != "" {
			t.Errorf("alerts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Register", func(t *testing.T) {
		sessions := &tu.MockSessions{}
		m := newTestModel(t, &tu.MockService{}, sessions, Options{})
		drive(t, m, m.navigate(router.PathLogin))
		send(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
		if path(m) != router.PathRegister {
			t.Fatalf("expected /register, got %s", path(m))
		}

		for _, v := range []string{"Beatriz", "bia@example.com", "secret"} {
			send(t, m, keyRunes(v))
			send(t, m, enter)
		}

		if path(m) != router.PathLogin {
			t.Errorf("expected /login after sign up, got %s", path(m))
		}
		if diff := cmp.Diff([]string{AlertAccount}, m.alerts); diff != "" {
			t.Errorf("alerts mismatch (-want +got):\n%s", diff)
		}
		if sessions.Accounts["bia@example.com"] != "secret" {
			t.Error("expected account created")
		}
	})

	t.Run("Sign out", func(t *testing.T) {
		m := newTestModel(t, &tu.MockService{}, tu.SignedIn(ana()), Options{})
		drive(t, m, m.navigate(router.PathProfile))
		if !strings.Contains(m.View(), "ana@example.com") {
			t.Errorf("expected profile email in view:\n%s", m.View())
		}

		send(t, m, keyRunes("x"))
		if path(m) != router.PathLogin {
			t.Errorf("expected /login after sign out, got %s", path(m))
		}
	})
}

func TestPlayer(t *testing.T) {
	svc := &tu.MockService{Videos: []models.Video{{ID: "v1", Title: "Glúteos em casa", VideoURL: "https://cdn.test/v1.mp4"}}}

	t.Run("Missing id", func(t *testing.T) {
		m := newTestModel(t, svc, tu.SignedIn(ana()), Options{})
		drive(t, m, m.navigate(router.PathWatch))

		if path(m) != router.PathFitFlix {
			t.Errorf("expected /fitflix, got %s", path(m))
		}
		if diff := cmp.Diff([]string{AlertVideoNotFound}, m.alerts); diff != "" {
			t.Errorf("alerts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Unknown id", func(t *testing.T) {
		m := newTestModel(t, svc, tu.SignedIn(ana()), Options{})
		drive(t, m, m.navigate(router.PathWatch+"?id=nope"))
		if path(m) != router.PathFitFlix || len(m.alerts) != 1 {
			t.Errorf("expected alert and /fitflix, got %s %v", path(m), m.alerts)
		}
	})

	t.Run("From the list", func(t *testing.T) {
		m := newTestModel(t, svc, tu.SignedIn(ana()), Options{})
		drive(t, m, m.navigate(router.PathFitFlix))
		send(t, m, enter)

		if path(m) != router.PathWatch {
			t.Fatalf("expected /watch, got %s", path(m))
		}
		if m.current.Query.Get("id") != "v1" {
			t.Errorf("expected id v1, got %v", m.current.Query)
		}
		if !strings.Contains(m.View(), "https://cdn.test/v1.mp4") {
			t.Errorf("expected video url in view:\n%s", m.View())
		}

		send(t, m, esc)
		if path(m) != router.PathFitFlix {
			t.Errorf("expected esc back to /fitflix, got %s", path(m))
		}
	})
}

func TestWorkoutSession(t *testing.T) {
	load := 20.0
	svc := &tu.MockService{Workouts: []models.Workout{{
		ID:   "w1",
		Name: "Lower A",
		Items: []models.WorkoutItem{{
			ID: "i1", Sets: 2, Reps: "12", RestSeconds: 1, SuggestedLoadKg: &load,
			Exercise: &models.Exercise{ID: "e1", Name: "Squat", MuscleGroup: "Legs"},
		}},
	}}}
	clock := &manualClock{}
	rec := &recorder{}

	m := newTestModel(t, svc, tu.SignedIn(ana()), Options{Clock: clock, Recorder: rec})
	drive(t, m, m.navigate(router.PathWorkouts))
	if !strings.Contains(m.View(), "Lower A › Squat") {
		t.Fatalf("expected exercise list, got:\n%s", m.View())
	}

	send(t, m, enter)
	if !m.session.Active() {
		t.Fatal("expected a live session")
	}
	if m.loadKg != 20 || m.reps != 12 {
		t.Errorf("expected suggested inputs, got %v kg x %d", m.loadKg, m.reps)
	}

	send(t, m, keyRunes("+"))
	send(t, m, enter)
	if st := m.session.State(); st.Phase != workout.Resting || st.Remaining != 1 {
		t.Fatalf("expected resting, got %+v", st)
	}
	if !strings.Contains(m.View(), "Skip Rest") {
		t.Errorf("expected rest overlay:\n%s", m.View())
	}

	clock.fire()
	drive(t, m, nil)
	if st := m.session.State(); st.Phase != workout.ExerciseActive || st.Set != 2 {
		t.Fatalf("expected set 2 after the countdown, got %+v", st)
	}

	send(t, m, enter)
	if m.session.Active() {
		t.Error("expected the session to end")
	}
	if path(m) != router.PathHome {
		t.Errorf("expected dashboard after completion, got %s", path(m))
	}
	if diff := cmp.Diff([]string{workout.CompletedMessage}, m.alerts); diff != "" {
		t.Errorf("alerts mismatch (-want +got):\n%s", diff)
	}

	want := []models.SetLog{
		{UserID: "u1", WorkoutID: "w1", ExerciseID: "e1", LoadKg: 21, RepsPerformed: 12},
		{UserID: "u1", WorkoutID: "w1", ExerciseID: "e1", LoadKg: 21, RepsPerformed: 12},
	}
	if diff := cmp.Diff(want, rec.entries); diff != "" {
		t.Errorf("set logs mismatch (-want +got):\n%s", diff)
	}
}

func TestFitGran(t *testing.T) {
	posts := func() []models.Post {
		return []models.Post{
			{ID: "p1", UserID: "u2", Caption: "Leg day", LikesCount: 2, Author: &models.Author{FullName: "Bia"}},
			{ID: "p2", UserID: "u3", Caption: "Rest day"},
		}
	}

	t.Run("Like", func(t *testing.T) {
		svc := &tu.MockService{Posts: posts()}
		m := newTestModel(t, svc, tu.SignedIn(ana()), Options{})
		drive(t, m, m.navigate(router.PathFitGran))

		send(t, m, keyRunes("l"))
		got := m.feed.Posts()[0]
		if !got.IsLiked || got.LikesCount != 3 {
			t.Errorf("expected liked with 3, got %+v", got)
		}
		if svc.Called("ToggleLike") != 1 {
			t.Errorf("expected one toggle call, got %d", svc.Called("ToggleLike"))
		}
	})

	t.Run("Double tap", func(t *testing.T) {
		now := time.Unix(0, 0)
		svc := &tu.MockService{Posts: posts()}
		m := newTestModel(t, svc, tu.SignedIn(ana()), Options{Now: func() time.Time { return now }})
		drive(t, m, m.navigate(router.PathFitGran))

		send(t, m, keyRunes("j"))
		send(t, m, enter)
		now = now.Add(feed.DoubleTapWindow / 2)
		send(t, m, enter)

		if p := m.feed.Posts()[1]; !p.IsLiked || p.LikesCount != 1 {
			t.Errorf("expected second post liked, got %+v", p)
		}
	})

	t.Run("Comments", func(t *testing.T) {
		svc := &tu.MockService{Posts: posts()}
		m := newTestModel(t, svc, tu.SignedIn(ana()), Options{})
		drive(t, m, m.navigate(router.PathFitGran))

		send(t, m, keyRunes("c"))
		if !strings.Contains(m.View(), feed.EmptyCommentsMsg) {
			t.Errorf("expected empty comments prompt:\n%s", m.View())
		}

		send(t, m, keyRunes("Bora!"))
		send(t, m, enter)

		c := m.feed.Comments()
		if c == nil || len(c.Lines) != 1 || c.Lines[0].Pending || c.Lines[0].Content != "Bora!" {
			t.Errorf("expected one saved comment, got %+v", c)
		}
		if len(svc.Comments["p1"]) != 1 {
			t.Errorf("expected comment stored, got %v", svc.Comments)
		}

		send(t, m, esc)
		if m.feed.Comments() != nil {
			t.Error("expected sheet closed")
		}
	})

	t.Run("Camera falls back to the gallery", func(t *testing.T) {
		dir := t.TempDir()
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
		if err := os.WriteFile(filepath.Join(dir, "selfie.png"), png, 0o644); err != nil {
			t.Fatal(err)
		}

		svc := &tu.MockService{Posts: posts()}
		m := newTestModel(t, svc, tu.SignedIn(ana()), Options{Gallery: media.Gallery{Dir: dir}})
		drive(t, m, m.navigate(router.PathFitGran))

		send(t, m, keyRunes("3"))
		if path(m) != router.PathFitGran {
			t.Fatalf("expected to stay on /fitgran, got %s", path(m))
		}
		if diff := cmp.Diff([]string{feed.AlertCamera}, m.alerts); diff != "" {
			t.Errorf("alerts mismatch (-want +got):\n%s", diff)
		}
		if !m.picking {
			t.Fatal("expected the gallery picker")
		}

		send(t, m, enter) // dismiss alert
		send(t, m, enter) // pick selfie.png
		send(t, m, keyRunes("Treino pago"))
		send(t, m, enter)

		if m.feed.Draft() != nil {
			t.Error("expected draft cleared after posting")
		}
		if len(svc.Uploads) != 1 || svc.Uploads[0].Name != "selfie.png" {
			t.Errorf("expected one upload, got %v", svc.Uploads)
		}
		if first := m.feed.Posts()[0]; first.Caption != "Treino pago" {
			t.Errorf("expected new post first, got %+v", first)
		}
	})

	t.Run("Repeated camera activation keeps the feed", func(t *testing.T) {
		svc := &tu.MockService{Posts: posts()}
		m := newTestModel(t, svc, tu.SignedIn(ana()), Options{Gallery: media.Gallery{Dir: t.TempDir()}})
		drive(t, m, m.navigate(router.PathFitGran))

		loads := svc.Called("GetPosts")
		renders := m.layout.Renders()

		send(t, m, keyRunes("3"))
		send(t, m, esc)
		send(t, m, keyRunes("3"))
		send(t, m, keyRunes("3"))

		if path(m) != router.PathFitGran {
			t.Errorf("expected to stay on /fitgran, got %s", path(m))
		}
		if got := svc.Called("GetPosts"); got != loads {
			t.Errorf("expected no feed reload, GetPosts called %d times, want %d", got, loads)
		}
		if got := m.layout.Renders(); got != renders {
			t.Errorf("expected no shell render, got %d renders, want %d", got, renders)
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("Dashboard", func(t *testing.T) {
		out := Render(router.ViewDashboard, ViewModel{User: ana(), Stats: &models.DashboardStats{CompletedWorkouts: 5}})
		if !strings.Contains(out, "5 workouts") || !strings.Contains(out, "Ana") {
			t.Errorf("unexpected dashboard:\n%s", out)
		}

		out = Render(router.ViewDashboard, ViewModel{Spinner: "*"})
		if !strings.Contains(out, "Student") || !strings.Contains(out, "Loading") {
			t.Errorf("expected fallback name and loading state:\n%s", out)
		}
	})

	t.Run("Session", func(t *testing.T) {
		p := workout.Panel{Name: "Squat", Button: workout.LabelCompleteSet, Dots: []workout.Dot{workout.DotCompleted, workout.DotCurrent}}
		out := Render(router.ViewWorkouts, ViewModel{Panel: &p, LoadKg: 12.5, Reps: 10})
		for _, want := range []string{"Squat", workout.LabelCompleteSet, "12.5 kg", "Reps: 10"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in:\n%s", want, out)
			}
		}

		p.Resting, p.Remaining = true, 42
		out = Render(router.ViewWorkouts, ViewModel{Panel: &p})
		if !strings.Contains(out, "42") || strings.Contains(out, workout.LabelCompleteSet) {
			t.Errorf("expected rest countdown instead of the button:\n%s", out)
		}
	})

	t.Run("Empty states", func(t *testing.T) {
		if out := Render(router.ViewWorkouts, ViewModel{Empty: true}); !strings.Contains(out, "No workouts yet") {
			t.Errorf("unexpected workouts empty state:\n%s", out)
		}
		if out := Render(router.ViewFitGran, ViewModel{}); !strings.Contains(out, "No posts yet") {
			t.Errorf("unexpected feed empty state:\n%s", out)
		}
	})
}
