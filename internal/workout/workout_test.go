package workout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/google/go-cmp/cmp"
)

// fakeClock fires timers only when told to.
type fakeClock struct {
	timers []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() { t.stopped = true }

func (c *fakeClock) Every(_ time.Duration, fn func()) Timer {
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// fire calls every timer's callback, including stopped ones whose tick was already in flight.
func (c *fakeClock) fire() {
	for _, t := range c.timers {
		t.fn()
	}
}

func (c *fakeClock) running() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type stubSource struct {
	workouts []models.Workout
	err      error
}

func (s stubSource) GetMyWorkouts(context.Context, string) ([]models.Workout, error) {
	return s.workouts, s.err
}

type stubSessions struct{ user *models.User }

func (s stubSessions) CurrentUser(context.Context) (*models.User, error) { return s.user, nil }

type recorder struct {
	mu      sync.Mutex
	entries []models.SetLog
}

func (r *recorder) Record(e models.SetLog) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func item(id string, sets, rest int) models.WorkoutItem {
	return models.WorkoutItem{
		ID: "item-" + id, Sets: sets, Reps: "12", RestSeconds: rest,
		Exercise: &models.Exercise{ID: id, Name: "Exercise " + id},
	}
}

func newController(t *testing.T, items ...models.WorkoutItem) (*Controller, *fakeClock, *recorder) {
	t.Helper()
	clock := &fakeClock{}
	rec := &recorder{}
	src := stubSource{workouts: []models.Workout{{ID: "w1", Name: "Legs", Items: items}}}
	c := NewController(src, stubSessions{user: &models.User{ID: "u1"}}, rec, Options{Clock: clock})
	return c, clock, rec
}

func TestController(t *testing.T) {
	ctx := context.Background()

	t.Run("One item, two sets, five seconds rest", func(t *testing.T) {
		c, clock, rec := newController(t, item("ex1", 2, 5))

		var completed bool
		c.SetHooks(Hooks{Complete: func() { completed = true }})

		if err := c.Open(ctx, "w1", 0); err != nil {
			t.Fatalf("open: %v", err)
		}
		if diff := cmp.Diff(State{Phase: ExerciseActive, ItemIndex: 0, Set: 1}, c.State()); diff != "" {
			t.Fatalf("after open (-want +got):\n%s", diff)
		}

		if err := c.LogSet(20, 12); err != nil {
			t.Fatalf("log set: %v", err)
		}
		if diff := cmp.Diff(State{Phase: Resting, ItemIndex: 0, Set: 1, Remaining: 5}, c.State()); diff != "" {
			t.Fatalf("after first set (-want +got):\n%s", diff)
		}

		for range 5 {
			clock.fire()
		}
		if diff := cmp.Diff(State{Phase: ExerciseActive, ItemIndex: 0, Set: 2}, c.State()); diff != "" {
			t.Fatalf("after rest (-want +got):\n%s", diff)
		}
		if clock.running() != 0 {
			t.Errorf("expected timer stopped on expiry, %d running", clock.running())
		}

		if err := c.LogSet(20, 10); err != nil {
			t.Fatalf("log set: %v", err)
		}
		if c.State().Phase != Completed || !completed {
			t.Errorf("expected completed, got %v (hook %v)", c.State(), completed)
		}
		if c.Active() {
			t.Error("expected session destroyed on completion")
		}

		want := []models.SetLog{
			{UserID: "u1", WorkoutID: "w1", ExerciseID: "ex1", LoadKg: 20, RepsPerformed: 12},
			{UserID: "u1", WorkoutID: "w1", ExerciseID: "ex1", LoadKg: 20, RepsPerformed: 10},
		}
		if diff := cmp.Diff(want, rec.entries); diff != "" {
			t.Errorf("recorded logs (-want +got):\n%s", diff)
		}
	})

	t.Run("Sets drive into next exercise", func(t *testing.T) {
		c, _, _ := newController(t, item("a", 3, 0), item("b", 1, 0))
		if err := c.Open(ctx, "w1", 0); err != nil {
			t.Fatalf("open: %v", err)
		}

		for want := 1; want <= 3; want++ {
			st := c.State()
			if st.Phase != ExerciseActive || st.ItemIndex != 0 || st.Set != want {
				t.Fatalf("expected set %d active, got %+v", want, st)
			}
			_ = c.LogSet(0, 10)
		}
		if diff := cmp.Diff(State{Phase: ExerciseActive, ItemIndex: 1, Set: 1}, c.State()); diff != "" {
			t.Errorf("expected next exercise (-want +got):\n%s", diff)
		}
	})

	t.Run("Skip rest", func(t *testing.T) {
		c, clock, _ := newController(t, item("a", 2, 60))
		_ = c.Open(ctx, "w1", 0)
		_ = c.LogSet(0, 10)

		c.SkipRest()
		if diff := cmp.Diff(State{Phase: ExerciseActive, Set: 2}, c.State()); diff != "" {
			t.Errorf("after skip (-want +got):\n%s", diff)
		}
		if clock.running() != 0 {
			t.Error("expected timer cancelled on skip")
		}

		clock.fire()
		if c.State().Set != 2 {
			t.Errorf("stale tick changed state: %+v", c.State())
		}
	})

	t.Run("Log while resting ends the rest first", func(t *testing.T) {
		c, _, rec := newController(t, item("a", 3, 30))
		_ = c.Open(ctx, "w1", 0)
		_ = c.LogSet(10, 10)
		_ = c.LogSet(12, 8)

		if diff := cmp.Diff(State{Phase: Resting, Set: 2, Remaining: 30}, c.State()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if len(rec.entries) != 2 {
			t.Errorf("expected two logs, got %d", len(rec.entries))
		}
	})

	t.Run("At most one timer", func(t *testing.T) {
		c, clock, _ := newController(t, item("a", 3, 10))
		_ = c.Open(ctx, "w1", 0)

		_ = c.LogSet(0, 10) // timer A
		_ = c.LogSet(0, 10) // ends rest, timer B
		if len(clock.timers) != 2 || !clock.timers[0].stopped || clock.timers[1].stopped {
			t.Fatalf("expected A stopped and B running")
		}

		clock.timers[0].fn()
		if got := c.State().Remaining; got != 10 {
			t.Errorf("cancelled timer ticked: remaining %d", got)
		}
		clock.timers[1].fn()
		if got := c.State().Remaining; got != 9 {
			t.Errorf("expected live timer to tick, remaining %d", got)
		}
	})

	t.Run("Close cancels timer", func(t *testing.T) {
		c, clock, _ := newController(t, item("a", 2, 10))
		_ = c.Open(ctx, "w1", 0)
		_ = c.LogSet(0, 10)

		c.Close()
		if clock.running() != 0 || c.Active() || c.State().Phase != Idle {
			t.Errorf("expected idle without timer, got %+v", c.State())
		}
		clock.fire()
		if c.State().Phase != Idle {
			t.Error("tick after close changed state")
		}
		if err := c.LogSet(0, 10); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput without a session, got %v", err)
		}
	})

	t.Run("Open failures alert", func(t *testing.T) {
		tc := []struct {
			name    string
			user    *models.User
			id      string
			index   int
			want    error
			message string
		}{
			{"signed out", nil, "w1", 0, shared.ErrNotAuthenticated, "Sign in to train."},
			{"unknown workout", &models.User{ID: "u1"}, "nope", 0, shared.ErrWorkoutNotFound, "Workout not found."},
			{"bad index", &models.User{ID: "u1"}, "w1", 4, shared.ErrInvalidArgument, "Could not open the workout. Try again."},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				src := stubSource{workouts: []models.Workout{{ID: "w1", Items: []models.WorkoutItem{item("a", 1, 0)}}}}
				c := NewController(src, stubSessions{user: tt.user}, nil, Options{Clock: &fakeClock{}})

				var alerts []string
				c.SetHooks(Hooks{Alert: func(m string) { alerts = append(alerts, m) }})

				err := c.Open(ctx, tt.id, tt.index)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if len(alerts) != 1 || alerts[0] != tt.message {
					t.Errorf("expected alert %q, got %v", tt.message, alerts)
				}
				if c.Active() {
					t.Error("expected no session")
				}
			})
		}
	})

	t.Run("Backend error", func(t *testing.T) {
		src := stubSource{err: shared.ErrServiceUnavailable}
		c := NewController(src, stubSessions{user: &models.User{ID: "u1"}}, nil, Options{Clock: &fakeClock{}})
		if _, err := c.Prepare(ctx, "w1"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected backend error, got %v", err)
		}
	})
}

func TestPanel(t *testing.T) {
	load := 12.5
	video := item("a", 3, 45)
	video.SuggestedLoadKg = &load
	video.Exercise.VideoURL = "https://cdn/a.mp4"
	video.Exercise.ImageURL = "https://cdn/a.jpg"
	video.Exercise.MuscleGroup = "Glutes"

	bare := models.WorkoutItem{Sets: 1, Exercise: &models.Exercise{ID: "b", Name: "Plank"}}

	c, _, _ := newController(t, video, bare)
	if _, ok := c.Panel(); ok {
		t.Fatal("expected no panel before open")
	}
	_ = c.Open(context.Background(), "w1", 0)

	p, ok := c.Panel()
	if !ok {
		t.Fatal("expected panel")
	}
	want := Panel{
		WorkoutName:     "Legs",
		Name:            "Exercise a",
		MuscleGroup:     "Glutes",
		Meta:            "3 sets of 12 reps • Rest: 45s",
		SetText:         "Set 1 of 3",
		MediaKind:       MediaVideo,
		MediaURL:        "https://cdn/a.mp4",
		Dots:            []Dot{DotCurrent, DotPending, DotPending},
		Button:          LabelCompleteSet,
		SuggestedLoadKg: 12.5,
		SuggestedReps:   12,
		Position:        "1/2",
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("first panel (-want +got):\n%s", diff)
	}

	_ = c.LogSet(12.5, 12)
	c.SkipRest()
	_ = c.LogSet(12.5, 12)
	c.SkipRest()

	p, _ = c.Panel()
	if p.Button != LabelFinishExercise || !p.LastSet {
		t.Errorf("expected finish label on last set, got %q", p.Button)
	}
	if diff := cmp.Diff([]Dot{DotCompleted, DotCompleted, DotCurrent}, p.Dots); diff != "" {
		t.Errorf("dots (-want +got):\n%s", diff)
	}

	_ = c.LogSet(12.5, 12)
	p, _ = c.Panel()
	if p.MuscleGroup != DefaultMuscleGroup || p.MediaURL != PlaceholderImage || p.MediaKind != MediaImage {
		t.Errorf("expected defaults for bare exercise, got %+v", p)
	}
	if p.SuggestedReps != DefaultReps || p.SuggestedLoadKg != 0 {
		t.Errorf("expected default inputs, got load %v reps %d", p.SuggestedLoadKg, p.SuggestedReps)
	}
	if p.Meta != "1 sets of 10 reps • Rest: 0s" {
		t.Errorf("unexpected meta %q", p.Meta)
	}
}
