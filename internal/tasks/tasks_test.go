package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/repositories"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/google/go-cmp/cmp"
)

type journal struct {
	mu      sync.Mutex
	entries []models.SetLog
	reasons []string
}

func (j *journal) Record(e models.SetLog, reason string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	j.reasons = append(j.reasons, reason)
	return "id", nil
}

type writer struct {
	calls atomic.Int32
	err   error
}

func (w *writer) LogWorkoutSet(context.Context, models.SetLog) error {
	w.calls.Add(1)
	return w.err
}

func TestQueue(t *testing.T) {
	t.Run("Delivers Once", func(t *testing.T) {
		q := NewQueue(QueueOpts{})
		var runs atomic.Int32
		dropped := false

		if !q.Submit(Job{Name: "a", Run: func(context.Context) error { runs.Add(1); return nil }, OnDrop: func(string) { dropped = true }}) {
			t.Fatal("expected job accepted")
		}
		if err := q.Close(context.Background()); err != nil {
			t.Fatalf("close: %v", err)
		}

		if runs.Load() != 1 || dropped {
			t.Errorf("expected one run and no drop, got %d runs (dropped %v)", runs.Load(), dropped)
		}
		if diff := cmp.Diff(Stats{Submitted: 1, Delivered: 1}, q.Stats()); diff != "" {
			t.Errorf("stats (-want +got):\n%s", diff)
		}
	})

	t.Run("Failure Is Not Retried", func(t *testing.T) {
		q := NewQueue(QueueOpts{})
		var runs atomic.Int32
		var reason string

		q.Submit(Job{
			Name:   "fails",
			Run:    func(context.Context) error { runs.Add(1); return errors.New("boom") },
			OnDrop: func(r string) { reason = r },
		})
		_ = q.Close(context.Background())

		if runs.Load() != 1 {
			t.Errorf("expected a single attempt, got %d", runs.Load())
		}
		if reason != "boom" {
			t.Errorf("expected failure reason, got %q", reason)
		}
		if q.Stats().Failed != 1 {
			t.Errorf("expected one failure, got %+v", q.Stats())
		}
	})

	t.Run("Drops When Full", func(t *testing.T) {
		q := NewQueue(QueueOpts{Size: 1})
		started := make(chan struct{})
		release := make(chan struct{})

		q.Submit(Job{Name: "blocker", Run: func(context.Context) error {
			close(started)
			<-release
			return nil
		}})
		<-started

		if !q.Submit(Job{Name: "buffered"}) {
			t.Fatal("expected buffered job accepted")
		}

		var reason string
		if q.Submit(Job{Name: "overflow", OnDrop: func(r string) { reason = r }}) {
			t.Error("expected overflow job dropped")
		}
		if reason != ReasonQueueFull {
			t.Errorf("expected %q, got %q", ReasonQueueFull, reason)
		}

		close(release)
		_ = q.Close(context.Background())
		if diff := cmp.Diff(Stats{Submitted: 2, Delivered: 2, Dropped: 1}, q.Stats()); diff != "" {
			t.Errorf("stats (-want +got):\n%s", diff)
		}
	})

	t.Run("Submit After Close", func(t *testing.T) {
		q := NewQueue(QueueOpts{})
		_ = q.Close(context.Background())

		var reason string
		if q.Submit(Job{Name: "late", OnDrop: func(r string) { reason = r }}) {
			t.Error("expected submit to fail after close")
		}
		if reason != ReasonClosed {
			t.Errorf("expected %q, got %q", ReasonClosed, reason)
		}
		if err := q.Close(context.Background()); !errors.Is(err, ErrQueueClosed) {
			t.Errorf("expected ErrQueueClosed, got %v", err)
		}
	})

	t.Run("Close Deadline Abandons Queued Jobs", func(t *testing.T) {
		q := NewQueue(QueueOpts{Size: 4})
		started := make(chan struct{})

		q.Submit(Job{Name: "slow", Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}})
		<-started

		var mu sync.Mutex
		var reasons []string
		q.Submit(Job{Name: "queued", OnDrop: func(r string) { mu.Lock(); reasons = append(reasons, r); mu.Unlock() }})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := q.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline error, got %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(reasons) != 1 || reasons[0] != ReasonShutdown {
			t.Errorf("expected queued job abandoned, got %v", reasons)
		}
	})

	t.Run("Updates Never Block", func(t *testing.T) {
		updates := make(chan Update, 1)
		q := NewQueue(QueueOpts{Updates: updates})
		for range 5 {
			q.Submit(Job{Name: "noop"})
		}
		_ = q.Close(context.Background())

		u := <-updates
		if u.Job != "noop" {
			t.Errorf("unexpected first update %+v", u)
		}
	})

	t.Run("Recovers Panics", func(t *testing.T) {
		q := NewQueue(QueueOpts{})
		q.Submit(Job{Name: "panics", Run: func(context.Context) error { panic("bad") }})
		_ = q.Close(context.Background())
		if q.Stats().Failed != 1 {
			t.Errorf("expected panic counted as failure, got %+v", q.Stats())
		}
	})
}

func TestSetLogRecorder(t *testing.T) {
	entry := models.SetLog{UserID: "u1", WorkoutID: "w1", ExerciseID: "e1", LoadKg: 20, RepsPerformed: 12}

	t.Run("Delivered", func(t *testing.T) {
		q := NewQueue(QueueOpts{})
		w := &writer{}
		j := &journal{}
		NewSetLogRecorder(q, w, j, nil).Record(entry)
		_ = q.Close(context.Background())

		if w.calls.Load() != 1 || len(j.entries) != 0 {
			t.Errorf("expected one write and nothing journaled, got %d writes, %d journaled", w.calls.Load(), len(j.entries))
		}
	})

	t.Run("Failure Journaled", func(t *testing.T) {
		q := NewQueue(QueueOpts{})
		w := &writer{err: shared.ErrServiceUnavailable}
		j := &journal{}
		NewSetLogRecorder(q, w, j, nil).Record(entry)
		_ = q.Close(context.Background())

		if diff := cmp.Diff([]models.SetLog{entry}, j.entries); diff != "" {
			t.Errorf("journal (-want +got):\n%s", diff)
		}
		if w.calls.Load() != 1 {
			t.Errorf("expected no retry, got %d writes", w.calls.Load())
		}
	})

	t.Run("Journal In SQLite", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		repo := repositories.NewDroppedSetLogRepository(db)

		q := NewQueue(QueueOpts{})
		_ = q.Close(context.Background())
		NewSetLogRecorder(q, &writer{}, repo, nil).Record(entry)

		logs, err := repo.ListByUser("u1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(logs) != 1 || logs[0].Reason != ReasonClosed {
			t.Fatalf("expected one journaled log, got %+v", logs)
		}
		if diff := cmp.Diff(entry, logs[0].Entry); diff != "" {
			t.Errorf("entry (-want +got):\n%s", diff)
		}
	})
}
