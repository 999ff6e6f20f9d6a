// package workout drives a guided workout session: exercise pointer, set counter,
// rest countdown and set logging.
package workout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/log"
)

// Phase is the controller's state.
type Phase int

const (
	Idle Phase = iota
	ExerciseActive
	Resting
	Completed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case ExerciseActive:
		return "exercise"
	case Resting:
		return "resting"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of the session. While Resting, Set is the set just finished.
type State struct {
	Phase     Phase
	ItemIndex int
	Set       int
	Remaining int
}

const (
	// DefaultReps is used when an item's reps cannot be read as a number.
	DefaultReps = 10

	CompletedMessage = "Workout complete! Congratulations! 💪"
)

// WorkoutSource lists the user's assigned workouts.
type WorkoutSource interface {
	GetMyWorkouts(ctx context.Context, userID string) ([]models.Workout, error)
}

// SessionSource reports the signed-in user.
type SessionSource interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// SetRecorder accepts set logs without blocking. Delivery is best-effort.
type SetRecorder interface {
	Record(entry models.SetLog)
}

// Plan is a workout resolved for a user, ready to [Controller.Start].
type Plan struct {
	UserID  string
	Workout models.Workout
}

// Hooks receive the controller's side effects. Nil hooks are skipped.
// Hooks run after the controller has released its lock and may call back into it.
type Hooks struct {
	// Render is called on every state change.
	Render func(State)
	// Tick forwards a countdown tick to the UI loop, which must then call [Controller.Tick].
	// When nil the clock goroutine calls Tick directly.
	Tick func(gen uint64)
	// Alert shows a blocking message.
	Alert func(msg string)
	// Complete runs once when the last set of the last exercise is logged.
	Complete func()
}

// Options configures a [Controller].
type Options struct {
	Clock  Clock
	Rest   time.Duration // countdown step, one second by default
	Logger *log.Logger
}

type session struct {
	userID  string
	workout models.Workout
}

// Controller owns the single live workout session.
type Controller struct {
	workouts WorkoutSource
	sessions SessionSource
	recorder SetRecorder
	clock    Clock
	step     time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	hooks   Hooks
	session *session
	state   State
	timer   Timer
	gen     uint64
}

// NewController creates an idle [Controller].
func NewController(workouts WorkoutSource, sessions SessionSource, recorder SetRecorder, opts Options) *Controller {
	c := &Controller{
		workouts: workouts,
		sessions: sessions,
		recorder: recorder,
		clock:    opts.Clock,
		step:     opts.Rest,
		logger:   opts.Logger,
	}
	if c.clock == nil {
		c.clock = SystemClock{}
	}
	if c.step <= 0 {
		c.step = time.Second
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

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active reports whether a session is live.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Prepare looks up workoutID among the signed-in user's workouts. It does not touch the session
// and may run off the UI loop.
func (c *Controller) Prepare(ctx context.Context, workoutID string) (Plan, error) {
	user, err := c.sessions.CurrentUser(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	if user == nil {
		return Plan{}, shared.ErrNotAuthenticated
	}

	workouts, err := c.workouts.GetMyWorkouts(ctx, user.ID)
	if err != nil {
		return Plan{}, err
	}
	for _, w := range workouts {
		if w.ID == workoutID {
			w.SortItems()
			return Plan{UserID: user.ID, Workout: w}, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %s", shared.ErrWorkoutNotFound, workoutID)
}

// Start replaces any live session with plan, beginning at item startIndex, set 1.
func (c *Controller) Start(plan Plan, startIndex int) error {
	if startIndex < 0 || startIndex >= len(plan.Workout.Items) {
		return fmt.Errorf("%w: exercise index %d out of range", shared.ErrInvalidArgument, startIndex)
	}

	c.mu.Lock()
	c.stopTimerLocked()
	c.session = &session{userID: plan.UserID, workout: plan.Workout}
	c.state = State{Phase: ExerciseActive, ItemIndex: startIndex, Set: 1}
	st, hooks := c.state, c.hooks
	c.mu.Unlock()

	c.logger.Debug("workout session started", "workout", plan.Workout.ID, "item", startIndex)
	if hooks.Render != nil {
		hooks.Render(st)
	}
	return nil
}

// Open prepares and starts a session. Failures are shown through the Alert hook and returned.
func (c *Controller) Open(ctx context.Context, workoutID string, startIndex int) error {
	plan, err := c.Prepare(ctx, workoutID)
	if err == nil {
		err = c.Start(plan, startIndex)
	}
	if err != nil {
		c.logger.Warn("could not open workout", "workout", workoutID, "error", err)
		c.alert(AlertFor(err))
	}
	return err
}

// AlertFor returns the message shown when opening a workout fails with err.
func AlertFor(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return "Sign in to train."
	case errors.Is(err, shared.ErrWorkoutNotFound):
		return "Workout not found."
	default:
		return "Could not open the workout. Try again."
	}
}

// LogSet records the current set with the given load and reps and moves on. While resting
// the rest is ended first and the set after it is logged.
func (c *Controller) LogSet(loadKg float64, reps int) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no workout in progress", shared.ErrInvalidInput)
	}
	if c.state.Phase == Resting {
		c.endRestLocked()
	}

	item := c.session.workout.Items[c.state.ItemIndex]
	entry := models.SetLog{
		UserID:        c.session.userID,
		WorkoutID:     c.session.workout.ID,
		LoadKg:        loadKg,
		RepsPerformed: reps,
	}
	if item.Exercise != nil {
		entry.ExerciseID = item.Exercise.ID
	}

	var complete bool
	switch {
	case c.state.Set < item.Sets && item.RestSeconds > 0:
		c.state.Phase = Resting
		c.state.Remaining = item.RestSeconds
		c.startTimerLocked()
	case c.state.Set < item.Sets:
		c.state.Set++
	default:
		complete = c.advanceLocked()
	}
	st, hooks := c.state, c.hooks
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.Record(entry)
	}
	c.emit(hooks, st, complete)
	return nil
}

// SkipRest ends a rest early. Outside of Resting it does nothing.
func (c *Controller) SkipRest() {
	c.mu.Lock()
	if c.state.Phase != Resting {
		c.mu.Unlock()
		return
	}
	complete := c.endRestLocked()
	st, hooks := c.state, c.hooks
	c.mu.Unlock()
	c.emit(hooks, st, complete)
}

// Tick advances the countdown for timer generation gen. Ticks from cancelled timers are dropped.
func (c *Controller) Tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state.Phase != Resting || c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.state.Remaining--
	var complete bool
	if c.state.Remaining <= 0 {
		complete = c.endRestLocked()
	}
	st, hooks := c.state, c.hooks
	c.mu.Unlock()
	c.emit(hooks, st, complete)
}

// Close cancels the countdown and drops the session.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopTimerLocked()
	wasActive := c.session != nil
	c.session = nil
	c.state = State{Phase: Idle}
	st, hooks := c.state, c.hooks
	c.mu.Unlock()

	if wasActive && hooks.Render != nil {
		hooks.Render(st)
	}
}

func (c *Controller) emit(hooks Hooks, st State, complete bool) {
	if hooks.Render != nil {
		hooks.Render(st)
	}
	if complete && hooks.Complete != nil {
		hooks.Complete()
	}
}

func (c *Controller) alert(msg string) {
	c.mu.Lock()
	fn := c.hooks.Alert
	c.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// endRestLocked leaves Resting for the next set, or advances when the item has none left.
func (c *Controller) endRestLocked() bool {
	c.stopTimerLocked()
	c.state.Remaining = 0
	item := c.session.workout.Items[c.state.ItemIndex]
	if c.state.Set+1 > item.Sets {
		return c.advanceLocked()
	}
	c.state.Phase = ExerciseActive
	c.state.Set++
	return false
}

// advanceLocked moves to the next exercise or completes the session.
func (c *Controller) advanceLocked() bool {
	c.stopTimerLocked()
	if next := c.state.ItemIndex + 1; next < len(c.session.workout.Items) {
		c.state = State{Phase: ExerciseActive, ItemIndex: next, Set: 1}
		return false
	}
	c.logger.Info("workout completed", "workout", c.session.workout.ID)
	c.session = nil
	c.state = State{Phase: Completed}
	return true
}

func (c *Controller) startTimerLocked() {
	c.stopTimerLocked()
	c.gen++
	gen := c.gen
	tick := c.hooks.Tick
	c.timer = c.clock.Every(c.step, func() {
		if tick != nil {
			tick(gen)
			return
		}
		c.Tick(gen)
	})
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
		c.gen++
	}
}
