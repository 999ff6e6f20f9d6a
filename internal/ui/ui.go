package ui

import (
	"context"
	"io"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/feed"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/layout"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/media"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/navbar"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/router"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/services"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/workout"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	AlertVideoNotFound = "Video not found."
	AlertAccount       = "Account created!"
	AlertFillLogin     = "Fill in e-mail and password."
	AlertFillRegister  = "Fill in every field."
	AlertGallery       = "Could not open the gallery."

	inboxSize = 64
)

// Options configures a [Model].
type Options struct {
	AppName          string
	SocialRoute      string // nav entry that turns into the compose tool, /fitgran by default
	FullscreenChrome bool
	EnforceRoles     bool
	StartPath        string
	Timeout          time.Duration // per loader, 15s by default
	Camera           media.Camera
	Gallery          media.Gallery
	Recorder         workout.SetRecorder
	Clock            workout.Clock
	Now              func() time.Time
	Logger           *log.Logger
}

type dashboardData struct {
	stats    models.DashboardStats
	workouts int
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	svc      services.Service
	sessions services.SessionProvider
	opts     Options
	logger   *log.Logger

	engine  *router.Engine
	layout  *layout.Compositor
	bar     *navbar.Bar
	nav     navbar.State
	session *workout.Controller
	feed    *feed.Controller
	gallery media.Gallery

	inbox       chan tea.Msg
	live        bool
	pending     []tea.Cmd
	unsubscribe func()

	width   int
	height  int
	current router.Resolution
	mounted bool
	loading bool
	alerts  []string

	help    help.Model
	keys    keyMap
	spinner spinner.Model

	login    form
	register form

	stats    *models.DashboardStats
	assigned int

	videos      list.Model
	videosEmpty bool
	video       *models.Video

	exercises      list.Model
	exercisesEmpty bool
	loadKg         float64
	reps           int
	panelKey       string

	selected     int
	picking      bool
	images       list.Model
	commentInput textinput.Model
	captionInput textinput.Model
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, svc services.Service, sessions services.SessionProvider, opts Options) *Model {
	if opts.AppName == "" {
		opts.AppName = "Espaço Mulher"
	}
	if opts.SocialRoute == "" {
		opts.SocialRoute = router.PathFitGran
	}
	if opts.StartPath == "" {
		opts.StartPath = router.PathHome
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Gallery.Dir == "" {
		opts.Gallery = media.NewGallery("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := &Model{
		ctx:       ctx,
		svc:       svc,
		sessions:  sessions,
		opts:      opts,
		logger:    logger,
		gallery:   opts.Gallery,
		inbox:     make(chan tea.Msg, inboxSize),
		help:      help.New(),
		keys:      newKeyMap(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.accent)),
		login:     newLoginForm(),
		register:  newRegisterForm(),
		videos:    newList("Recent Classes", nil),
		exercises: newList("Exercises", nil),
		images:    newList("Gallery", nil),
	}

	m.commentInput = newInput("Add a comment...")
	m.commentInput.CharLimit = 500
	m.captionInput = newInput("Write a caption...")
	m.captionInput.CharLimit = 2200

	m.engine = router.NewEngine(router.DefaultTable(), sessions, router.Options{EnforceRoles: opts.EnforceRoles, Logger: logger})
	m.engine.SetHooks(router.Hooks{Mount: m.mount, Load: m.load, ActivateTool: m.activateTool})

	m.layout = layout.New(layout.Options{AppName: opts.AppName, FullscreenChrome: opts.FullscreenChrome})
	m.bar = navbar.New(navbar.SocialEntries(opts.SocialRoute)...)

	m.session = workout.NewController(svc, sessions, opts.Recorder, workout.Options{Clock: opts.Clock, Logger: logger})
	m.session.SetHooks(workout.Hooks{
		Tick:     func(gen uint64) { m.post(tickMsg(gen)) },
		Alert:    func(text string) { m.post(alertMsg(text)) },
		Complete: func() { m.post(workoutDoneMsg()) },
	})

	m.feed = feed.NewController(svc, feed.Options{Camera: opts.Camera, Now: opts.Now, Logger: logger})
	m.feed.SetHooks(feed.Hooks{
		Alert:       func(text string) { m.post(alertMsg(text)) },
		OpenGallery: func() { m.post(galleryMsg()) },
		Changed:     func() { m.post(changedMsg()) },
	})

	m.unsubscribe = sessions.OnSessionChange(func(e services.AuthEvent, _ *models.Session) {
		if e == services.EventSignedOut {
			m.post(signedOutMsg())
		}
	})
	return m
}

// Init starts the inbox, the spinner and the first navigation.
func (m *Model) Init() tea.Cmd {
	m.live = true
	return tea.Batch(m.listen(), m.spinner.Tick, m.navigate(m.opts.StartPath))
}

// Close stops the countdown and the camera and detaches from the session provider.
func (m *Model) Close() {
	m.unsubscribe()
	m.session.Close()
	m.feed.CloseCamera()
}

// post hands msg to the update loop from any goroutine. It never blocks.
func (m *Model) post(msg tea.Msg) {
	select {
	case m.inbox <- msg:
	default:
		m.logger.Warn("ui inbox full, dropping message", "msg", msg)
	}
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		return inboxed{msg: <-m.inbox}
	}
}

// flush returns the commands queued by hooks during this update.
func (m *Model) flush() tea.Cmd {
	cmds := m.pending
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *Model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.pending = append(m.pending, cmd)
	}
}

func (m *Model) alert(text string) {
	m.alerts = append(m.alerts, text)
}

func (m *Model) navigate(path string) tea.Cmd {
	return m.dispatch(router.NavigateTo(path))
}

// dispatch hands an intent to the engine. Tool intents run their hook right away and
// never resolve a route.
func (m *Model) dispatch(in router.Intent) tea.Cmd {
	t, ok := m.engine.Dispatch(in)
	if !ok {
		return m.flush()
	}
	ctx := m.ctx
	return func() tea.Msg {
		return resolvedMsg(m.engine.Resolve(ctx, t))
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.handle(msg)
	m.syncSetInputs()
	if m.mounted {
		m.layout.Refresh(m.render())
	}
	return m, tea.Batch(cmd, m.flush())
}

func (m *Model) handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case inboxed:
		cmd := m.handle(msg.msg)
		if m.live {
			return tea.Batch(cmd, m.listen())
		}
		return cmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return nil

	case spinner.TickMsg:
		if !m.live {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.MouseMsg:
		return m.layout.Update(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case Msg:
		return m.handleMsg(msg)
	}
	return nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.layout.Resize(width, height)

	w, h := max(width-4, 20), max(height-12, 5)
	m.videos.SetSize(w, h)
	m.exercises.SetSize(w, h)
	m.images.SetSize(w, h)
	m.commentInput.Width = max(width-8, 10)
	m.captionInput.Width = max(width-8, 10)

	m.nav = m.bar.Recompute(m.engine.State().CurrentPath, width)
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgResolved:
		r := msg.data.(router.Resolution)
		switch m.engine.Commit(r) {
		case router.Redirected:
			return m.navigate(r.Redirect)
		case router.Committed:
			path := r.Route.Path
			return func() tea.Msg { return navbarMsg(path) }
		}

	case MsgNavbar:
		if path := msg.data.(string); path == m.engine.State().CurrentPath {
			m.nav = m.bar.Recompute(path, m.width)
		}

	case MsgLoaded:
		return m.applyLoaded(msg.data.(loaded))

	case MsgTick:
		m.session.Tick(msg.data.(uint64))

	case MsgAlert:
		m.alert(msg.data.(string))

	case MsgWorkoutReady:
		ready := msg.data.(workoutReady)
		if ready.err == nil && m.current.Route.View == router.ViewWorkouts {
			ready.err = m.session.Start(ready.plan, ready.index)
		}
		if ready.err != nil {
			m.logger.Warn("could not open workout", "error", ready.err)
			m.alert(workout.AlertFor(ready.err))
		}

	case MsgWorkoutDone:
		m.alert(workout.CompletedMessage)
		return m.navigate(router.PathHome)

	case MsgAuthDone:
		return m.handleAuth(msg.data.(authDone))

	case MsgSignedOut:
		m.session.Close()
		if m.mounted && m.current.Route.RequiresAuth {
			return m.navigate(m.engine.State().CurrentPath)
		}

	case MsgGallery:
		return m.openGallery()

	case MsgCamera:
		if err, _ := msg.data.(error); err != nil {
			m.logger.Debug("camera activation failed", "error", err)
		}
	}
	return nil
}

// mount runs on commit: it resets per-screen state and places the new screen in the compositor.
func (m *Model) mount(r router.Resolution) {
	prev := m.current.Route.View
	m.current = r
	m.mounted = true
	view := r.Route.View

	if view != router.ViewWorkouts && m.session.Active() {
		m.session.Close()
	}
	if prev == router.ViewFitGran && view != router.ViewFitGran {
		m.feed.CloseCamera()
		m.feed.CloseComments()
		m.feed.DiscardDraft()
		m.picking = false
	}

	switch view {
	case router.ViewDashboard:
		m.stats, m.assigned = nil, 0
	case router.ViewPlayer:
		m.video = nil
	case router.ViewFitGran:
		if r.User != nil {
			m.feed.Init(r.User.ID)
		}
	case router.ViewLogin:
		m.login.submitting = false
	case router.ViewRegister:
		m.register.submitting = false
	}
	m.loading = hasLoader(view)

	action := m.layout.Mount(r.Route, m.render())
	m.logger.Debug("route mounted", "path", r.Route.Path, "action", action)
}

func hasLoader(view router.ViewKind) bool {
	switch view {
	case router.ViewDashboard, router.ViewFitFlix, router.ViewPlayer, router.ViewFitGran, router.ViewWorkouts:
		return true
	}
	return false
}

// load queues the data fetch for a committed route.
func (m *Model) load(r router.Resolution) {
	m.queue(m.loader(r))
}

func (m *Model) loader(r router.Resolution) tea.Cmd {
	t, view, user := r.Ticket, r.Route.View, r.User
	ctx, timeout, svc := m.ctx, m.opts.Timeout, m.svc

	if user == nil && hasLoader(view) {
		return nil
	}

	fetch := func(fn func(ctx context.Context) (any, error)) tea.Cmd {
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			data, err := fn(ctx)
			return loadedMsg(t, view, data, err)
		}
	}

	switch view {
	case router.ViewDashboard:
		return fetch(func(ctx context.Context) (any, error) {
			var d dashboardData
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				stats, err := svc.GetDashboardStats(gctx, user.ID)
				d.stats = stats
				return err
			})
			g.Go(func() error {
				workouts, err := svc.GetMyWorkouts(gctx, user.ID)
				d.workouts = len(workouts)
				return err
			})
			err := g.Wait()
			return d, err
		})

	case router.ViewFitFlix:
		return fetch(func(ctx context.Context) (any, error) {
			return svc.GetVideos(ctx)
		})

	case router.ViewPlayer:
		id := r.Query.Get("id")
		if id == "" {
			m.alert(AlertVideoNotFound)
			m.queue(m.navigate(router.PathFitFlix))
			return nil
		}
		return fetch(func(ctx context.Context) (any, error) {
			return svc.GetVideoByID(ctx, id)
		})

	case router.ViewFitGran:
		return fetch(func(ctx context.Context) (any, error) {
			return nil, m.feed.Load(ctx)
		})

	case router.ViewWorkouts:
		return fetch(func(ctx context.Context) (any, error) {
			return svc.GetMyWorkouts(ctx, user.ID)
		})
	}
	return nil
}

// applyLoaded stores a loader result unless a newer navigation superseded it.
func (m *Model) applyLoaded(l loaded) tea.Cmd {
	if !m.engine.Latest(l.ticket) {
		m.logger.Debug("dropping stale load", "path", l.ticket.Path, "seq", l.ticket.Seq)
		return nil
	}
	m.loading = false
	if l.err != nil {
		m.logger.Warn("failed to load view", "view", l.view, "kind", shared.Classify(l.err), "error", l.err)
	}

	switch l.view {
	case router.ViewDashboard:
		d, _ := l.data.(dashboardData)
		m.stats, m.assigned = &d.stats, d.workouts

	case router.ViewFitFlix:
		videos, _ := l.data.([]models.Video)
		items := make([]list.Item, len(videos))
		for i, v := range videos {
			items[i] = videoItem{video: v}
		}
		m.videosEmpty = len(items) == 0
		return m.videos.SetItems(items)

	case router.ViewPlayer:
		video, _ := l.data.(*models.Video)
		if l.err != nil || video == nil {
			m.alert(AlertVideoNotFound)
			return m.navigate(router.PathFitFlix)
		}
		m.video = video

	case router.ViewWorkouts:
		workouts, _ := l.data.([]models.Workout)
		items := exerciseItems(workouts)
		m.exercisesEmpty = len(items) == 0
		return m.exercises.SetItems(items)

	case router.ViewFitGran:
		m.selected = min(m.selected, max(len(m.feed.Posts())-1, 0))
	}
	return nil
}

// activateTool runs tool intents. The camera only exists on the FitGran screen.
func (m *Model) activateTool(tool router.Tool) {
	if tool != router.ToolCamera || m.current.Route.View != router.ViewFitGran {
		return
	}
	ctx := m.ctx
	m.queue(func() tea.Msg {
		return cameraMsg(m.feed.ActivateCamera(ctx))
	})
}

func (m *Model) openGallery() tea.Cmd {
	if m.current.Route.View != router.ViewFitGran {
		return nil
	}
	paths, err := m.gallery.List()
	if err != nil {
		m.logger.Warn("gallery unavailable", "dir", m.gallery.Dir, "error", err)
		m.alert(AlertGallery)
	}
	if len(paths) == 0 {
		m.feed.SetCaption("")
		return m.captionInput.Focus()
	}

	items := make([]list.Item, len(paths))
	for i, p := range paths {
		items[i] = imageItem{path: p}
	}
	m.picking = true
	return m.images.SetItems(items)
}

func (m *Model) handleAuth(a authDone) tea.Cmd {
	switch a.view {
	case router.ViewLogin:
		m.login.submitting = false
		if a.err != nil {
			m.alert("Error: " + a.err.Error())
			return nil
		}
		m.login = newLoginForm()
		return m.navigate(router.PathHome)

	case router.ViewRegister:
		m.register.submitting = false
		if a.err != nil {
			m.alert("Error: " + a.err.Error())
			return nil
		}
		m.register = newRegisterForm()
		m.alert(AlertAccount)
		return m.navigate(router.PathLogin)

	default:
		if a.err != nil {
			m.alert("Error: " + a.err.Error())
		}
		return m.navigate(router.PathLogin)
	}
}

// syncSetInputs loads the suggested load and reps whenever the session moves to another exercise.
func (m *Model) syncSetInputs() {
	p, ok := m.session.Panel()
	if !ok {
		m.panelKey = ""
		return
	}
	k := p.WorkoutName + "#" + p.Position
	if k == m.panelKey {
		return
	}
	m.panelKey = k
	m.loadKg, m.reps = p.SuggestedLoadKg, p.SuggestedReps
}

func (m *Model) viewModel() ViewModel {
	vm := ViewModel{User: m.current.User, Loading: m.loading, Spinner: m.spinner.View()}

	switch m.current.Route.View {
	case router.ViewLogin:
		vm.Form = m.login.view()
	case router.ViewRegister:
		vm.Form = m.register.view()
	case router.ViewDashboard:
		vm.Stats, vm.Workouts = m.stats, m.assigned
	case router.ViewFitFlix:
		vm.List, vm.Empty = m.videos.View(), m.videosEmpty
	case router.ViewPlayer:
		vm.Video = m.video
	case router.ViewWorkouts:
		if p, ok := m.session.Panel(); ok {
			vm.Panel = &p
			vm.LoadKg, vm.Reps = m.loadKg, m.reps
		}
		vm.List, vm.Empty = m.exercises.View(), m.exercisesEmpty
	case router.ViewFitGran:
		vm.Posts = m.feed.Posts()
		vm.Selected = m.selected
		vm.Comments = m.feed.Comments()
		vm.CommentInput = m.commentInput.View()
		vm.Draft = m.feed.Draft()
		vm.CaptionInput = m.captionInput.View()
		vm.Camera = m.feed.CameraOpen()
		if m.picking {
			vm.Gallery = m.images.View()
		}
	}
	return vm
}

func (m *Model) render() string {
	return Render(m.current.Route.View, m.viewModel())
}

// View renders the mounted screen with its chrome and the footer.
func (m *Model) View() string {
	if !m.mounted {
		return m.spinner.View() + " Loading..."
	}
	return m.layout.View(m.bar.Render(m.nav), m.footer())
}

func (m *Model) footer() string {
	if len(m.alerts) > 0 {
		return styles.alert.Render(m.alerts[0]) + "\n" + styles.help.Render("enter to dismiss")
	}
	return m.help.ShortHelpView(m.helpKeys())
}

func (m *Model) helpKeys() []key.Binding {
	k := m.keys
	switch m.current.Route.View {
	case router.ViewLogin:
		return []key.Binding{k.tab, k.enter, k.signup}
	case router.ViewRegister:
		return []key.Binding{k.tab, k.enter, k.back}
	case router.ViewFitFlix:
		return []key.Binding{k.up, k.down, k.enter, k.nav, k.quit}
	case router.ViewPlayer:
		return []key.Binding{k.open, k.back, k.quit}
	case router.ViewWorkouts:
		if m.session.Active() {
			return []key.Binding{k.enter, k.skip, k.load, k.reps, k.back}
		}
		return []key.Binding{k.up, k.down, k.enter, k.nav, k.quit}
	case router.ViewFitGran:
		if m.feed.Comments() != nil || m.feed.Draft() != nil || m.picking || m.feed.CameraOpen() {
			return []key.Binding{k.enter, k.back}
		}
		return []key.Binding{k.up, k.down, k.like, k.comment, k.post, k.nav}
	case router.ViewProfile:
		return []key.Binding{k.logout, k.nav, k.quit}
	}
	return []key.Binding{k.refresh, k.nav, k.quit}
}
