package ui

import (
	"context"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/router"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if len(m.alerts) > 0 {
		switch msg.String() {
		case "enter", "esc", " ":
			m.alerts = m.alerts[1:]
		}
		return nil
	}
	if !m.mounted {
		return nil
	}

	switch m.current.Route.View {
	case router.ViewLogin:
		return m.loginKeys(msg)
	case router.ViewRegister:
		return m.registerKeys(msg)
	case router.ViewFitGran:
		if m.feedModal() {
			return m.feedModalKeys(msg)
		}
	case router.ViewWorkouts:
		if m.session.Active() {
			if cmd, ok := m.sessionKeys(msg); ok {
				return cmd
			}
		}
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.nav) && m.layout.ChromeMounted():
		index := int(msg.Runes[0] - '1')
		return m.dispatch(m.bar.IntentFor(index, m.engine.State().CurrentPath))
	case msg.String() == "pgup" || msg.String() == "pgdown":
		return m.layout.Update(msg)
	case key.Matches(msg, m.keys.refresh) && hasLoader(m.current.Route.View):
		return m.navigate(m.engine.State().CurrentPath + rawQuery(m.current))
	}

	switch m.current.Route.View {
	case router.ViewFitFlix:
		return m.fitflixKeys(msg)
	case router.ViewPlayer:
		return m.playerKeys(msg)
	case router.ViewWorkouts:
		return m.workoutsKeys(msg)
	case router.ViewFitGran:
		return m.feedKeys(msg)
	case router.ViewProfile:
		return m.profileKeys(msg)
	}
	return nil
}

func rawQuery(r router.Resolution) string {
	if len(r.Query) == 0 {
		return ""
	}
	return "?" + r.Query.Encode()
}

func (m *Model) formKeys(f *form, msg tea.KeyMsg, submit func() tea.Cmd) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return f.move(1)
	case "shift+tab", "up":
		return f.move(-1)
	case "enter":
		if !f.onLast() {
			return f.move(1)
		}
		if f.submitting {
			return nil
		}
		return submit()
	}
	return f.update(msg)
}

func (m *Model) loginKeys(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.signup) {
		return m.navigate(router.PathRegister)
	}
	return m.formKeys(&m.login, msg, func() tea.Cmd {
		if !m.login.complete() {
			m.alert(AlertFillLogin)
			return nil
		}
		v := m.login.values()
		m.login.submitting = true
		ctx := m.ctx
		return func() tea.Msg {
			session, err := m.sessions.SignIn(ctx, v[0], v[1])
			return authDoneMsg(router.ViewLogin, session, err)
		}
	})
}

func (m *Model) registerKeys(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.back) {
		return m.navigate(router.PathLogin)
	}
	return m.formKeys(&m.register, msg, func() tea.Cmd {
		if !m.register.complete() {
			m.alert(AlertFillRegister)
			return nil
		}
		v := m.register.values()
		m.register.submitting = true
		ctx := m.ctx
		return func() tea.Msg {
			session, err := m.sessions.SignUp(ctx, v[1], v[2], map[string]any{"full_name": v[0]})
			return authDoneMsg(router.ViewRegister, session, err)
		}
	})
}

func (m *Model) fitflixKeys(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.enter) {
		if it, ok := m.videos.SelectedItem().(videoItem); ok {
			return m.navigate(router.PathWatch + "?id=" + it.video.ID)
		}
		return nil
	}
	var cmd tea.Cmd
	m.videos, cmd = m.videos.Update(msg)
	return cmd
}

func (m *Model) playerKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back):
		return m.navigate(router.PathFitFlix)
	case key.Matches(msg, m.keys.open) && m.video != nil:
		url := m.video.VideoURL
		return func() tea.Msg {
			if err := shared.OpenBrowser(url); err != nil {
				return alertMsg("Could not open the video: " + err.Error())
			}
			return nil
		}
	}
	return m.layout.Update(msg)
}

func (m *Model) workoutsKeys(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.enter) {
		it, ok := m.exercises.SelectedItem().(exerciseItem)
		if !ok {
			return nil
		}
		ctx, timeout := m.ctx, m.opts.Timeout
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			plan, err := m.session.Prepare(ctx, it.workout.ID)
			return workoutReadyMsg(plan, it.index, err)
		}
	}
	var cmd tea.Cmd
	m.exercises, cmd = m.exercises.Update(msg)
	return cmd
}

// sessionKeys drives a live workout. ok is false for keys the session does not use.
func (m *Model) sessionKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		if err := m.session.LogSet(m.loadKg, m.reps); err != nil {
			m.alert(err.Error())
		}
	case "s":
		m.session.SkipRest()
	case "+", "=":
		m.loadKg++
	case "-":
		m.loadKg = max(m.loadKg-1, 0)
	case "]":
		m.reps++
	case "[":
		m.reps = max(m.reps-1, 0)
	case "esc":
		m.session.Close()
	default:
		return nil, false
	}
	return nil, true
}

func (m *Model) feedModal() bool {
	return m.feed.CameraOpen() || m.picking || m.feed.Draft() != nil || m.feed.Comments() != nil
}

func (m *Model) selectedPost() (models.Post, bool) {
	posts := m.feed.Posts()
	if m.selected < 0 || m.selected >= len(posts) {
		return models.Post{}, false
	}
	return posts[m.selected], true
}

func (m *Model) syncLike(postID string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		_ = m.feed.Sync(ctx, postID)
		return changedMsg()
	}
}

func (m *Model) feedKeys(msg tea.KeyMsg) tea.Cmd {
	ctx := m.ctx
	switch {
	case key.Matches(msg, m.keys.up):
		m.selected = max(m.selected-1, 0)
	case key.Matches(msg, m.keys.down):
		m.selected = min(m.selected+1, max(len(m.feed.Posts())-1, 0))
	case key.Matches(msg, m.keys.like):
		if p, ok := m.selectedPost(); ok && m.feed.Flip(p.ID) {
			return m.syncLike(p.ID)
		}
	case key.Matches(msg, m.keys.enter):
		if p, ok := m.selectedPost(); ok && m.feed.Tap(p.ID) {
			return m.syncLike(p.ID)
		}
	case key.Matches(msg, m.keys.comment):
		p, ok := m.selectedPost()
		if !ok {
			return nil
		}
		m.feed.OpenComments(p.ID)
		m.commentInput.Reset()
		return tea.Batch(m.commentInput.Focus(), func() tea.Msg {
			_ = m.feed.LoadComments(ctx)
			return changedMsg()
		})
	case key.Matches(msg, m.keys.post):
		return m.dispatch(router.Activate(router.ToolCamera))
	}
	return nil
}

func (m *Model) feedModalKeys(msg tea.KeyMsg) tea.Cmd {
	ctx := m.ctx
	switch {
	case m.feed.CameraOpen():
		switch msg.String() {
		case "enter", " ":
			return func() tea.Msg {
				if err := m.feed.Capture(ctx); err != nil {
					return alertMsg(err.Error())
				}
				return changedMsg()
			}
		case "esc":
			m.feed.CloseCamera()
		}
		return nil

	case m.picking:
		switch msg.String() {
		case "enter":
			it, ok := m.images.SelectedItem().(imageItem)
			if !ok {
				return nil
			}
			file, err := m.gallery.Pick(it.path)
			if err != nil {
				m.alert("Could not use this image: " + err.Error())
				return nil
			}
			m.picking = false
			m.feed.Select(file)
			m.captionInput.Reset()
			return m.captionInput.Focus()
		case "esc":
			m.picking = false
			return nil
		}
		var cmd tea.Cmd
		m.images, cmd = m.images.Update(msg)
		return cmd

	case m.feed.Draft() != nil:
		switch msg.String() {
		case "enter":
			m.feed.SetCaption(m.captionInput.Value())
			return func() tea.Msg {
				_ = m.feed.Submit(ctx)
				return changedMsg()
			}
		case "esc":
			m.feed.DiscardDraft()
			m.captionInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		m.captionInput, cmd = m.captionInput.Update(msg)
		return cmd

	default:
		c := m.feed.Comments()
		if c == nil {
			return nil
		}
		switch msg.String() {
		case "enter":
			line, ok := m.feed.AddPending(m.commentInput.Value())
			if !ok {
				return nil
			}
			m.commentInput.Reset()
			return func() tea.Msg {
				_ = m.feed.SendComment(ctx, c.PostID, line)
				return changedMsg()
			}
		case "esc":
			m.feed.CloseComments()
			m.commentInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		m.commentInput, cmd = m.commentInput.Update(msg)
		return cmd
	}
}

func (m *Model) profileKeys(msg tea.KeyMsg) tea.Cmd {
	if !key.Matches(msg, m.keys.logout) {
		return m.layout.Update(msg)
	}
	ctx := m.ctx
	return func() tea.Msg {
		return authDoneMsg(router.ViewProfile, nil, m.sessions.SignOut(ctx))
	}
}
