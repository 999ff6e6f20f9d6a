package ui

import (
	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/router"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/workout"
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgResolved MsgKind = iota
	MsgLoaded
	MsgNavbar
	MsgTick
	MsgAlert
	MsgWorkoutReady
	MsgWorkoutDone
	MsgAuthDone
	MsgSignedOut
	MsgChanged
	MsgGallery
	MsgCamera
)

// inboxed wraps a message posted from outside the update loop.
type inboxed struct {
	msg tea.Msg
}

// resolvedMsg is the constructor for [MsgResolved]
func resolvedMsg(r router.Resolution) Msg {
	return Msg{kind: MsgResolved, data: r}
}

type loaded struct {
	ticket router.Ticket
	view   router.ViewKind
	data   any
	err    error
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(t router.Ticket, view router.ViewKind, data any, err error) Msg {
	return Msg{kind: MsgLoaded, data: loaded{ticket: t, view: view, data: data, err: err}}
}

// navbarMsg is the constructor for [MsgNavbar]
func navbarMsg(path string) Msg {
	return Msg{kind: MsgNavbar, data: path}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(gen uint64) Msg {
	return Msg{kind: MsgTick, data: gen}
}

// alertMsg is the constructor for [MsgAlert]
func alertMsg(text string) Msg {
	return Msg{kind: MsgAlert, data: text}
}

type workoutReady struct {
	plan  workout.Plan
	index int
	err   error
}

// workoutReadyMsg is the constructor for [MsgWorkoutReady]
func workoutReadyMsg(plan workout.Plan, index int, err error) Msg {
	return Msg{kind: MsgWorkoutReady, data: workoutReady{plan, index, err}}
}

// workoutDoneMsg is the constructor for [MsgWorkoutDone]
func workoutDoneMsg() Msg {
	return Msg{kind: MsgWorkoutDone}
}

type authDone struct {
	view    router.ViewKind
	session *models.Session
	err     error
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(view router.ViewKind, session *models.Session, err error) Msg {
	return Msg{kind: MsgAuthDone, data: authDone{view, session, err}}
}

// signedOutMsg is the constructor for [MsgSignedOut]
func signedOutMsg() Msg {
	return Msg{kind: MsgSignedOut}
}

// changedMsg is the constructor for [MsgChanged]
func changedMsg() Msg {
	return Msg{kind: MsgChanged}
}

// galleryMsg is the constructor for [MsgGallery]
func galleryMsg() Msg {
	return Msg{kind: MsgGallery}
}

// cameraMsg is the constructor for [MsgCamera]
func cameraMsg(err error) Msg {
	return Msg{kind: MsgCamera, data: err}
}
