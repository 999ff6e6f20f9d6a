// Package ui implements the interactive terminal client using bubbletea's Elm architecture.
//
// Every screen is a route of [router.DefaultTable]. Moving between screens goes through the
// navigation engine: a key press or a programmatic redirect issues a ticket, the ticket is
// resolved against the session off the update loop, and the resolution is committed back on
// the loop where only the latest ticket may win. A committed route is mounted into the
// [layout.Compositor], the nav indicator is recomputed one message later, and the route's
// loader fetches its data through the [services.Service] facade.
//
// Controllers that run their own goroutines (the rest countdown, camera and uploads) never
// touch the model. They post messages into an inbox that the program drains, the same way
// the update loop waits on any other long-running work.
//
// Keyboard: 1-5 select the nav entries (selecting 📸 again opens the camera), arrows or j/k move,
// enter selects, esc goes back and q quits outside of text fields.
package ui
