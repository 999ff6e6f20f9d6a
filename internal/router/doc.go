// Package router maps paths to views and performs guarded navigation.
//
// A navigation is three steps. [Engine.Navigate] issues a numbered [Ticket]; [Engine.Resolve]
// looks up the [Route] and applies [Authorize] against the session; [Engine.Commit] applies the
// [Resolution] on the UI loop. Only the latest ticket commits, so a slow resolution that was
// overtaken by a newer navigation never renders.
//
// Re-selecting the active route's tool (the FitGran camera) is an explicit [IntentActivateTool]
// passed to [Engine.Dispatch]; it never resolves a route.
package router
