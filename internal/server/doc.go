// Package server runs the short-lived local HTTP listener that completes provider logins.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first). [Logging] and
// [Recover] are the middleware the callback listener installs.
//
// # Login Callback
//
// [CallbackHandler] completes an OAuth provider login started with PKCE. The provider redirects
// the browser to the local listener with a one-time code, which the handler exchanges through
// the session provider. It checks the state parameter when one was issued and processes
// exactly one callback; later hits are rejected.
//
// [Listen] starts the listener on the configured address and [Listener.Wait] blocks until the
// callback delivers a result, the context ends, or the timeout passes.
package server
