// Package repositories implements SQLite persistence for the little state the client keeps locally.
//
// Key Implementations:
//   - [SessionRepository] : the signed-in session, at most one row, satisfying services.SessionStore
//   - [DroppedSetLogRepository] : set logs the best-effort queue gave up on, kept for inspection and never replayed
//
// Both rely on the embedded migrations in the shared package.
package repositories
