// Package services defines the [Service] data facade and the [SessionProvider] and implements them
// for the hosted backend.
//
// # Transport
//
// [Client] speaks the three HTTP surfaces of the backend: the data API under /rest/v1, auth under
// /auth/v1 and storage under /storage/v1. Every request carries the public anon key in the apikey
// header and a bearer token, which is the signed-in user's access token when one is available.
// Requests are rate-limited with [rate.Limiter] and bounded by a per-request timeout.
//
// Queries are built with [From]:
//
//	From("workouts").Select(workoutEmbed).Eq("assigned_to", id).Order("created_at", false)
//
// # Implementations
//
//   - [SupabaseService] : data API plus [Storage] uploads
//   - [PostgresService] : the same operations straight against the schema with pgx
//
// # Sessions
//
// [AuthService] implements [SessionProvider]. Tokens are [oauth2.Token] values so refresh can be
// delegated to [oauth2.ReuseTokenSource]; provider logins use the PKCE helpers from x/oauth2.
//
// # Error Handling
//
// Errors wrap the sentinels from the shared package:
//   - [shared.ErrNotAuthenticated] : 401/403 from the backend
//   - [shared.ErrNotFound] and its video/post/workout variants : missing rows
//   - [shared.ErrAPIRequest], [shared.ErrServiceUnavailable], [shared.ErrTimeout] : transport failures
//   - [shared.ErrAuthFailed] : rejected credentials
package services
