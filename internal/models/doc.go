// Package models defines the domain entities exchanged with the hosted backend.
//
// The package contains three groups of types:
//
// 1. Identity: [User], [Profile] and [Session]. A session wraps an [oauth2.Token] so the
// refresh machinery in x/oauth2 can be reused for the backend's access/refresh pair.
//
// 2. Content: [Video] (FitFlix), [Post], [Author], [Comment] and [LikeResult] (FitGran).
//
// 3. Training: [Workout], [WorkoutItem], [Exercise], [SetLog] and [DashboardStats].
// Workout items are kept sorted by OrderIndex; see [Workout.SortItems].
//
// JSON tags follow the backend's column names so rows decode without an intermediate type.
package models
