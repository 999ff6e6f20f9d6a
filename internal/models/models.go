package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Profile holds the per-user row from the profiles table.
type Profile struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
}

// User is the authenticated account with its profile attached when available.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
	Profile  *Profile       `json:"profile,omitempty"`
}

// DisplayName prefers the profile name, then signup metadata, then the email's local part.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Profile != nil && u.Profile.FullName != "" {
		return u.Profile.FullName
	}
	if name, ok := u.Metadata["full_name"].(string); ok && name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// FirstName returns the first word of [User.DisplayName].
func (u *User) FirstName() string {
	fields := strings.Fields(u.DisplayName())
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Role returns the profile role or the empty string.
func (u *User) Role() string {
	if u == nil || u.Profile == nil {
		return ""
	}
	return u.Profile.Role
}

// Session is an authenticated user plus the token pair issued by the auth service.
type Session struct {
	User  *User
	Token *oauth2.Token
}

// Valid reports whether the session has a user and an unexpired access token.
func (s *Session) Valid() bool {
	return s != nil && s.User != nil && s.Token.Valid()
}

// Video is a FitFlix lesson.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// Author is the embedded profile shown next to posts and comments.
type Author struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// Name returns the author's name or a neutral fallback.
func (a *Author) Name() string {
	if a == nil || a.FullName == "" {
		return "Member"
	}
	return a.FullName
}

// Post is a FitGran photo post. IsLiked is computed per viewer and never stored.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ImageURL   string    `json:"image_url"`
	Caption    string    `json:"caption"`
	LikesCount int       `json:"likes_count"`
	IsLiked    bool      `json:"-"`
	Author     *Author   `json:"profiles,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Comment is a reply on a [Post].
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Author    *Author   `json:"profiles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeAction is the effect of a like toggle.
type LikeAction string

const (
	ActionLike   LikeAction = "like"
	ActionUnlike LikeAction = "unlike"
)

// LikeResult reports what a toggle did and the authoritative count afterwards.
type LikeResult struct {
	Action   LikeAction `json:"action"`
	NewCount int        `json:"newCount"`
}

// Exercise is a catalog entry referenced by workout items.
type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	VideoURL    string `json:"video_url"`
	MuscleGroup string `json:"muscle_group"`
}

// WorkoutItem is one prescribed exercise within a [Workout].
type WorkoutItem struct {
	ID              string    `json:"id"`
	Sets            int       `json:"sets"`
	Reps            Reps      `json:"reps"`
	RestSeconds     int       `json:"rest_seconds"`
	SuggestedLoadKg *float64  `json:"suggested_load_kg"`
	OrderIndex      int       `json:"order_index"`
	Exercise        *Exercise `json:"exercise"`
}

// Reps is the prescribed repetition count. The column is free text ("12", "8-10") but
// older rows store a number, so both encodings decode.
type Reps string

func (r *Reps) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Reps(s)
		return nil
	}
	if string(b) == "null" {
		*r = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("reps: %w", err)
	}
	*r = Reps(n.String())
	return nil
}

// Int returns the leading integer of r, or fallback when r has none.
func (r Reps) Int(fallback int) int {
	s := strings.TrimSpace(string(r))
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return fallback
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n == 0 {
		return fallback
	}
	return n
}

// Workout is a plan assigned to a user.
type Workout struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	AssignedTo  string        `json:"assigned_to"`
	CreatedAt   time.Time     `json:"created_at"`
	Items       []WorkoutItem `json:"items"`
}

// SortItems orders Items by OrderIndex, keeping the backend order for ties.
func (w *Workout) SortItems() {
	sort.SliceStable(w.Items, func(i, j int) bool { return w.Items[i].OrderIndex < w.Items[j].OrderIndex })
}

// TotalSets sums the prescribed sets across all items.
func (w *Workout) TotalSets() int {
	total := 0
	for _, item := range w.Items {
		total += item.Sets
	}
	return total
}

// SetLog is one performed set written to workout_logs.
type SetLog struct {
	UserID        string  `json:"user_id"`
	WorkoutID     string  `json:"workout_id"`
	ExerciseID    string  `json:"exercise_id"`
	LoadKg        float64 `json:"load_kg"`
	RepsPerformed int     `json:"reps_performed"`
}

// Validate rejects entries that cannot be attributed to a user, workout and exercise.
func (l SetLog) Validate() error {
	switch {
	case l.UserID == "":
		return fmt.Errorf("set log: user id is required")
	case l.WorkoutID == "":
		return fmt.Errorf("set log: workout id is required")
	case l.ExerciseID == "":
		return fmt.Errorf("set log: exercise id is required")
	case l.RepsPerformed < 0 || l.LoadKg < 0:
		return fmt.Errorf("set log: load and reps must not be negative")
	}
	return nil
}

// DashboardStats summarises a user's activity for the home screen.
type DashboardStats struct {
	CompletedWorkouts int `json:"completed_workouts"`
}

// ImageFile is a picked or captured image ready for upload.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ext returns the lowercase extension of Name without the dot, defaulting to "jpg".
func (f ImageFile) Ext() string {
	if i := strings.LastIndex(f.Name, "."); i >= 0 && i < len(f.Name)-1 {
		return strings.ToLower(f.Name[i+1:])
	}
	return "jpg"
}
