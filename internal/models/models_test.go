package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"
)

func TestUser(t *testing.T) {
	t.Run("DisplayName prefers profile", func(t *testing.T) {
		u := &User{Email: "ana@example.com", Profile: &Profile{FullName: "Ana Clara"}}
		if got := u.FirstName(); got != "Ana" {
			t.Errorf("expected Ana, got %q", got)
		}
	})

	t.Run("DisplayName falls back to metadata then email", func(t *testing.T) {
		u := &User{Email: "bia@example.com", Metadata: map[string]any{"full_name": "Beatriz Souza"}}
		if got := u.DisplayName(); got != "Beatriz Souza" {
			t.Errorf("expected metadata name, got %q", got)
		}
		u.Metadata = nil
		if got := u.DisplayName(); got != "bia" {
			t.Errorf("expected email local part, got %q", got)
		}
	})

	t.Run("Role", func(t *testing.T) {
		var u *User
		if u.Role() != "" {
			t.Error("nil user should have no role")
		}
		u = &User{Profile: &Profile{Role: "admin"}}
		if u.Role() != "admin" {
			t.Errorf("expected admin, got %q", u.Role())
		}
	})
}

func TestSessionValid(t *testing.T) {
	if (*Session)(nil).Valid() {
		t.Error("nil session should be invalid")
	}
	s := &Session{User: &User{ID: "u1"}, Token: &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}}
	if !s.Valid() {
		t.Error("expected session with live token to be valid")
	}
	s.Token.Expiry = time.Now().Add(-time.Hour)
	if s.Valid() {
		t.Error("expected expired session to be invalid")
	}
}

func TestWorkoutDecode(t *testing.T) {
	body := `{
		"id": "w1", "name": "Pernas", "assigned_to": "u1",
		"items": [
			{"id": "b", "sets": 3, "reps": "8-10", "rest_seconds": 60, "order_index": 2, "exercise": {"id": "e2", "name": "Agachamento"}},
			{"id": "a", "sets": 2, "reps": 12, "rest_seconds": 30, "suggested_load_kg": 7.5, "order_index": 1, "exercise": {"id": "e1", "name": "Leg press"}}
		]
	}`

	var w Workout
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		t.Fatalf("failed to decode workout: %v", err)
	}
	w.SortItems()

	got := []string{w.Items[0].ID, w.Items[1].ID}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("items not sorted by order_index (-want +got):\n%s", diff)
	}
	if w.Items[0].Reps != "12" || w.Items[1].Reps != "8-10" {
		t.Errorf("unexpected reps decoding: %q %q", w.Items[0].Reps, w.Items[1].Reps)
	}
	if w.Items[0].SuggestedLoadKg == nil || *w.Items[0].SuggestedLoadKg != 7.5 {
		t.Error("expected suggested load 7.5")
	}
	if w.Items[1].SuggestedLoadKg != nil {
		t.Error("expected missing suggested load to stay nil")
	}
	if w.TotalSets() != 5 {
		t.Errorf("expected 5 total sets, got %d", w.TotalSets())
	}
}

func TestRepsInt(t *testing.T) {
	tc := []struct {
		reps Reps
		want int
	}{
		{"12", 12},
		{"8-10", 8},
		{"", 10},
		{"max", 10},
		{"0", 10},
	}
	for _, tt := range tc {
		t.Run(string(tt.reps), func(t *testing.T) {
			if got := tt.reps.Int(10); got != tt.want {
				t.Errorf("Int() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetLogValidate(t *testing.T) {
	valid := SetLog{UserID: "u", WorkoutID: "w", ExerciseID: "e", LoadKg: 10, RepsPerformed: 12}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid log, got %v", err)
	}
	missing := valid
	missing.ExerciseID = ""
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing exercise id")
	}
}

func TestPostDecodeEmbeddedAuthor(t *testing.T) {
	body := `{"id":"p1","user_id":"u1","image_url":"http://x/img.jpg","caption":"hi","likes_count":3,"profiles":{"full_name":"Ana","avatar_url":""}}`
	var p Post
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Author.Name() != "Ana" || p.LikesCount != 3 {
		t.Errorf("unexpected post %+v", p)
	}
	var none *Author
	if none.Name() != "Member" {
		t.Errorf("expected fallback author name, got %q", none.Name())
	}
}

func TestImageFileExt(t *testing.T) {
	tc := map[string]string{"foto.PNG": "png", "a.b.jpeg": "jpeg", "noext": "jpg", "trailing.": "jpg"}
	for name, want := range tc {
		if got := (ImageFile{Name: name}).Ext(); got != want {
			t.Errorf("Ext(%q) = %q, want %q", name, got, want)
		}
	}
}
