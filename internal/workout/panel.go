package workout

import (
	"fmt"
	"strconv"
)

const (
	PlaceholderImage   = "https://placehold.co/600x400?text=Exercicio"
	DefaultMuscleGroup = "General"

	LabelCompleteSet    = "Complete Set"
	LabelFinishExercise = "Finish Exercise"
	LabelNextExercise   = "Next Exercise"
)

// MediaKind tells the view whether to play or show the exercise media.
type MediaKind int

const (
	MediaImage MediaKind = iota
	MediaVideo
)

// Dot is the progress marker for one set.
type Dot int

const (
	DotPending Dot = iota
	DotCurrent
	DotCompleted
)

// Panel is everything the session view shows for the current exercise.
type Panel struct {
	WorkoutName string
	Name        string
	MuscleGroup string
	Meta        string
	SetText     string
	MediaKind   MediaKind
	MediaURL    string
	Dots        []Dot
	Button      string
	// LastSet is true on the exercise's final set.
	LastSet bool

	SuggestedLoadKg float64
	SuggestedReps   int

	Resting   bool
	Remaining int
	Position  string // "2/5"
}

// Panel renders the current state. ok is false when no session is live.
func (c *Controller) Panel() (Panel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Panel{}, false
	}

	w := c.session.workout
	item := w.Items[c.state.ItemIndex]
	set := c.state.Set

	p := Panel{
		WorkoutName:   w.Name,
		MuscleGroup:   DefaultMuscleGroup,
		SetText:       fmt.Sprintf("Set %d of %d", set, item.Sets),
		MediaURL:      PlaceholderImage,
		SuggestedReps: item.Reps.Int(DefaultReps),
		Resting:       c.state.Phase == Resting,
		Remaining:     c.state.Remaining,
		Position:      fmt.Sprintf("%d/%d", c.state.ItemIndex+1, len(w.Items)),
	}
	if ex := item.Exercise; ex != nil {
		p.Name = ex.Name
		if ex.MuscleGroup != "" {
			p.MuscleGroup = ex.MuscleGroup
		}
		switch {
		case ex.VideoURL != "":
			p.MediaKind, p.MediaURL = MediaVideo, ex.VideoURL
		case ex.ImageURL != "":
			p.MediaURL = ex.ImageURL
		}
	}
	if item.SuggestedLoadKg != nil {
		p.SuggestedLoadKg = *item.SuggestedLoadKg
	}

	reps := string(item.Reps)
	if reps == "" {
		reps = strconv.Itoa(DefaultReps)
	}
	p.Meta = fmt.Sprintf("%d sets of %s reps • Rest: %ds", item.Sets, reps, item.RestSeconds)

	current := set
	if p.Resting {
		current++
	}
	p.Dots = make([]Dot, item.Sets)
	for i := range p.Dots {
		switch n := i + 1; {
		case n < current:
			p.Dots[i] = DotCompleted
		case n == current:
			p.Dots[i] = DotCurrent
		}
	}

	switch {
	case set > item.Sets:
		p.Button = LabelNextExercise
	case set == item.Sets:
		p.Button = LabelFinishExercise
		p.LastSet = true
	default:
		p.Button = LabelCompleteSet
	}
	return p, true
}
