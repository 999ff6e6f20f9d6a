package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = videoItem{}
	_ list.Item = exerciseItem{}
	_ list.Item = imageItem{}
)

// videoItem wraps [models.Video] to implement [list.Item].
type videoItem struct {
	video models.Video
}

func (i videoItem) FilterValue() string { return i.video.Title }
func (i videoItem) Title() string       { return "▶ " + i.video.Title }
func (i videoItem) Description() string {
	if i.video.Description == "" {
		return i.video.CreatedAt.Format("02/01/2006")
	}
	return i.video.Description
}

// exerciseItem is one exercise of an assigned workout. Selecting it opens the session at index.
type exerciseItem struct {
	workout models.Workout
	index   int
}

func (i exerciseItem) item() models.WorkoutItem { return i.workout.Items[i.index] }

func (i exerciseItem) FilterValue() string { return i.Title() }
func (i exerciseItem) Title() string {
	name := "Exercise"
	if ex := i.item().Exercise; ex != nil && ex.Name != "" {
		name = ex.Name
	}
	return fmt.Sprintf("%s › %s", i.workout.Name, name)
}
func (i exerciseItem) Description() string {
	it := i.item()
	return fmt.Sprintf("%d sets x %s", it.Sets, it.Reps)
}

// exerciseItems flattens workouts into one row per exercise.
func exerciseItems(workouts []models.Workout) []list.Item {
	var items []list.Item
	for _, w := range workouts {
		for idx := range w.Items {
			items = append(items, exerciseItem{workout: w, index: idx})
		}
	}
	return items
}

// imageItem is a gallery file.
type imageItem struct {
	path string
}

func (i imageItem) FilterValue() string { return filepath.Base(i.path) }
func (i imageItem) Title() string       { return filepath.Base(i.path) }
func (i imageItem) Description() string { return strings.TrimPrefix(filepath.Ext(i.path), ".") + " image" }

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = styles.accent
	return l
}
