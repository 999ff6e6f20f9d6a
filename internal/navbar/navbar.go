// package navbar computes the bottom navigation bar: which entry is active
// and where the sliding indicator sits under it.
package navbar

import (
	"strings"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/router"
	"github.com/charmbracelet/lipgloss"
)

// Entry is one navigation target.
type Entry struct {
	Path  string
	Glyph string
	// AltGlyph replaces Glyph while the entry is active.
	AltGlyph string
	Label    string
	// Tool is triggered instead of navigating when the entry is selected while active.
	Tool router.Tool
}

// DefaultEntries returns the application's navigation entries in display order.
func DefaultEntries() []Entry {
	return []Entry{
		{Path: router.PathHome, Glyph: "🏠", Label: "Home"},
		{Path: router.PathWorkouts, Glyph: "💪", Label: "Workouts"},
		{Path: router.PathFitGran, Glyph: "📸", AltGlyph: "➕", Label: "FitGran", Tool: router.ToolCamera},
		{Path: router.PathFitFlix, Glyph: "🎬", Label: "FitFlix"},
		{Path: router.PathProfile, Glyph: "👤", Label: "Profile"},
	}
}

// SocialEntries returns [DefaultEntries] with the compose tool and its glyph moved to the entry for path.
// When no entry matches, no entry carries a tool.
func SocialEntries(path string) []Entry {
	entries := DefaultEntries()
	for i := range entries {
		if entries[i].Path == path {
			entries[i].AltGlyph, entries[i].Tool = "➕", router.ToolCamera
			continue
		}
		entries[i].AltGlyph, entries[i].Tool = "", router.ToolNone
	}
	return entries
}

// Item is the computed look of one entry.
type Item struct {
	Path     string
	Glyph    string
	Active   bool
	Emphasis bool
	// Center is the item's centre column relative to the bar origin.
	Center int
}

// State is the result of [Bar.Recompute].
type State struct {
	Items  []Item
	Active int // -1 when no entry matches
	Offset int
	Width  int
}

const indicator = "━━━"

var (
	itemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D63384")).Bold(true)
	emphasisStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#D63384")).Bold(true)
	markerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D63384"))
)

// Bar holds the entries; it keeps no per-navigation state.
type Bar struct {
	entries []Entry
}

// New creates a [Bar]. With no entries, [DefaultEntries] are used.
func New(entries ...Entry) *Bar {
	if len(entries) == 0 {
		entries = DefaultEntries()
	}
	return &Bar{entries: entries}
}

// Entries returns the entries in display order.
func (b *Bar) Entries() []Entry {
	return b.entries
}

// Recompute derives the bar state for currentPath at the given terminal width.
// Each entry gets an equal cell, never narrower than its widest glyph.
func (b *Bar) Recompute(currentPath string, width int) State {
	path, _ := router.SplitPath(currentPath)
	st := State{Active: -1, Items: make([]Item, len(b.entries))}
	if len(b.entries) == 0 {
		return st
	}

	cell := b.cellWidth(width)
	st.Width = cell * len(b.entries)

	for i, e := range b.entries {
		active := e.Path == path
		glyph := e.Glyph
		if active && e.AltGlyph != "" {
			glyph = e.AltGlyph
		}
		st.Items[i] = Item{
			Path:     e.Path,
			Glyph:    glyph,
			Active:   active,
			Emphasis: active && e.Tool != router.ToolNone,
			Center:   i*cell + cell/2,
		}
		if active && st.Active < 0 {
			st.Active = i
		}
	}

	if st.Active >= 0 {
		st.Offset = max(st.Items[st.Active].Center-lipgloss.Width(indicator)/2, 0)
	}
	return st
}

func (b *Bar) cellWidth(width int) int {
	widest := lipgloss.Width(indicator)
	for _, e := range b.entries {
		widest = max(widest, lipgloss.Width(e.Glyph), lipgloss.Width(e.AltGlyph))
	}
	// one column of padding either side
	return max(width/len(b.entries), widest+2)
}

// IntentFor decides what selecting entry index means on currentPath:
// a tool activation when the entry carries a tool and is already active,
// otherwise navigation to the entry.
func (b *Bar) IntentFor(index int, currentPath string) router.Intent {
	if index < 0 || index >= len(b.entries) {
		return router.NavigateTo(currentPath)
	}
	e := b.entries[index]
	path, _ := router.SplitPath(currentPath)
	if e.Tool != router.ToolNone && e.Path == path {
		return router.Activate(e.Tool)
	}
	return router.NavigateTo(e.Path)
}

// Render draws the indicator line above the glyph row.
func (b *Bar) Render(st State) string {
	if len(st.Items) == 0 {
		return ""
	}
	cell := st.Width / len(st.Items)

	var row strings.Builder
	for _, it := range st.Items {
		style := itemStyle
		switch {
		case it.Emphasis:
			style = emphasisStyle
		case it.Active:
			style = activeStyle
		}
		row.WriteString(lipgloss.PlaceHorizontal(cell, lipgloss.Center, style.Render(it.Glyph)))
	}

	marker := ""
	if st.Active >= 0 {
		marker = strings.Repeat(" ", st.Offset) + markerStyle.Render(indicator)
	}
	return lipgloss.JoinVertical(lipgloss.Left, marker, row.String())
}
