package ui

import (
	"fmt"
	"strings"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/feed"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/formatter"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/router"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/workout"
	"github.com/charmbracelet/lipgloss"
)

// ViewModel is everything a screen needs to draw itself. Stateful widgets (forms, lists)
// are passed in already rendered.
type ViewModel struct {
	User    *models.User
	Loading bool
	Spinner string

	Form string

	Stats    *models.DashboardStats
	Workouts int

	List  string
	Empty bool

	Video *models.Video

	Panel  *workout.Panel
	LoadKg float64
	Reps   int

	Posts        []models.Post
	Selected     int
	Comments     *feed.Comments
	CommentInput string
	Draft        *feed.Draft
	CaptionInput string
	Gallery      string
	Camera       bool
}

// Render draws the content region of a route. It has no side effects.
func Render(kind router.ViewKind, vm ViewModel) string {
	switch kind {
	case router.ViewLogin:
		return renderAuth("Espaço", "Mulher", vm.Form)
	case router.ViewRegister:
		return renderAuth("Join", "Espaço Mulher", vm.Form)
	case router.ViewDashboard:
		return renderDashboard(vm)
	case router.ViewFitFlix:
		return renderFitFlix(vm)
	case router.ViewPlayer:
		return renderPlayer(vm)
	case router.ViewFitGran:
		return renderFitGran(vm)
	case router.ViewWorkouts:
		return renderWorkouts(vm)
	case router.ViewRecipes:
		return styles.title.Render("Recipes 🥗") + "\nComing soon..."
	case router.ViewProfile:
		return renderProfile(vm)
	case router.ViewAdmin:
		return styles.title.Render("Admin 🛡️")
	default:
		return ""
	}
}

func renderAuth(brand, script, form string) string {
	return lipgloss.JoinVertical(lipgloss.Center, styles.accent.Render(brand), styles.help.Render(script), "", form)
}

func loading(vm ViewModel) string {
	return vm.Spinner + " Loading..."
}

func renderDashboard(vm ViewModel) string {
	name := vm.User.FirstName()
	if name == "" {
		name = "Student"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styles.title.Render("Hello, "+styles.accent.Render(name)+"!"))

	stats := loading(vm)
	if vm.Stats != nil {
		stats = fmt.Sprintf("%d workouts", vm.Stats.CompletedWorkouts)
	}
	b.WriteString(styles.card.Render("Completed Workouts\n"+styles.accent.Render(stats)) + "\n\n")

	b.WriteString(styles.accent.Render("Quick Access") + "\n")
	train := "💪 Train"
	if vm.Stats != nil && vm.Workouts > 0 {
		train = fmt.Sprintf("💪 Train (%d assigned)", vm.Workouts)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, styles.card.Render(train+"  [2]"), " ", styles.card.Render("🎬 Classes  [4]")) + "\n")
	b.WriteString(styles.card.Render("📸 VIP Community\nSee what's new  [3]"))
	return b.String()
}

func renderFitFlix(vm ViewModel) string {
	hero := styles.card.Render(styles.accent.Render("FitClass") + "\nTrain wherever you want")
	if vm.Loading {
		return hero + "\n\n" + loading(vm)
	}
	if vm.Empty {
		return hero + "\n\n" + styles.muted.Render("No classes yet.")
	}
	return hero + "\n\n" + vm.List
}

func renderPlayer(vm ViewModel) string {
	var b strings.Builder
	b.WriteString(styles.muted.Render("✕ Close [esc]") + "\n\n")
	if vm.Video == nil {
		b.WriteString(loading(vm))
		return b.String()
	}
	b.WriteString(styles.title.Render(vm.Video.Title) + "\n")
	if vm.Video.Description != "" {
		b.WriteString(vm.Video.Description + "\n\n")
	}
	fmt.Fprintf(&b, "▶ %s\n", vm.Video.VideoURL)
	if vm.Video.ThumbnailURL != "" {
		fmt.Fprintf(&b, "%s\n", styles.muted.Render("poster: "+vm.Video.ThumbnailURL))
	}
	return b.String()
}

func renderWorkouts(vm ViewModel) string {
	if vm.Panel != nil {
		return renderSession(*vm.Panel, vm.LoadKg, vm.Reps)
	}

	title := styles.title.Render("My Workouts 💪")
	switch {
	case vm.Loading:
		return title + "\n" + loading(vm)
	case vm.Empty:
		return title + "\n" + styles.muted.Render("📋 No workouts yet.")
	}
	return title + "\n" + vm.List
}

var dotGlyph = map[workout.Dot]string{
	workout.DotPending:   styles.muted.Render("○"),
	workout.DotCurrent:   styles.accent.Render("●"),
	workout.DotCompleted: styles.ok.Render("●"),
}

func renderSession(p workout.Panel, load float64, reps int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", styles.accent.Render(p.Name), styles.muted.Render(p.Position+" • "+p.WorkoutName))
	fmt.Fprintf(&b, "%s\n", styles.muted.Render(p.MuscleGroup))
	b.WriteString(styles.focus.Render(p.Meta) + "\n")

	media := "🖼  "
	if p.MediaKind == workout.MediaVideo {
		media = "🎥 "
	}
	b.WriteString(media + p.MediaURL + "\n\n")

	dots := make([]string, len(p.Dots))
	for i, d := range p.Dots {
		dots[i] = dotGlyph[d]
	}
	fmt.Fprintf(&b, "%s  %s\n", p.SetText, strings.Join(dots, " "))
	fmt.Fprintf(&b, "Load: %s   Reps: %d\n\n", formatter.FormatLoad(&load), reps)

	if p.Resting {
		b.WriteString(styles.card.Render(fmt.Sprintf("Rest\n%s\n[s] Skip Rest", styles.title.Render(fmt.Sprintf("%d", p.Remaining)))))
		return b.String()
	}
	b.WriteString(styles.focus.Render("[enter] " + p.Button))
	return b.String()
}

func renderFitGran(vm ViewModel) string {
	switch {
	case vm.Camera:
		return styles.card.Render("📷 Camera\n[enter] Capture   [esc] Close")
	case vm.Gallery != "":
		return vm.Gallery
	case vm.Draft != nil:
		return renderDraft(*vm.Draft, vm.CaptionInput)
	case vm.Comments != nil:
		return renderComments(*vm.Comments, vm.CommentInput)
	case vm.Loading:
		return loading(vm)
	case len(vm.Posts) == 0:
		return styles.muted.Render("No posts yet. Be the first!")
	}

	cards := make([]string, len(vm.Posts))
	for i, p := range vm.Posts {
		cards[i] = renderPost(p, i == vm.Selected)
	}
	return strings.Join(cards, "\n")
}

func renderPost(p models.Post, selected bool) string {
	heart := "🤍"
	if p.IsLiked {
		heart = "❤️"
	}
	body := fmt.Sprintf("%s\n🖼  %s\n%s %d   💬\n%s",
		styles.accent.Render(p.Author.Name()),
		p.ImageURL,
		heart, p.LikesCount,
		p.Caption,
	)
	if selected {
		return styles.focus.Render(body)
	}
	return styles.card.Render(body)
}

func renderComments(c feed.Comments, input string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Comments") + "\n")
	switch {
	case c.Loading:
		b.WriteString("Loading...\n")
	case len(c.Lines) == 0:
		b.WriteString(styles.muted.Render(feed.EmptyCommentsMsg) + "\n")
	}
	for _, l := range c.Lines {
		line := fmt.Sprintf("%s %s", styles.accent.Render(l.Author), l.Content)
		switch {
		case l.Failed:
			line = styles.err.Render("! ") + line
		case l.Pending:
			line = styles.muted.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + input)
	return b.String()
}

func renderDraft(d feed.Draft, caption string) string {
	preview := styles.muted.Render("no photo")
	if d.File != nil {
		preview = fmt.Sprintf("🖼  %s (%d bytes)", d.File.Name, len(d.File.Data))
	}
	action := "[enter] Share"
	if d.Submitting {
		action = "Sharing..."
	}
	return styles.title.Render("New Post") + "\n" + styles.card.Render(preview) + "\n" + caption + "\n\n" + styles.focus.Render(action)
}

func renderProfile(vm ViewModel) string {
	u := vm.User
	avatar := "U"
	if name := u.DisplayName(); name != "" {
		avatar = strings.ToUpper(string([]rune(name)[0]))
	}
	if u != nil && u.Profile != nil && u.Profile.AvatarURL != "" {
		avatar = u.Profile.AvatarURL
	}

	var email string
	if u != nil {
		email = u.Email
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		styles.card.Render(avatar),
		styles.title.Render(u.DisplayName()),
		email,
		"",
		styles.err.Render("🚪 Sign out [x]"),
	)
}
