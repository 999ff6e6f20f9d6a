// package layout decides how a committed route is placed on screen
package layout

import (
	"fmt"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/router"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Action is what [Compositor.Mount] did to the screen.
type Action int

const (
	PatchContent     Action = iota // content region replaced, chrome kept
	RenderMain                     // chrome and content rendered from scratch
	RenderAuth                     // bare shell without navigation
	RenderFullscreen               // content only
)

func (a Action) String() string {
	switch a {
	case PatchContent:
		return "patch"
	case RenderMain:
		return "main"
	case RenderAuth:
		return "auth"
	case RenderFullscreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Options configures a [Compositor].
type Options struct {
	AppName string
	// FullscreenChrome keeps the main chrome on fullscreen routes.
	FullscreenChrome bool
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#D63384")).Padding(0, 1)
	authStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#D63384")).Padding(1, 3)
)

// Compositor owns the chrome and the scrollable content region.
type Compositor struct {
	opts    Options
	mounted bool // main chrome is on screen
	shell   Action
	route   router.Route
	title   string
	raw     string
	content viewport.Model
	width   int
	height  int
	renders int
}

// New creates a [Compositor] with nothing mounted.
func New(opts Options) *Compositor {
	return &Compositor{opts: opts, shell: RenderAuth, content: viewport.New(0, 0)}
}

// Mount places content for route. Main routes patch the content of a mounted shell; every other
// layout renders its shell again.
func (c *Compositor) Mount(route router.Route, content string) Action {
	action := c.decide(route.Layout)

	switch action {
	case PatchContent:
	case RenderMain:
		c.mounted = true
		c.renders++
	default:
		c.mounted = false
		c.renders++
	}

	c.shell = action
	if action == PatchContent {
		c.shell = RenderMain
	}
	c.route = route
	c.title = route.Title + " - " + c.opts.AppName
	c.raw = content
	c.content.SetContent(content)
	c.content.GotoTop()
	return action
}

func (c *Compositor) decide(kind router.LayoutKind) Action {
	switch kind {
	case router.LayoutAuth:
		return RenderAuth
	case router.LayoutFullscreen:
		if !c.opts.FullscreenChrome {
			return RenderFullscreen
		}
		return RenderMain
	}
	if c.mounted {
		return PatchContent
	}
	return RenderMain
}

// Refresh replaces the content of the mounted route, keeping the scroll position.
func (c *Compositor) Refresh(content string) {
	offset := c.content.YOffset
	c.raw = content
	c.content.SetContent(content)
	c.content.SetYOffset(offset)
}

// Title returns "<route title> - <app name>" for the mounted route, whatever its layout.
func (c *Compositor) Title() string {
	return c.title
}

// ChromeMounted reports whether the navigation chrome is on screen.
func (c *Compositor) ChromeMounted() bool {
	return c.mounted
}

// Renders counts full shell renders, excluding patches.
func (c *Compositor) Renders() int {
	return c.renders
}

// Resize records the terminal size.
func (c *Compositor) Resize(width, height int) {
	c.width, c.height = width, height
	c.content.Width = width
}

// Update forwards scrolling input to the content region.
func (c *Compositor) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.content, cmd = c.content.Update(msg)
	return cmd
}

// View draws the current shell. nav is the rendered navigation bar and footer any trailing line (help, alerts);
// nav is ignored when the chrome is not mounted.
func (c *Compositor) View(nav, footer string) string {
	switch c.shell {
	case RenderAuth:
		box := authStyle.Render(lipgloss.JoinVertical(lipgloss.Center, headerStyle.Render(c.opts.AppName), "", c.raw))
		body := lipgloss.Place(c.width, max(c.height-lipgloss.Height(footer), 0), lipgloss.Center, lipgloss.Center, box)
		return lipgloss.JoinVertical(lipgloss.Left, body, footer)
	case RenderFullscreen:
		c.content.Height = max(c.height-lipgloss.Height(footer), 1)
		return lipgloss.JoinVertical(lipgloss.Left, c.content.View(), footer)
	}

	header := headerStyle.Width(c.width).Render(c.title)
	c.content.Height = max(c.height-lipgloss.Height(header)-lipgloss.Height(nav)-lipgloss.Height(footer), 1)
	return lipgloss.JoinVertical(lipgloss.Left, header, c.content.View(), nav, footer)
}
