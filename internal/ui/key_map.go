package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	tab     key.Binding
	nav     key.Binding
	like    key.Binding
	comment key.Binding
	post    key.Binding
	skip    key.Binding
	load    key.Binding
	reps    key.Binding
	open    key.Binding
	signup  key.Binding
	logout  key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		nav:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "menu")),
		like:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		comment: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comments")),
		post:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new post")),
		skip:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip rest")),
		load:    key.NewBinding(key.WithKeys("+", "-"), key.WithHelp("+/-", "load")),
		reps:    key.NewBinding(key.WithKeys("]", "["), key.WithHelp("[/]", "reps")),
		open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		signup:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "create account")),
		logout:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "sign out")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nav, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.like, k.comment, k.post},
		{k.skip, k.load, k.reps},
		{k.nav, k.refresh, k.quit},
	}
}
