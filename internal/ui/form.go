package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// form is a vertical stack of labelled text inputs with one focused field.
type form struct {
	labels     []string
	inputs     []textinput.Model
	focus      int
	submit     string
	submitting bool
}

type field struct {
	label    string
	secret   bool
	maxChars int
}

func newForm(submit string, fields ...field) form {
	f := form{submit: submit}
	for i, fd := range fields {
		ti := newInput("")
		ti.Prompt = ""
		ti.CharLimit = fd.maxChars
		if fd.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		if i == 0 {
			ti.Focus()
		}
		f.labels = append(f.labels, fd.label)
		f.inputs = append(f.inputs, ti)
	}
	return f
}

func newLoginForm() form {
	return newForm("Sign in",
		field{label: "E-MAIL", maxChars: 254},
		field{label: "PASSWORD", secret: true, maxChars: 128},
	)
}

func newRegisterForm() form {
	return newForm("Start Now",
		field{label: "FULL NAME", maxChars: 120},
		field{label: "E-MAIL", maxChars: 254},
		field{label: "PASSWORD", secret: true, maxChars: 128},
	)
}

// newInput returns a text input with a steady cursor.
func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// values returns the trimmed field values in order. Secret fields are not trimmed.
func (f form) values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		out[i] = in.Value()
		if in.EchoMode != textinput.EchoPassword {
			out[i] = strings.TrimSpace(out[i])
		}
	}
	return out
}

// complete reports whether every field has a value.
func (f form) complete() bool {
	for _, v := range f.values() {
		if v == "" {
			return false
		}
	}
	return true
}

// move shifts focus by delta, wrapping around.
func (f *form) move(delta int) tea.Cmd {
	n := len(f.inputs)
	f.inputs[f.focus].Blur()
	f.focus = ((f.focus+delta)%n + n) % n
	return f.inputs[f.focus].Focus()
}

// onLast reports whether the last field has focus.
func (f form) onLast() bool {
	return f.focus == len(f.inputs)-1
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f form) view() string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := styles.muted.Render(f.labels[i])
		box := styles.card
		if i == f.focus {
			box = styles.focus
		}
		b.WriteString(label + "\n" + box.Width(32).Render(in.View()) + "\n")
	}
	submit := "[enter] " + f.submit
	if f.submitting {
		submit = "..."
	}
	b.WriteString("\n" + styles.accent.Render(submit))
	return b.String()
}
