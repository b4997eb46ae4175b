// Package views provides TUI view components for the ainotes application.
package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ainotes-dev/ainotes/internal/tui"
)

// Form is a vertical stack of text inputs with one focused at a time.
type Form struct {
	inputs []textinput.Model
	labels []string
	focus  int
}

func newInput(placeholder string, width int, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = width
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func newForm(labels []string, inputs []textinput.Model) Form {
	f := Form{inputs: inputs, labels: labels}
	f.inputs[0].Focus()
	return f
}

// Value returns the raw value of field i.
func (f Form) Value(i int) string {
	return f.inputs[i].Value()
}

// Focused is the index of the focused field.
func (f Form) Focused() int {
	return f.focus
}

// Last reports whether the last field is focused.
func (f Form) Last() bool {
	return f.focus == len(f.inputs)-1
}

// Move shifts focus by delta, wrapping around.
func (f *Form) Move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

// SetWidth resizes every input.
func (f *Form) SetWidth(w int) {
	for i := range f.inputs {
		f.inputs[i].Width = w
	}
}

// Update forwards msg to the focused input.
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// View renders label and input pairs.
func (f Form) View() string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := tui.DimStyle.Render(f.labels[i])
		if i == f.focus {
			label = tui.SelectedStyle.Render(f.labels[i])
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}
	return b.String()
}

// ============================================================================
// LoginModel
// ============================================================================

const (
	loginIdentifier = iota
	loginPassword
)

// LoginModel is the view model for the sign-in screen.
type LoginModel struct {
	form   Form
	notice string
	err    string
	busy   bool
	width  int
	height int
}

// NewLoginModel creates a LoginModel. notice is shown above the form, for
// example after the session expired.
func NewLoginModel(notice string, width, height int) LoginModel {
	return LoginModel{
		form: newForm(
			[]string{"Email or username", "Password"},
			[]textinput.Model{
				newInput("you@example.com", width-12, false),
				newInput("password", width-12, true),
			},
		),
		notice: notice,
		width:  width,
		height: height,
	}
}

// Init returns the initial command for the login view.
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

// SetError shows err under the form and re-enables input.
func (m *LoginModel) SetError(err string) {
	m.err = err
	m.busy = false
}

// Busy reports whether a sign-in is in flight.
func (m LoginModel) Busy() bool {
	return m.busy
}

// Update handles messages for the login view.
func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case tui.KeyTab, tui.KeyDown:
			cmd := m.form.Move(1)
			return m, cmd
		case tui.KeyShiftTab, tui.KeyUp:
			cmd := m.form.Move(-1)
			return m, cmd
		case "ctrl+r":
			return m, func() tea.Msg { return tui.ShowRegisterMsg{} }
		case tui.KeyEnter:
			if !m.form.Last() {
				cmd := m.form.Move(1)
				return m, cmd
			}
			identifier := strings.TrimSpace(m.form.Value(loginIdentifier))
			secret := m.form.Value(loginPassword)
			if identifier == "" || secret == "" {
				m.err = "Enter your email or username and password."
				return m, nil
			}
			m.err = ""
			m.busy = true
			return m, func() tea.Msg {
				return tui.SubmitLoginMsg{Identifier: identifier, Secret: secret}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form.SetWidth(msg.Width - 12)
		return m, nil
	}

	cmd := m.form.Update(msg)
	return m, cmd
}

// View renders the login view.
func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("ainotes · Sign in"))
	b.WriteString("\n\n")
	if m.notice != "" {
		b.WriteString(tui.WarningStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(m.form.View())

	switch {
	case m.busy:
		b.WriteString(tui.DimStyle.Render("Signing in..."))
		b.WriteString("\n\n")
	case m.err != "":
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n\n")
	}

	b.WriteString(tui.DimStyle.Render("Enter: Sign in    Ctrl+R: Create account    Ctrl+C: Exit"))

	return centered(tui.BoxStyle.Width(m.width-4).Render(b.String()), m.height)
}

// centered pads content toward the vertical middle, slightly above center.
func centered(boxed string, height int) string {
	contentHeight := lipgloss.Height(boxed)
	if height > contentHeight {
		if padding := (height - contentHeight) / 3; padding > 0 {
			boxed = strings.Repeat("\n", padding) + boxed
		}
	}
	return boxed
}
