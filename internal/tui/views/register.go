package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainotes-dev/ainotes/internal/session"
	"github.com/ainotes-dev/ainotes/internal/tui"
)

const (
	registerEmail = iota
	registerUsername
	registerPassword
	registerConfirm
)

// RegisterModel is the view model for the sign-up screen.
type RegisterModel struct {
	form   Form
	err    string
	busy   bool
	width  int
	height int
}

// NewRegisterModel creates an empty RegisterModel.
func NewRegisterModel(width, height int) RegisterModel {
	w := width - 12
	return RegisterModel{
		form: newForm(
			[]string{"Email", "Username", "Password", "Confirm password"},
			[]textinput.Model{
				newInput("you@example.com", w, false),
				newInput("username", w, false),
				newInput("at least 6 characters", w, true),
				newInput("repeat password", w, true),
			},
		),
		width:  width,
		height: height,
	}
}

// Init returns the initial command for the register view.
func (m RegisterModel) Init() tea.Cmd {
	return textinput.Blink
}

// SetError shows err under the form and re-enables input.
func (m *RegisterModel) SetError(err string) {
	m.err = err
	m.busy = false
}

// Update handles messages for the register view.
func (m RegisterModel) Update(msg tea.Msg) (RegisterModel, tea.Cmd) {
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
		case tui.KeyEsc, "ctrl+l":
			return m, func() tea.Msg { return tui.ShowLoginMsg{} }
		case tui.KeyEnter:
			if !m.form.Last() {
				cmd := m.form.Move(1)
				return m, cmd
			}
			req := session.RegisterRequest{
				Email:    strings.TrimSpace(m.form.Value(registerEmail)),
				Username: strings.TrimSpace(m.form.Value(registerUsername)),
				Password: m.form.Value(registerPassword),
				Confirm:  m.form.Value(registerConfirm),
			}
			m.err = ""
			m.busy = true
			return m, func() tea.Msg { return tui.SubmitRegisterMsg{Request: req} }
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

// View renders the register view.
func (m RegisterModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("ainotes · Create account"))
	b.WriteString("\n\n")
	b.WriteString(m.form.View())

	switch {
	case m.busy:
		b.WriteString(tui.DimStyle.Render("Creating account..."))
		b.WriteString("\n\n")
	case m.err != "":
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n\n")
	}

	b.WriteString(tui.DimStyle.Render("Enter: Register    Esc: Back to sign in    Ctrl+C: Exit"))

	return centered(tui.BoxStyle.Width(m.width-4).Render(b.String()), m.height)
}
