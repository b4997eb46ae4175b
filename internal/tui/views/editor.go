package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainotes-dev/ainotes/internal/model"
	"github.com/ainotes-dev/ainotes/internal/nav"
	"github.com/ainotes-dev/ainotes/internal/notes"
	"github.com/ainotes-dev/ainotes/internal/tui"
)

const (
	editorTitle = iota
	editorBody
)

// EditorModel edits a new text note, a new image note or an existing note.
type EditorModel struct {
	view    nav.View
	title   textinput.Model
	content textarea.Model
	path    textinput.Model // image file, only when creating an image note
	focus   int

	note    *model.Note
	loading bool
	busy    bool
	err     string
	width   int
	height  int
}

// NewEditorModel creates an editor for v. Update views start in a loading
// state until SetNote is called.
func NewEditorModel(v nav.View, width, height int) EditorModel {
	title := newInput("Title (optional)", width-12, false)
	title.Focus()

	ta := textarea.New()
	ta.Placeholder = "Write your note..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(width - 12)
	ta.SetHeight(editorHeight(height))

	path := newInput("path/to/image.png", width-12, false)
	path.CharLimit = 4096

	return EditorModel{
		view:    v,
		title:   title,
		content: ta,
		path:    path,
		loading: v.Kind == nav.KindUpdate,
		width:   width,
		height:  height,
	}
}

func editorHeight(height int) int {
	h := height - 16
	if h < 3 {
		h = 3
	}
	return h
}

// Init returns the initial command for the editor.
func (m EditorModel) Init() tea.Cmd {
	return textinput.Blink
}

// Target returns the navigation target being edited.
func (m EditorModel) Target() nav.View {
	return m.view
}

// SetNote fills the editor with an existing note.
func (m *EditorModel) SetNote(n model.Note) {
	m.note = &n
	m.loading = false
	m.title.SetValue(n.TitleOr(""))
	m.content.SetValue(n.Text())
}

// SetBusy marks a save as in flight.
func (m *EditorModel) SetBusy(busy bool) {
	m.busy = busy
	if busy {
		m.err = ""
	}
}

// SetError shows err and re-enables input.
func (m *EditorModel) SetError(err string) {
	m.err = err
	m.busy = false
	m.loading = false
}

func (m EditorModel) imageUpload() bool {
	return m.view.Kind == nav.KindCreate && m.view.NoteKind == notes.KindImage
}

// Draft returns the current field values.
func (m EditorModel) Draft() tui.NoteDraft {
	d := tui.NoteDraft{View: m.view, Title: m.title.Value()}
	if m.imageUpload() {
		d.ImagePath = strings.TrimSpace(m.path.Value())
	} else {
		d.Content = m.content.Value()
	}
	return d
}

func (m *EditorModel) setFocus(i int) tea.Cmd {
	m.focus = i
	m.title.Blur()
	m.path.Blur()
	m.content.Blur()
	switch {
	case i == editorTitle:
		return m.title.Focus()
	case m.imageUpload():
		return m.path.Focus()
	default:
		return m.content.Focus()
	}
}

// Update handles messages for the editor.
func (m EditorModel) Update(msg tea.Msg) (EditorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy || m.loading {
			if msg.String() == tui.KeyEsc {
				return m, emit(tui.BackMsg{})
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, tui.DefaultKeyMap.Save):
			d := m.Draft()
			if m.imageUpload() && d.ImagePath == "" {
				m.err = "Choose an image file to upload."
				return m, nil
			}
			m.SetBusy(true)
			return m, emit(tui.SaveNoteMsg{Draft: d})
		case msg.String() == tui.KeyEsc:
			return m, emit(tui.BackMsg{})
		case msg.String() == tui.KeyTab, msg.String() == tui.KeyShiftTab:
			cmd := m.setFocus(1 - m.focus)
			return m, cmd
		case msg.String() == tui.KeyEnter && m.focus == editorTitle:
			cmd := m.setFocus(editorBody)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.title.Width = msg.Width - 12
		m.path.Width = msg.Width - 12
		m.content.SetWidth(msg.Width - 12)
		m.content.SetHeight(editorHeight(msg.Height))
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case m.focus == editorTitle:
		m.title, cmd = m.title.Update(msg)
	case m.imageUpload():
		m.path, cmd = m.path.Update(msg)
	default:
		m.content, cmd = m.content.Update(msg)
	}
	return m, cmd
}

// View renders the editor.
func (m EditorModel) View() string {
	var b strings.Builder

	var heading string
	switch {
	case m.view.Kind == nav.KindUpdate:
		heading = "Edit note"
	case m.imageUpload():
		heading = "New image note"
	default:
		heading = "New note"
	}
	b.WriteString(tui.TitleStyle.Render(heading))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(tui.DimStyle.Render("Loading note..."))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render("Esc: Back"))
		return tui.BoxStyle.Width(m.width - 4).Render(b.String())
	}

	b.WriteString(m.label("Title", editorTitle))
	b.WriteString(m.title.View())
	b.WriteString("\n\n")

	if m.imageUpload() {
		b.WriteString(m.label("Image file", editorBody))
		b.WriteString(m.path.View())
	} else {
		if m.note != nil && m.note.IsImage() {
			for _, f := range m.note.Files {
				name := "image"
				if f.Filename != nil {
					name = *f.Filename
				}
				b.WriteString(tui.DimStyle.Render(fmt.Sprintf("%s %s", tui.IconImage, name)))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
		b.WriteString(m.label("Content", editorBody))
		b.WriteString(m.content.View())
	}
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(tui.DimStyle.Render("Saving..."))
		b.WriteString("\n\n")
	case m.err != "":
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n\n")
	}

	b.WriteString(tui.DimStyle.Render("Ctrl+S: Save    Tab: Next field    Esc: Cancel"))
	return tui.BoxStyle.Width(m.width - 4).Render(b.String())
}

func (m EditorModel) label(text string, field int) string {
	if m.focus == field {
		return tui.SelectedStyle.Render(text) + "\n"
	}
	return tui.DimStyle.Render(text) + "\n"
}
