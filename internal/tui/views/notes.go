package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainotes-dev/ainotes/internal/gesture"
	"github.com/ainotes-dev/ainotes/internal/model"
	"github.com/ainotes-dev/ainotes/internal/nav"
	"github.com/ainotes-dev/ainotes/internal/notes"
	"github.com/ainotes-dev/ainotes/internal/tui"
)

const (
	// listHeaderLines is the number of lines above the first row:
	// title, blank, search, blank.
	listHeaderLines = 4
	deleteLabel     = " Delete "
	actionWidth     = len(deleteLabel) + 2
)

type listRow struct {
	header string
	noteID string
}

// NotesModel is the view model for the note list.
type NotesModel struct {
	notes     []model.Note
	search    textinput.Model
	gestures  *gesture.Controller
	cellWidth float64
	now       func() time.Time
	keys      tui.KeyMap

	selected string // id of the highlighted note
	dragging string // id of the row under a held mouse button
	pressX   int
	pressed  bool // the row was revealed when the button went down

	loading bool
	user    string
	width   int
	height  int
}

// NewNotesModel creates an empty list. Row swipes are recorded in gestures;
// mouse columns are multiplied by cellWidth to get swipe distances.
func NewNotesModel(gestures *gesture.Controller, cellWidth float64, now func() time.Time, width, height int) NotesModel {
	if now == nil {
		now = time.Now
	}
	ti := textinput.New()
	ti.Placeholder = "Search notes (/)"
	ti.Prompt = "⌕ "
	ti.CharLimit = 200
	ti.Width = width - 10

	return NotesModel{
		search:    ti,
		gestures:  gestures,
		cellWidth: cellWidth,
		now:       now,
		keys:      tui.DefaultKeyMap,
		loading:   true,
		width:     width,
		height:    height,
	}
}

// SetNotes replaces the notes shown, keeping the selection when possible.
func (m *NotesModel) SetNotes(list []model.Note) {
	m.notes = list
	m.loading = false
	m.clampSelection()
}

// SetUser sets the name shown in the header.
func (m *NotesModel) SetUser(name string) {
	m.user = name
}

// SetLoading toggles the loading indicator.
func (m *NotesModel) SetLoading(loading bool) {
	m.loading = loading
}

// Selected returns the id of the highlighted note.
func (m NotesModel) Selected() string {
	return m.selected
}

// Searching reports whether the search box has focus.
func (m NotesModel) Searching() bool {
	return m.search.Focused()
}

// Visible returns the notes in display order: filtered, then grouped by age.
func (m NotesModel) Visible() []model.Note {
	var out []model.Note
	for _, g := range notes.GroupByRecency(notes.Filter(m.notes, m.search.Value()), m.now()) {
		out = append(out, g.Notes...)
	}
	return out
}

func (m NotesModel) rows() []listRow {
	var rows []listRow
	for _, g := range notes.GroupByRecency(notes.Filter(m.notes, m.search.Value()), m.now()) {
		if len(g.Notes) == 0 {
			continue
		}
		if len(rows) > 0 {
			rows = append(rows, listRow{})
		}
		rows = append(rows, listRow{header: g.Bucket.Label()})
		for _, n := range g.Notes {
			rows = append(rows, listRow{noteID: n.ID})
		}
	}
	return rows
}

// noteAt maps a screen line to the note rendered there.
func (m NotesModel) noteAt(y int) (string, bool) {
	i := y - listHeaderLines
	rows := m.rows()
	if i < 0 || i >= len(rows) || rows[i].noteID == "" {
		return "", false
	}
	return rows[i].noteID, true
}

func (m *NotesModel) clampSelection() {
	visible := m.Visible()
	for _, n := range visible {
		if n.ID == m.selected {
			return
		}
	}
	m.selected = ""
	if len(visible) > 0 {
		m.selected = visible[0].ID
	}
}

func (m *NotesModel) moveSelection(delta int) {
	visible := m.Visible()
	if len(visible) == 0 {
		return
	}
	idx := 0
	for i, n := range visible {
		if n.ID == m.selected {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(visible) {
		idx = len(visible) - 1
	}
	m.selected = visible[idx].ID
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// Update handles messages for the note list.
func (m NotesModel) Update(msg tea.Msg) (NotesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = msg.Width - 10
		return m, nil
	}

	return m, nil
}

func (m NotesModel) updateSearch(msg tea.KeyMsg) (NotesModel, tea.Cmd) {
	switch msg.String() {
	case tui.KeyEsc, tui.KeyEnter:
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.clampSelection()
	return m, cmd
}

func (m NotesModel) updateKeys(msg tea.KeyMsg) (NotesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Search):
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Escape):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.clampSelection()
		}
	case key.Matches(msg, m.keys.Reveal):
		if m.selected != "" {
			m.gestures.Reveal(m.selected)
		}
	case key.Matches(msg, m.keys.Close):
		if m.selected != "" {
			m.gestures.Reset(m.selected)
		}
	case key.Matches(msg, m.keys.Delete):
		if m.selected != "" && m.gestures.State(m.selected).Revealed() {
			return m, emit(tui.DeleteNoteMsg{ID: m.selected})
		}
	case key.Matches(msg, m.keys.Enter):
		if m.selected != "" {
			return m, emit(tui.NavigateMsg{View: nav.Update(m.selected)})
		}
	case key.Matches(msg, m.keys.NewText):
		return m, emit(tui.NavigateMsg{View: nav.Create(notes.KindText)})
	case key.Matches(msg, m.keys.NewImage):
		return m, emit(tui.NavigateMsg{View: nav.Create(notes.KindImage)})
	case key.Matches(msg, m.keys.Chat):
		return m, emit(tui.OpenChatMsg{})
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, emit(tui.RefreshNotesMsg{})
	case key.Matches(msg, m.keys.Logout):
		return m, emit(tui.LogoutMsg{})
	}
	return m, nil
}

func (m NotesModel) updateMouse(msg tea.MouseMsg) (NotesModel, tea.Cmd) {
	x := float64(msg.X) * m.cellWidth

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		id, ok := m.noteAt(msg.Y)
		if !ok {
			return m, nil
		}
		m.selected = id
		revealed := m.gestures.State(id).Revealed()
		if revealed && msg.X >= m.width-actionWidth {
			return m, emit(tui.DeleteNoteMsg{ID: id})
		}
		m.gestures.Start(id, x)
		m.dragging = id
		m.pressX = msg.X
		m.pressed = revealed

	case tea.MouseActionMotion:
		if m.dragging != "" {
			m.gestures.Move(m.dragging, x)
		}

	case tea.MouseActionRelease:
		if m.dragging == "" {
			return m, nil
		}
		id := m.dragging
		m.dragging = ""
		m.gestures.End(id, x)
		// A plain click on a closed row opens it.
		if msg.X == m.pressX && !m.pressed {
			return m, emit(tui.NavigateMsg{View: nav.Update(id)})
		}
	}
	return m, nil
}

// View renders the note list.
func (m NotesModel) View() string {
	var b strings.Builder

	title := tui.TitleStyle.Render("ainotes")
	if m.user != "" {
		title += tui.DimStyle.Render("  " + m.user)
	}
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	rows := m.rows()
	switch {
	case m.loading && len(m.notes) == 0:
		b.WriteString(tui.DimStyle.Render("Loading notes..."))
		b.WriteString("\n")
	case len(rows) == 0 && m.search.Value() != "":
		b.WriteString(tui.DimStyle.Render("No notes match your search."))
		b.WriteString("\n")
	case len(rows) == 0:
		b.WriteString(tui.DimStyle.Render("No notes yet. Press n to write one or i to add an image."))
		b.WriteString("\n")
	}

	byID := make(map[string]model.Note, len(m.notes))
	for _, n := range m.notes {
		byID[n.ID] = n
	}
	for _, r := range rows {
		switch {
		case r.header != "":
			b.WriteString(tui.GroupHeaderStyle.Render(r.header))
		case r.noteID != "":
			b.WriteString(m.renderRow(byID[r.noteID]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("n: New  i: Image  /: Search  ←: Swipe  d: Delete  c: Ask  r: Refresh  L: Log out"))
	return b.String()
}

func (m NotesModel) renderRow(n model.Note) string {
	it := m.gestures.State(n.ID)

	icon := tui.IconText
	if notes.KindOf(n) == notes.KindImage {
		icon = tui.IconImage
	}

	preview := strings.Join(strings.Fields(notes.Preview(n)), " ")
	text := n.TitleOr("Untitled")
	if preview != "" {
		text += " · " + preview
	}
	if notes.KindOf(n) == notes.KindImage && len(n.Files) > 0 && n.Files[0].Filename != nil {
		text += " · " + *n.Files[0].Filename
	}

	// Slide the row left by the swipe translation.
	runes := []rune(text)
	if shift := int(-it.Translation / m.cellWidth); shift > 0 {
		if shift > len(runes) {
			shift = len(runes)
		}
		runes = runes[shift:]
	}

	room := m.width - actionWidth - 4
	if room < 10 {
		room = 10
	}
	if len(runes) > room {
		runes = append(runes[:room-1], '…')
	}
	text = string(runes)

	cursor := "  "
	if n.ID == m.selected {
		cursor = tui.SelectedStyle.Render("▸ ")
		text = tui.SelectedStyle.Render(text)
	}

	line := fmt.Sprintf("%s%s %s", cursor, icon, text)
	if it.Revealed() {
		pad := room - len(runes)
		if pad < 1 {
			pad = 1
		}
		line += strings.Repeat(" ", pad) + tui.DeleteActionStyle.Render(deleteLabel)
	}
	return line
}
