package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ainotes-dev/ainotes/internal/assistant"
	"github.com/ainotes-dev/ainotes/internal/tui"
)

// ChatModel is the view model for the notes assistant panel.
type ChatModel struct {
	messages  []assistant.Message
	pending   string // question awaiting an answer
	textarea  textarea.Model
	viewport  viewport.Model
	isLoading bool
	spinner   spinner.Model
	width     int
	height    int
}

func chatSize(width, height int) (int, int) {
	// Reserve space for: header (2 lines), loading indicator (2 lines), textarea (5 lines), footer (2 lines)
	vpHeight := height - 14
	if vpHeight < 5 {
		vpHeight = 5
	}
	vpWidth := width - 8
	if vpWidth < 20 {
		vpWidth = 20
	}
	return vpWidth, vpHeight
}

// NewChatModel creates a ChatModel showing transcript.
func NewChatModel(transcript []assistant.Message, width, height int) ChatModel {
	vpWidth, vpHeight := chatSize(width, height)

	ta := textarea.New()
	ta.Placeholder = "Ask about your notes... (Enter to send)"
	ta.CharLimit = 2000
	ta.SetWidth(vpWidth)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline = key.NewBinding(
		key.WithKeys("ctrl+j"),
		key.WithHelp("ctrl+j", "new line"),
	)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))

	m := ChatModel{
		messages: transcript,
		textarea: ta,
		viewport: viewport.New(vpWidth, vpHeight),
		spinner:  sp,
		width:    width,
		height:   height,
	}
	m.refresh()
	return m
}

// Init returns the initial command for the chat view.
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Loading reports whether a question is in flight.
func (m ChatModel) Loading() bool {
	return m.isLoading
}

// SetTranscript replaces the shown messages and ends the loading state.
func (m *ChatModel) SetTranscript(transcript []assistant.Message) {
	m.messages = transcript
	m.pending = ""
	m.isLoading = false
	m.refresh()
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(formatMessages(m.messages, m.pending, m.viewport.Width))
	m.viewport.GotoBottom()
}

// Update handles messages for the chat view.
func (m ChatModel) Update(msg tea.Msg) (ChatModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case tui.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			question := strings.TrimSpace(m.textarea.Value())
			if question == "" {
				return m, nil
			}
			m.textarea.Reset()
			m.pending = question
			m.isLoading = true
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, emit(tui.SendQuestionMsg{Question: question}))
		case tui.KeyEsc:
			return m, emit(tui.ExitChatMsg{})
		}

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpWidth, vpHeight := chatSize(msg.Width, msg.Height)
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
		m.textarea.SetWidth(vpWidth)
		m.refresh()
		return m, nil
	}

	if !m.isLoading {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the chat view.
func (m ChatModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Ask your notes"))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")

	if m.isLoading {
		b.WriteString(fmt.Sprintf("%s Thinking...", m.spinner.View()))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render(m.textarea.View()))
	} else {
		b.WriteString(m.textarea.View())
	}
	b.WriteString("\n\n")

	b.WriteString(tui.DimStyle.Render("Enter: Ask · Ctrl+J: New line · Esc: Back to notes"))

	return centered(tui.BoxStyle.Width(m.width-4).Render(b.String()), m.height)
}

// formatMessages renders the transcript followed by the pending question.
func formatMessages(messages []assistant.Message, pending string, width int) string {
	if len(messages) == 0 && pending == "" {
		return tui.DimStyle.Render("No messages yet.")
	}

	wrap := lipgloss.NewStyle().Width(width)
	var parts []string
	for _, msg := range messages {
		var prefix string
		var style lipgloss.Style

		switch msg.Role {
		case assistant.RoleUser:
			prefix = "You: "
			style = tui.UserStyle
		case assistant.RoleAssistant:
			prefix = "Assistant: "
			style = tui.AssistantStyle
		default:
			prefix = "Notice: "
			style = tui.WarningStyle
		}

		var b strings.Builder
		b.WriteString(style.Render(prefix))
		b.WriteString(msg.Content)
		if msg.Answer != nil && len(msg.Answer.RelevantNotes) > 0 {
			titles := make([]string, 0, len(msg.Answer.RelevantNotes))
			for _, n := range msg.Answer.RelevantNotes {
				titles = append(titles, n.TitleOr("Untitled"))
			}
			b.WriteString("\n")
			b.WriteString(tui.DimStyle.Render("Related: " + strings.Join(titles, ", ")))
		}
		parts = append(parts, wrap.Render(b.String()))
	}
	if pending != "" {
		parts = append(parts, wrap.Render(tui.UserStyle.Render("You: ")+pending))
	}

	return strings.Join(parts, "\n\n")
}
