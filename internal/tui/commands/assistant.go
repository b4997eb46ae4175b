package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainotes-dev/ainotes/internal/assistant"
	"github.com/ainotes-dev/ainotes/internal/tui"
)

// AskCmd sends a question through the bridge, which records both sides
// of the exchange in its transcript.
func AskCmd(bridge *assistant.Bridge, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := bridge.Ask(context.Background(), question)
		return tui.AnswerMsg{Answer: answer, Err: err}
	}
}
