// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainotes-dev/ainotes/internal/session"
	"github.com/ainotes-dev/ainotes/internal/tui"
)

// InitializeCmd restores the stored session.
// Returns SessionReadyMsg once the state is no longer loading.
func InitializeCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		state := mgr.Initialize(context.Background())
		return tui.SessionReadyMsg{State: state, User: mgr.User()}
	}
}

// LoginCmd signs in with an email or username and password.
func LoginCmd(mgr *session.Manager, identifier, secret string) tea.Cmd {
	return func() tea.Msg {
		if err := mgr.Login(context.Background(), identifier, secret); err != nil {
			return tui.AuthResultMsg{Err: err}
		}
		return tui.AuthResultMsg{User: mgr.User()}
	}
}

// RegisterCmd creates an account and signs in with it.
func RegisterCmd(mgr *session.Manager, req session.RegisterRequest) tea.Cmd {
	return func() tea.Msg {
		if err := mgr.Register(context.Background(), req); err != nil {
			return tui.AuthResultMsg{Err: err}
		}
		return tui.AuthResultMsg{User: mgr.User()}
	}
}

// LogoutCmd clears the stored tokens.
func LogoutCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		return tui.LoggedOutMsg{Err: mgr.Logout()}
	}
}

// WaitExpiredCmd blocks until the session manager reports an expired
// session on expired. The caller re-issues it after each SessionExpiredMsg.
func WaitExpiredCmd(expired <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-expired; !ok {
			return nil
		}
		return tui.SessionExpiredMsg{}
	}
}
