package views

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainotes-dev/ainotes/internal/session"
	"github.com/ainotes-dev/ainotes/internal/tui"
)

func TestLogin_Submit(t *testing.T) {
	m := NewLoginModel("", 80, 24)

	m, _ = m.Update(runes(" alice "))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(runes("secret1"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	got, ok := msgOf(cmd).(tui.SubmitLoginMsg)
	if !ok {
		t.Fatalf("enter produced %#v", msgOf(cmd))
	}
	if got.Identifier != "alice" || got.Secret != "secret1" {
		t.Errorf("submitted %#v", got)
	}
	if !m.Busy() {
		t.Error("login should be busy after submit")
	}

	m.SetError("Incorrect email/username or password")
	if m.Busy() || !strings.Contains(m.View(), "Incorrect email/username or password") {
		t.Error("SetError should show the message and re-enable the form")
	}
}

func TestLogin_RequiresBothFields(t *testing.T) {
	m := NewLoginModel("", 80, 24)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("empty submit produced %#v", msgOf(cmd))
	}
	if !strings.Contains(m.View(), "Enter your email or username and password.") {
		t.Error("missing field error not shown")
	}
}

func TestLogin_NoticeAndSwitch(t *testing.T) {
	m := NewLoginModel("Your session expired. Please sign in again.", 80, 24)
	if !strings.Contains(m.View(), "Your session expired") {
		t.Error("notice not shown")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if _, ok := msgOf(cmd).(tui.ShowRegisterMsg); !ok {
		t.Errorf("ctrl+r produced %#v", msgOf(cmd))
	}
}

func TestRegister_Submit(t *testing.T) {
	m := NewRegisterModel(80, 30)
	for i, v := range []string{"bob@example.com", "bob", "hunter22", "hunter22"} {
		if i > 0 {
			m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
		}
		m, _ = m.Update(runes(v))
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	got, ok := msgOf(cmd).(tui.SubmitRegisterMsg)
	if !ok {
		t.Fatalf("enter produced %#v", msgOf(cmd))
	}
	want := session.RegisterRequest{Email: "bob@example.com", Username: "bob", Password: "hunter22", Confirm: "hunter22"}
	if got.Request != want {
		t.Errorf("request = %#v, want %#v", got.Request, want)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd != nil {
		t.Error("form is busy; esc should be ignored until the result arrives")
	}
}
