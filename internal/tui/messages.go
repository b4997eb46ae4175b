package tui

import (
	"github.com/ainotes-dev/ainotes/internal/model"
	"github.com/ainotes-dev/ainotes/internal/nav"
	"github.com/ainotes-dev/ainotes/internal/session"
)

// ============================================================================
// Session Messages
// ============================================================================

// SessionReadyMsg signals that session restoration has finished.
type SessionReadyMsg struct {
	State session.State
	User  *model.User
}

// SessionExpiredMsg signals that a refresh failed and the session was cleared.
type SessionExpiredMsg struct{}

// SubmitLoginMsg is sent when the user submits the login form.
type SubmitLoginMsg struct {
	Identifier string
	Secret     string
}

// SubmitRegisterMsg is sent when the user submits the registration form.
type SubmitRegisterMsg struct {
	Request session.RegisterRequest
}

// AuthResultMsg carries the outcome of a login or registration.
type AuthResultMsg struct {
	User *model.User
	Err  error
}

// ShowLoginMsg switches to the login form.
type ShowLoginMsg struct{}

// ShowRegisterMsg switches to the registration form.
type ShowRegisterMsg struct{}

// LogoutMsg requests a logout.
type LogoutMsg struct{}

// LoggedOutMsg signals that the tokens were cleared.
type LoggedOutMsg struct {
	Err error
}

// ============================================================================
// Note Messages
// ============================================================================

// RefreshNotesMsg requests a reload of the note list.
type RefreshNotesMsg struct{}

// NotesLoadedMsg carries the result of listing notes.
type NotesLoadedMsg struct {
	Notes []model.Note
	Err   error
}

// NoteLoadedMsg carries a single note fetched for the editor.
type NoteLoadedMsg struct {
	Note *model.Note
	Err  error
}

// NavigateMsg asks the app to show a view.
type NavigateMsg struct {
	View nav.View
}

// BackMsg asks the app to return to the previous view.
type BackMsg struct{}

// NoteDraft is what the editor submits. ImagePath is only used when
// creating an image note.
type NoteDraft struct {
	View      nav.View
	Title     string
	Content   string
	ImagePath string
}

// SaveNoteMsg is sent when the editor is submitted.
type SaveNoteMsg struct {
	Draft NoteDraft
}

// NoteSavedMsg carries the result of a create, upload or update.
type NoteSavedMsg struct {
	Note *model.Note
	Err  error
}

// DeleteNoteMsg requests deletion of a note whose action is revealed.
type DeleteNoteMsg struct {
	ID string
}

// NoteDeletedMsg carries the result of a delete.
type NoteDeletedMsg struct {
	ID  string
	Err error
}

// ============================================================================
// Assistant Messages
// ============================================================================

// OpenChatMsg opens the assistant panel.
type OpenChatMsg struct{}

// ExitChatMsg closes the assistant panel.
type ExitChatMsg struct{}

// SendQuestionMsg is sent when the user submits a question.
type SendQuestionMsg struct {
	Question string
}

// AnswerMsg carries the outcome of a question.
type AnswerMsg struct {
	Answer *model.Answer
	Err    error
}

// ============================================================================
// Utility Messages
// ============================================================================

// CtrlCResetMsg clears the pending Ctrl+C confirmation.
type CtrlCResetMsg struct{}
