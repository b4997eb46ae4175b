// Package app provides the main TUI application that wires all views together.
package app

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/assistant"
	"github.com/ainotes-dev/ainotes/internal/config"
	"github.com/ainotes-dev/ainotes/internal/gesture"
	"github.com/ainotes-dev/ainotes/internal/nav"
	"github.com/ainotes-dev/ainotes/internal/notes"
	"github.com/ainotes-dev/ainotes/internal/session"
	"github.com/ainotes-dev/ainotes/internal/tui"
	"github.com/ainotes-dev/ainotes/internal/tui/commands"
	"github.com/ainotes-dev/ainotes/internal/tui/views"
)

// ExpiredNotice is shown on the login screen after a refresh failure.
const ExpiredNotice = "Your session expired. Please sign in again."

// Services are the long-lived components the TUI drives.
type Services struct {
	Session   *session.Manager
	Notes     *notes.Store
	Gestures  *gesture.Controller
	Assistant *assistant.Bridge
	Config    *config.Config

	// Start is the view opened after sign-in. The zero value is the list.
	Start nav.View
	// Now defaults to time.Now.
	Now func() time.Time
}

// App is the main TUI application that wires all views together.
type App struct {
	model   *tui.Model
	svc     Services
	nav     *nav.Navigator
	expired chan struct{}

	// View models
	loginView    views.LoginModel
	registerView views.RegisterModel
	notesView    views.NotesModel
	editorView   views.EditorModel
	chatView     views.ChatModel
}

// New creates a new App. Register NotifyExpired with the session manager so
// a failed refresh brings back the login screen.
func New(svc Services) *App {
	if svc.Now == nil {
		svc.Now = time.Now
	}
	if svc.Gestures == nil {
		svc.Gestures = gesture.NewController(svc.Now)
	}
	model := tui.NewModel(svc.Config)

	return &App{
		model:   model,
		svc:     svc,
		nav:     nav.NewNavigator(nav.List()),
		expired: make(chan struct{}, 1),
	}
}

// NotifyExpired records that the session was cleared. It never blocks, so it
// is safe to call from the goroutine running a request.
func (a *App) NotifyExpired() {
	select {
	case a.expired <- struct{}{}:
	default:
	}
}

// Screen returns the screen being shown.
func (a *App) Screen() tui.Screen {
	return a.model.Screen
}

// Current returns the navigator's view.
func (a *App) Current() nav.View {
	return a.nav.Current()
}

// Init restores the session and starts listening for expiry.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		commands.InitializeCmd(a.svc.Session),
		commands.WaitExpiredCmd(a.expired),
	)
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		return a, a.resize(msg)

	case tea.KeyMsg:
		if msg.String() == tui.KeyCtrlC {
			if a.model.CtrlCPending {
				// Second press within timeout - exit
				return a, tea.Quit
			}
			a.model.CtrlCPending = true
			return a, tea.Tick(time.Second, func(time.Time) tea.Msg {
				return tui.CtrlCResetMsg{}
			})
		}

	case tui.CtrlCResetMsg:
		a.model.CtrlCPending = false
		return a, nil

	// Session

	case tui.SessionReadyMsg:
		if msg.State == session.StateAuthenticated {
			return a, a.enterNotes(a.svc.Start)
		}
		return a, a.toLogin("")

	case tui.SessionExpiredMsg:
		wait := commands.WaitExpiredCmd(a.expired)
		if a.model.Screen == tui.ScreenLogin || a.model.Screen == tui.ScreenRegister {
			return a, wait
		}
		return a, tea.Batch(wait, a.toLogin(ExpiredNotice))

	case tui.SubmitLoginMsg:
		return a, commands.LoginCmd(a.svc.Session, msg.Identifier, msg.Secret)

	case tui.SubmitRegisterMsg:
		return a, commands.RegisterCmd(a.svc.Session, msg.Request)

	case tui.AuthResultMsg:
		if msg.Err != nil {
			text := apperr.Message(msg.Err)
			if a.model.Screen == tui.ScreenRegister {
				a.registerView.SetError(text)
			} else {
				a.loginView.SetError(text)
			}
			return a, nil
		}
		return a, a.enterNotes(a.svc.Start)

	case tui.ShowLoginMsg:
		return a, a.toLogin("")

	case tui.ShowRegisterMsg:
		a.model.Screen = tui.ScreenRegister
		a.registerView = views.NewRegisterModel(a.model.Width, a.model.Height)
		return a, a.registerView.Init()

	case tui.LogoutMsg:
		return a, commands.LogoutCmd(a.svc.Session)

	case tui.LoggedOutMsg:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		return a, a.toLogin("")

	// Notes

	case tui.RefreshNotesMsg:
		a.notesView.SetLoading(true)
		return a, commands.LoadNotesCmd(a.svc.Notes)

	case tui.NotesLoadedMsg:
		a.notesView.SetLoading(false)
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.model.Err = nil
		a.notesView.SetNotes(msg.Notes)
		return a, nil

	case tui.NavigateMsg:
		return a, a.navigate(msg.View)

	case tui.BackMsg:
		a.nav.Back()
		a.model.Err = nil
		return a, nil

	case tui.NoteLoadedMsg:
		if a.nav.Current().Kind != nav.KindUpdate {
			return a, nil
		}
		if msg.Err != nil {
			a.editorView.SetError(apperr.Message(msg.Err))
			return a, nil
		}
		a.editorView.SetNote(*msg.Note)
		return a, nil

	case tui.SaveNoteMsg:
		return a, commands.SaveNoteCmd(a.svc.Notes, msg.Draft)

	case tui.NoteSavedMsg:
		if msg.Err != nil {
			a.editorView.SetError(apperr.Message(msg.Err))
			return a, nil
		}
		a.nav.Home()
		a.model.Err = nil
		a.model.Status = "Note saved."
		a.notesView.SetLoading(true)
		return a, commands.LoadNotesCmd(a.svc.Notes)

	case tui.DeleteNoteMsg:
		a.model.Status = "Deleting..."
		return a, commands.DeleteNoteCmd(a.svc.Notes, msg.ID)

	case tui.NoteDeletedMsg:
		if msg.Err != nil {
			a.svc.Gestures.Reset(msg.ID)
			a.setError(msg.Err)
			return a, nil
		}
		a.svc.Gestures.Forget(msg.ID)
		a.notesView.SetNotes(a.svc.Notes.Notes())
		a.model.Err = nil
		a.model.Status = "Note deleted."
		return a, nil

	// Assistant

	case tui.OpenChatMsg:
		a.svc.Assistant.Greet()
		a.model.Screen = tui.ScreenChat
		a.chatView = views.NewChatModel(a.svc.Assistant.Transcript(), a.model.Width, a.model.Height)
		return a, a.chatView.Init()

	case tui.ExitChatMsg:
		a.model.Screen = tui.ScreenNotes
		return a, nil

	case tui.SendQuestionMsg:
		return a, commands.AskCmd(a.svc.Assistant, msg.Question)

	case tui.AnswerMsg:
		a.chatView.SetTranscript(a.svc.Assistant.Transcript())
		return a, nil
	}

	return a.route(msg)
}

// route forwards input to the active view.
func (a *App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.model.Screen {
	case tui.ScreenLogin:
		a.loginView, cmd = a.loginView.Update(msg)
	case tui.ScreenRegister:
		a.registerView, cmd = a.registerView.Update(msg)
	case tui.ScreenChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case tui.ScreenNotes:
		if _, ok := msg.(tea.KeyMsg); ok {
			a.model.Status = ""
		}
		if a.nav.Current().Kind == nav.KindList {
			a.notesView, cmd = a.notesView.Update(msg)
		} else {
			a.editorView, cmd = a.editorView.Update(msg)
		}
	}
	return a, cmd
}

// resize propagates a size change to every view that has been created.
func (a *App) resize(msg tea.WindowSizeMsg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch a.model.Screen {
	case tui.ScreenLogin:
		a.loginView, cmd = a.loginView.Update(msg)
		cmds = append(cmds, cmd)
	case tui.ScreenRegister:
		a.registerView, cmd = a.registerView.Update(msg)
		cmds = append(cmds, cmd)
	case tui.ScreenChat:
		a.chatView, cmd = a.chatView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if a.model.Screen == tui.ScreenNotes || a.model.Screen == tui.ScreenChat {
		a.notesView, cmd = a.notesView.Update(msg)
		cmds = append(cmds, cmd)
		if a.nav.Current().Kind != nav.KindList {
			a.editorView, cmd = a.editorView.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// ============================================================================
// Transitions
// ============================================================================

func (a *App) toLogin(notice string) tea.Cmd {
	a.model.Screen = tui.ScreenLogin
	a.model.User = nil
	a.model.Status = ""
	a.model.Err = nil
	a.nav = nav.NewNavigator(nav.List())
	a.svc.Assistant.Reset()
	for _, id := range a.svc.Gestures.Revealed() {
		a.svc.Gestures.Forget(id)
	}
	a.loginView = views.NewLoginModel(notice, a.model.Width, a.model.Height)
	return a.loginView.Init()
}

// enterNotes shows the note list, then start if it is not the list.
func (a *App) enterNotes(start nav.View) tea.Cmd {
	a.model.Screen = tui.ScreenNotes
	a.model.User = a.svc.Session.User()
	a.model.Err = nil
	a.nav = nav.NewNavigator(nav.List())
	a.notesView = views.NewNotesModel(a.svc.Gestures, a.model.CellWidth(), a.svc.Now, a.model.Width, a.model.Height)
	if a.model.User != nil {
		a.notesView.SetUser(a.model.User.DisplayName())
	}

	cmds := []tea.Cmd{commands.LoadNotesCmd(a.svc.Notes)}
	if start.Kind != nav.KindList {
		cmds = append(cmds, a.navigate(start))
	}
	return tea.Batch(cmds...)
}

func (a *App) navigate(v nav.View) tea.Cmd {
	if v == a.nav.Current() {
		return nil
	}
	a.nav.Go(v)
	a.model.Err = nil
	if v.Kind == nav.KindList {
		return nil
	}

	a.editorView = views.NewEditorModel(v, a.model.Width, a.model.Height)
	if v.Kind != nav.KindUpdate {
		return a.editorView.Init()
	}
	if n, ok := a.svc.Notes.Lookup(v.NoteID); ok {
		a.editorView.SetNote(n)
		return a.editorView.Init()
	}
	return tea.Batch(a.editorView.Init(), commands.LoadNoteCmd(a.svc.Notes, v.NoteID))
}

func (a *App) setError(err error) {
	a.model.Err = err
	a.model.Status = ""
}

// ============================================================================
// Rendering
// ============================================================================

// View renders the current application state.
func (a *App) View() string {
	var content string

	switch a.model.Screen {
	case tui.ScreenLoading:
		return lipgloss.Place(
			a.model.Width,
			a.model.Height,
			lipgloss.Center,
			lipgloss.Center,
			tui.DimStyle.Render("Restoring session..."),
		)
	case tui.ScreenLogin:
		content = a.loginView.View()
	case tui.ScreenRegister:
		content = a.registerView.View()
	case tui.ScreenChat:
		content = a.chatView.View()
	case tui.ScreenNotes:
		if a.nav.Current().Kind == nav.KindList {
			content = a.notesView.View()
		} else {
			content = a.editorView.View()
		}
	default:
		content = "Unknown screen"
	}

	if bar := a.statusBar(); bar != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", bar)
	}
	return content
}

func (a *App) statusBar() string {
	var parts []string
	switch {
	case a.model.Err != nil && (a.model.Screen == tui.ScreenNotes || a.model.Screen == tui.ScreenChat):
		parts = append(parts, tui.ErrorStyle.Render(apperr.Message(a.model.Err)))
	case a.model.Status != "":
		parts = append(parts, tui.SuccessStyle.Render(a.model.Status))
	}
	if a.model.CtrlCPending {
		parts = append(parts, tui.WarningStyle.Render("Press Ctrl+C again to exit"))
	}
	if len(parts) == 0 {
		return ""
	}
	return tui.StatusBarStyle.Render(strings.Join(parts, "  "))
}
