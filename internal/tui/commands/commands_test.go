package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ainotes-dev/ainotes/internal/api"
	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/log"
	"github.com/ainotes-dev/ainotes/internal/nav"
	"github.com/ainotes-dev/ainotes/internal/notes"
	"github.com/ainotes-dev/ainotes/internal/session"
	"github.com/ainotes-dev/ainotes/internal/storage"
	"github.com/ainotes-dev/ainotes/internal/testutil"
	"github.com/ainotes-dev/ainotes/internal/tui"
)

func setup(t *testing.T) (*testutil.Backend, *session.Manager, *notes.Store) {
	t.Helper()
	b := testutil.NewBackend(t)
	b.AddUser(t, "alice@example.com", "alice", "secret1")

	logger, err := log.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	client := api.NewClient(b.URL, 5*time.Second, logger)
	mgr := session.NewManager(storage.NewMemory(), client, logger)
	client.UseSession(mgr)
	return b, mgr, notes.NewStore(client, logger)
}

func TestInitializeCmd_Anonymous(t *testing.T) {
	_, mgr, _ := setup(t)
	msg, ok := InitializeCmd(mgr)().(tui.SessionReadyMsg)
	if !ok || msg.State != session.StateAnonymous || msg.User != nil {
		t.Fatalf("got %#v", msg)
	}
}

func TestLoginCmd(t *testing.T) {
	_, mgr, _ := setup(t)

	bad := LoginCmd(mgr, "alice", "nope")().(tui.AuthResultMsg)
	if !errors.Is(bad.Err, apperr.ErrAuth) {
		t.Errorf("bad login err = %v, want auth error", bad.Err)
	}

	good := LoginCmd(mgr, "alice", "secret1")().(tui.AuthResultMsg)
	if good.Err != nil || good.User == nil || good.User.Email != "alice@example.com" {
		t.Fatalf("good login = %#v", good)
	}

	out := LogoutCmd(mgr)().(tui.LoggedOutMsg)
	if out.Err != nil || mgr.Authenticated() {
		t.Errorf("logout = %#v, authenticated = %v", out, mgr.Authenticated())
	}
}

func TestSaveNoteCmd(t *testing.T) {
	b, mgr, store := setup(t)
	if err := mgr.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	img := filepath.Join(t.TempDir(), "cat.png")
	if err := os.WriteFile(img, testutil.PNG(t), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		draft tui.NoteDraft
		check func(t *testing.T, msg tui.NoteSavedMsg)
	}{
		{
			name:  "text",
			draft: tui.NoteDraft{View: nav.Create(notes.KindText), Title: "Ideas", Content: "boat"},
			check: func(t *testing.T, msg tui.NoteSavedMsg) {
				if msg.Err != nil || msg.Note.TitleOr("") != "Ideas" {
					t.Errorf("got %#v", msg)
				}
			},
		},
		{
			name:  "image",
			draft: tui.NoteDraft{View: nav.Create(notes.KindImage), Title: "Cat", ImagePath: img},
			check: func(t *testing.T, msg tui.NoteSavedMsg) {
				if msg.Err != nil || !msg.Note.IsImage() {
					t.Errorf("got %#v", msg)
				}
			},
		},
		{
			name:  "missing image",
			draft: tui.NoteDraft{View: nav.Create(notes.KindImage), ImagePath: filepath.Join(t.TempDir(), "nope.png")},
			check: func(t *testing.T, msg tui.NoteSavedMsg) {
				if !errors.Is(msg.Err, apperr.ErrValidation) {
					t.Errorf("err = %v, want validation", msg.Err)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, SaveNoteCmd(store, tc.draft)().(tui.NoteSavedMsg))
		})
	}

	if got := b.Count("POST", "/notes/upload-image"); got != 1 {
		t.Errorf("uploads = %d, want 1", got)
	}
}

func TestUpdateAndDeleteCmds(t *testing.T) {
	_, mgr, store := setup(t)
	if err := mgr.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	created := SaveNoteCmd(store, tui.NoteDraft{View: nav.Create(notes.KindText), Title: "Draft"})().(tui.NoteSavedMsg)
	if created.Err != nil {
		t.Fatalf("create: %v", created.Err)
	}
	id := created.Note.ID

	updated := SaveNoteCmd(store, tui.NoteDraft{View: nav.Update(id), Title: "Final", Content: "done"})().(tui.NoteSavedMsg)
	if updated.Err != nil || updated.Note.TitleOr("") != "Final" {
		t.Fatalf("update = %#v", updated)
	}

	loaded := LoadNoteCmd(store, id)().(tui.NoteLoadedMsg)
	if loaded.Err != nil || loaded.Note.Text() != "done" {
		t.Fatalf("load = %#v", loaded)
	}

	list := LoadNotesCmd(store)().(tui.NotesLoadedMsg)
	if list.Err != nil || len(list.Notes) != 1 {
		t.Fatalf("list = %#v", list)
	}

	deleted := DeleteNoteCmd(store, id)().(tui.NoteDeletedMsg)
	if deleted.Err != nil || deleted.ID != id || len(store.Notes()) != 0 {
		t.Errorf("delete = %#v, cached = %d", deleted, len(store.Notes()))
	}
}

func TestWaitExpiredCmd(t *testing.T) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	if _, ok := WaitExpiredCmd(ch)().(tui.SessionExpiredMsg); !ok {
		t.Error("want SessionExpiredMsg")
	}
	close(ch)
	if msg := WaitExpiredCmd(ch)(); msg != nil {
		t.Errorf("closed channel produced %#v", msg)
	}
}
