package commands

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/nav"
	"github.com/ainotes-dev/ainotes/internal/notes"
	"github.com/ainotes-dev/ainotes/internal/tui"
)

// LoadNotesCmd fetches the note list.
func LoadNotesCmd(store *notes.Store) tea.Cmd {
	return func() tea.Msg {
		list, err := store.List(context.Background())
		return tui.NotesLoadedMsg{Notes: list, Err: err}
	}
}

// LoadNoteCmd fetches a single note for the editor.
func LoadNoteCmd(store *notes.Store, id string) tea.Cmd {
	return func() tea.Msg {
		n, err := store.Get(context.Background(), id)
		return tui.NoteLoadedMsg{Note: n, Err: err}
	}
}

// SaveNoteCmd creates, uploads or updates a note depending on the draft's view.
func SaveNoteCmd(store *notes.Store, d tui.NoteDraft) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		switch {
		case d.View.Kind == nav.KindUpdate:
			n, err := store.Update(ctx, d.View.NoteID, d.Title, d.Content)
			return tui.NoteSavedMsg{Note: n, Err: err}

		case d.View.NoteKind == notes.KindImage:
			data, err := os.ReadFile(d.ImagePath)
			if err != nil {
				return tui.NoteSavedMsg{Err: apperr.Validation("upload image", fmt.Sprintf("cannot read %s: %v", d.ImagePath, err))}
			}
			n, err := store.UploadImage(ctx, notes.Upload{
				Filename: d.ImagePath,
				Data:     data,
				Title:    d.Title,
			})
			return tui.NoteSavedMsg{Note: n, Err: err}

		default:
			n, err := store.Create(ctx, d.Title, d.Content)
			return tui.NoteSavedMsg{Note: n, Err: err}
		}
	}
}

// DeleteNoteCmd deletes a note. The store keeps the cached list unchanged
// when the server refuses.
func DeleteNoteCmd(store *notes.Store, id string) tea.Cmd {
	return func() tea.Msg {
		return tui.NoteDeletedMsg{ID: id, Err: store.Delete(context.Background(), id)}
	}
}
