package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/model"
	"github.com/ainotes-dev/ainotes/internal/testutil"
)

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Register(context.Background(), "alice@example.com", "alice2", "secret1")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Register() error = %v, want validation", err)
	}
	if got := apperr.Message(err); got != "Email already registered" {
		t.Errorf("Message() = %q", got)
	}
}

func TestNotesLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	created, err := h.client.CreateNote(ctx, model.NoteInput{
		Title:   model.StringPtr("Groceries"),
		Content: model.StringPtr("milk, eggs"),
	})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if created.ID == "" || created.TitleOr("") != "Groceries" {
		t.Fatalf("created = %+v", created)
	}

	got, err := h.client.GetNote(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Text() != "milk, eggs" {
		t.Errorf("content = %q", got.Text())
	}

	updated, err := h.client.UpdateNote(ctx, created.ID, model.NoteInput{
		Title:   model.StringPtr("Shopping"),
		Content: model.StringPtr("milk"),
	})
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if updated.TitleOr("") != "Shopping" || updated.Text() != "milk" {
		t.Errorf("updated = %+v", updated)
	}

	if err := h.client.DeleteNote(ctx, created.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := h.client.GetNote(ctx, created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetNote after delete error = %v, want not found", err)
	}
}

func TestListNotes_ServerOrder(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.SeedNote(h.user.ID, model.Note{ID: "n1", Title: model.StringPtr("first")})
	h.backend.SeedNote(h.user.ID, model.Note{ID: "n2", Title: model.StringPtr("second")})
	h.backend.SeedNote("someone-else", model.Note{ID: "n3"})

	notes, err := h.client.ListNotes(context.Background())
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(notes) != 2 || notes[0].ID != "n1" || notes[1].ID != "n2" {
		t.Errorf("notes = %+v, want n1, n2", notes)
	}
}

func TestUploadImage(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	note, err := h.client.UploadImage(context.Background(), ImageUpload{
		Filename: "/tmp/photos/cat.png",
		Data:     testutil.PNG(t),
		Title:    "Cat",
	})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !note.IsImage() {
		t.Fatal("uploaded note has no files")
	}
	f := note.Files[0]
	if f.Filename == nil || *f.Filename != "cat.png" {
		t.Errorf("filename = %v, want cat.png", f.Filename)
	}
	if f.MimeType == nil || *f.MimeType != "image/png" {
		t.Errorf("mime = %v, want image/png", f.MimeType)
	}
	if note.TitleOr("") != "Cat" {
		t.Errorf("title = %q", note.TitleOr(""))
	}
}

func TestUploadImage_RejectedLocally(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("just some words, not a picture")},
		{"pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")},
	}

	h := newHarness(t)
	h.login(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.client.UploadImage(context.Background(), ImageUpload{Filename: "doc.bin", Data: tt.data})
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("UploadImage() error = %v, want validation", err)
			}
		})
	}
	if n := h.backend.Count(http.MethodPost, "/notes/upload-image"); n != 0 {
		t.Errorf("upload requests = %d, want 0", n)
	}
}

func TestAskAndHistory(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	h.backend.SeedNote(h.user.ID, model.Note{Title: model.StringPtr("Trip"), Content: model.StringPtr("Lisbon in May")})
	h.backend.SetAnswer("You are going to Lisbon.")

	answer, err := h.client.Ask(ctx, "Where am I going?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Answer != "You are going to Lisbon." || answer.QueryType != "general" {
		t.Errorf("answer = %+v", answer)
	}
	if len(answer.RelevantNotes) != 1 {
		t.Errorf("relevant notes = %d, want 1", len(answer.RelevantNotes))
	}

	history, err := h.client.ChatHistory(ctx)
	if err != nil {
		t.Fatalf("ChatHistory: %v", err)
	}
	if len(history) != 1 || history[0].Question != "Where am I going?" {
		t.Fatalf("history = %+v", history)
	}

	entry, err := h.client.ChatHistoryEntry(ctx, history[0].ID)
	if err != nil {
		t.Fatalf("ChatHistoryEntry: %v", err)
	}
	if entry.Response["answer"] != "You are going to Lisbon." {
		t.Errorf("entry response = %v", entry.Response)
	}

	if err := h.client.DeleteChatHistoryEntry(ctx, entry.ID); err != nil {
		t.Fatalf("DeleteChatHistoryEntry: %v", err)
	}
	if _, err := h.client.ChatHistoryEntry(ctx, entry.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("ChatHistoryEntry after delete error = %v, want not found", err)
	}
}
