// Package notes holds the client-side note collection: a cache of the
// server's notes plus the operations that mutate them remotely.
package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ainotes-dev/ainotes/internal/api"
	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/log"
	"github.com/ainotes-dev/ainotes/internal/model"
)

// Remote is the part of the API client the Store uses.
type Remote interface {
	ListNotes(ctx context.Context) ([]model.Note, error)
	GetNote(ctx context.Context, id string) (*model.Note, error)
	CreateNote(ctx context.Context, in model.NoteInput) (*model.Note, error)
	UploadImage(ctx context.Context, up api.ImageUpload) (*model.Note, error)
	UpdateNote(ctx context.Context, id string, in model.NoteInput) (*model.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Upload is an image to turn into a note.
type Upload struct {
	Filename string
	Data     []byte
	Title    string
}

type draft struct {
	Title   string `validate:"required_without=Content"`
	Content string `validate:"required_without=Title"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store caches the last listed notes. Only List and Delete change the
// cache; Create, UploadImage and Update return the server's note and leave
// the cache alone until the caller lists again.
type Store struct {
	remote Remote
	logger *log.Logger

	mu    sync.RWMutex
	notes []model.Note
}

// NewStore returns an empty Store.
func NewStore(remote Remote, logger *log.Logger) *Store {
	return &Store{remote: remote, logger: logger}
}

// List fetches every note and replaces the cache in server order.
func (s *Store) List(ctx context.Context) ([]model.Note, error) {
	start := time.Now()
	fetched, err := s.remote.ListNotes(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.notes = fetched
	s.mu.Unlock()

	_ = s.logger.Append(log.LogEvent{
		Event:      log.EventNotesListed,
		Count:      len(fetched),
		DurationMs: time.Since(start).Milliseconds(),
	})
	return s.Notes(), nil
}

// Get fetches a single note without touching the cache.
func (s *Store) Get(ctx context.Context, id string) (*model.Note, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("get note", "note id is required")
	}
	return s.remote.GetNote(ctx, id)
}

// Create adds a text note. Blank fields are sent as null; at least one of
// title and content must be non-blank.
func (s *Store) Create(ctx context.Context, title, content string) (*model.Note, error) {
	in, err := noteInput("create note", title, content)
	if err != nil {
		return nil, err
	}

	note, err := s.remote.CreateNote(ctx, in)
	if err != nil {
		return nil, err
	}
	_ = s.logger.Append(log.LogEvent{Event: log.EventNoteCreated, NoteID: note.ID})
	return note, nil
}

// UploadImage adds an image note.
func (s *Store) UploadImage(ctx context.Context, up Upload) (*model.Note, error) {
	note, err := s.remote.UploadImage(ctx, api.ImageUpload{
		Filename: up.Filename,
		Data:     up.Data,
		Title:    strings.TrimSpace(up.Title),
	})
	if err != nil {
		return nil, err
	}
	_ = s.logger.Append(log.LogEvent{Event: log.EventImageUploaded, NoteID: note.ID})
	return note, nil
}

// Update replaces the title and content of note id.
func (s *Store) Update(ctx context.Context, id, title, content string) (*model.Note, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("update note", "note id is required")
	}
	in, err := noteInput("update note", title, content)
	if err != nil {
		return nil, err
	}

	note, err := s.remote.UpdateNote(ctx, id, in)
	if err != nil {
		return nil, err
	}
	_ = s.logger.Append(log.LogEvent{Event: log.EventNoteUpdated, NoteID: note.ID})
	return note, nil
}

// Delete removes note id on the server, then from the cache. If the server
// call fails the cache is left as it was.
func (s *Store) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Validation("delete note", "note id is required")
	}

	if err := s.remote.DeleteNote(ctx, id); err != nil {
		_ = s.logger.Append(log.LogEvent{Event: log.EventNoteDeleteFailed, NoteID: id, Error: err.Error()})
		return err
	}

	s.mu.Lock()
	kept := s.notes[:0:0]
	for _, n := range s.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notes = kept
	s.mu.Unlock()

	_ = s.logger.Append(log.LogEvent{Event: log.EventNoteDeleted, NoteID: id})
	return nil
}

// Notes returns a copy of the cache.
func (s *Store) Notes() []model.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Lookup finds a cached note by id.
func (s *Store) Lookup(id string) (model.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return model.Note{}, false
}

func noteInput(op, title, content string) (model.NoteInput, error) {
	d := draft{Title: strings.TrimSpace(title), Content: strings.TrimSpace(content)}
	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return model.NoteInput{}, apperr.Validation(op, "a title or some content is required")
		}
		return model.NoteInput{}, apperr.Validation(op, err.Error())
	}
	// Content is sent as typed; only an all-blank field becomes null.
	in := model.NoteInput{Title: model.StringPtr(d.Title)}
	if d.Content != "" {
		in.Content = &content
	}
	return in, nil
}
