package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/model"
)

// ImageUpload is the payload of an image note.
type ImageUpload struct {
	Filename string
	Data     []byte
	Title    string
}

// ListNotes returns every note of the current user in server order.
func (c *Client) ListNotes(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/notes/"}, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return notes, nil
}

// GetNote fetches a single note.
func (c *Client) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var note model.Note
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: notePath(id)}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// CreateNote creates a text note.
func (c *Client) CreateNote(ctx context.Context, in model.NoteInput) (*model.Note, error) {
	req, err := jsonRequest(http.MethodPost, "/notes/", in)
	if err != nil {
		return nil, err
	}
	var note model.Note
	if err := c.Do(ctx, req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote replaces the title and content of a note.
func (c *Client) UpdateNote(ctx context.Context, id string, in model.NoteInput) (*model.Note, error) {
	req, err := jsonRequest(http.MethodPut, notePath(id), in)
	if err != nil {
		return nil, err
	}
	var note model.Note
	if err := c.Do(ctx, req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteNote removes a note. The server answers 204.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: notePath(id)}, nil)
}

// UploadImage creates an image note from raw bytes. The content type is
// sniffed locally and anything that is not an image is rejected before
// the request is sent.
func (c *Client) UploadImage(ctx context.Context, up ImageUpload) (*model.Note, error) {
	if len(up.Data) == 0 {
		return nil, apperr.Validation("upload image", "image file is empty")
	}

	mime := mimetype.Detect(up.Data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, apperr.Validation("upload image", fmt.Sprintf("%s is not an image (detected %s)", displayName(up.Filename), mime.String()))
	}

	filename := filepath.Base(up.Filename)
	if filename == "." || filename == string(filepath.Separator) || filename == "" {
		filename = "image" + mime.Extension()
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", mime.String())
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating image part: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, fmt.Errorf("writing image part: %w", err)
	}
	if up.Title != "" {
		if err := w.WriteField("title", up.Title); err != nil {
			return nil, fmt.Errorf("writing title field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req := Request{
		Method:      http.MethodPost,
		Path:        "/notes/upload-image",
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
	}

	var note model.Note
	if err := c.Do(ctx, req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func notePath(id string) string {
	return "/notes/" + url.PathEscape(id)
}

func displayName(filename string) string {
	if filename == "" {
		return "file"
	}
	return filepath.Base(filename)
}
