// Package testutil provides test helper utilities for ainotes tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ainotes-dev/ainotes/internal/model"
)

// TempHome creates a temporary ainotes home with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempHome(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0700); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0600); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// PNG returns a valid 2x2 PNG image.
func PNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// TextNote builds a text note created at the given time.
func TextNote(id, title, content string, created time.Time) model.Note {
	return model.Note{
		ID:        id,
		Title:     model.StringPtr(title),
		Content:   model.StringPtr(content),
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// ImageNote builds an image note with a single attached file.
func ImageNote(id, title string, created time.Time) model.Note {
	n := TextNote(id, title, "", created)
	mime := "image/png"
	name := id + ".png"
	n.Files = []model.NoteFile{{
		ID:         id + "-file",
		NoteID:     &n.ID,
		StorageKey: "uploads/" + name,
		Filename:   &name,
		MimeType:   &mime,
		CreatedAt:  created,
	}}
	return n
}
