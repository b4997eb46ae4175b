// Package nav describes which screen is showing and keeps a back stack.
package nav

import (
	"fmt"
	"strings"

	"github.com/ainotes-dev/ainotes/internal/notes"
)

// Kind is a screen.
type Kind int

const (
	KindList Kind = iota
	KindCreate
	KindUpdate
)

// View is a destination. NoteKind is set for KindCreate, NoteID for KindUpdate.
type View struct {
	Kind     Kind
	NoteKind notes.Kind
	NoteID   string
}

// List is the note list.
func List() View { return View{Kind: KindList} }

// Create is the editor for a new note of kind k.
func Create(k notes.Kind) View { return View{Kind: KindCreate, NoteKind: k} }

// Update is the editor for an existing note.
func Update(id string) View { return View{Kind: KindUpdate, NoteID: id} }

// String renders v in the form Parse accepts.
func (v View) String() string {
	switch v.Kind {
	case KindCreate:
		return "create/" + string(v.NoteKind)
	case KindUpdate:
		return "note/" + v.NoteID
	default:
		return "list"
	}
}

// Parse reads "list", "create/text", "create/image" or "note/<id>".
func Parse(s string) (View, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "list":
		return List(), nil
	case s == "create/text":
		return Create(notes.KindText), nil
	case s == "create/image":
		return Create(notes.KindImage), nil
	case strings.HasPrefix(s, "note/"):
		id := strings.TrimPrefix(s, "note/")
		if id == "" || strings.Contains(id, "/") {
			return View{}, fmt.Errorf("invalid note view %q", s)
		}
		return Update(id), nil
	default:
		return View{}, fmt.Errorf("unknown view %q (want list, create/text, create/image or note/<id>)", s)
	}
}

// Navigator tracks the current view and where it came from.
type Navigator struct {
	history []View
	current View
}

// NewNavigator starts at start.
func NewNavigator(start View) *Navigator {
	return &Navigator{current: start}
}

// Current is the view showing now.
func (n *Navigator) Current() View {
	return n.current
}

// Go shows v and pushes the previous view. Going to the view already
// showing is a no-op.
func (n *Navigator) Go(v View) {
	if v == n.current {
		return
	}
	n.history = append(n.history, n.current)
	n.current = v
}

// Back returns to the previous view. With no history it falls back to the list.
func (n *Navigator) Back() View {
	if len(n.history) == 0 {
		n.current = List()
		return n.current
	}
	n.current = n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]
	return n.current
}

// Home clears the history and shows the list.
func (n *Navigator) Home() {
	n.history = nil
	n.current = List()
}
