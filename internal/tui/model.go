package tui

import (
	"github.com/ainotes-dev/ainotes/internal/config"
	"github.com/ainotes-dev/ainotes/internal/model"
)

// Screen is the top-level screen being shown.
type Screen int

const (
	ScreenLoading Screen = iota // Session restoration in progress
	ScreenLogin
	ScreenRegister
	ScreenNotes // The note list or an editor, per the navigator
	ScreenChat
)

// Model holds state shared by every screen.
type Model struct {
	Screen Screen
	Cfg    *config.Config
	User   *model.User

	// Status is a one-line notice shown in the status bar; Err wins over it.
	Status string
	Err    error

	// Terminal dimensions
	Width  int
	Height int

	// Ctrl+C confirmation state
	CtrlCPending bool // True when waiting for second Ctrl+C press
}

// NewModel creates a new Model with the given configuration.
func NewModel(cfg *config.Config) *Model {
	return &Model{
		Screen: ScreenLoading,
		Cfg:    cfg,

		// Default dimensions (will be updated on WindowSizeMsg)
		Width:  80,
		Height: 24,
	}
}

// CellWidth is the pixel width assumed for one terminal column when
// translating mouse columns into swipe distances.
func (m *Model) CellWidth() float64 {
	if m.Cfg == nil || m.Cfg.Gesture.CellWidthPx <= 0 {
		return 8
	}
	return float64(m.Cfg.Gesture.CellWidthPx)
}
