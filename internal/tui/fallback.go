package tui

import (
	"fmt"
	"io"
)

// FallbackRunner handles non-TTY execution by guiding users to CLI commands.
type FallbackRunner struct {
	out io.Writer
}

// NewFallbackRunner creates a new FallbackRunner writing to out.
func NewFallbackRunner(out io.Writer) *FallbackRunner {
	return &FallbackRunner{out: out}
}

// Run prints the non-interactive equivalents of the TUI screens.
func (f *FallbackRunner) Run() error {
	lines := []string{
		"Non-TTY environment detected.",
		"Use the subcommands instead:",
		"  ainotes login                 sign in",
		"  ainotes notes list            list notes grouped by age",
		"  ainotes notes create          create a text note",
		"  ainotes notes upload <file>   create an image note",
		"  ainotes ask <question>        ask about your notes",
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(f.out, l); err != nil {
			return err
		}
	}
	return nil
}
