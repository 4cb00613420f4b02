package ui

import (
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// DefaultTermWidth is the fallback terminal width when detection fails.
const DefaultTermWidth = 120

// IsInteractive reports whether stdout is attached to a terminal.
// Non-interactive output skips styling and markdown rendering.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// TermWidth returns the detected terminal width, or DefaultTermWidth
// when stdout is not a terminal or detection fails.
func TermWidth() int {
	fd := os.Stdout.Fd()
	if !term.IsTerminal(fd) {
		return DefaultTermWidth
	}
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		return w
	}
	return DefaultTermWidth
}
