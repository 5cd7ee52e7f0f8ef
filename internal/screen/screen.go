// Package screen defines the contract between the router and the screens
// of the terminal game.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathsprint/internal/ui/layout"
)

// Screen is one page of the terminal game.
type Screen interface {
	// Init returns an initial command when the screen is pushed.
	Init() tea.Cmd

	// Update handles messages and returns the updated screen and command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// ScoreProvider is implemented by screens that show a live score in the
// header.
type ScoreProvider interface {
	HeaderScore() (score, streak int)
}

// Closer is implemented by screens that hold resources. The router calls
// Close when the screen leaves the stack.
type Closer interface {
	Close()
}
