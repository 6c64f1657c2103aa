// Package screen defines the contract every chat UI screen implements.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/fxposquad/termbot/internal/ui/layout"
)

// Screen is one page of the UI. View renders only the body; the root model
// draws the header and footer around it.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string
	Title() string
}

// KeyHintProvider replaces the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Closer is implemented by screens holding a quiz session or a countdown
// that must be released when they leave the stack.
type Closer interface {
	Close() tea.Cmd
}

// StatusProvider puts a short status, such as the answer mode, at the right
// of the header.
type StatusProvider interface {
	Status() string
}
