package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/fxposquad/termbot/internal/ui/theme"
)

// MultiChoice is the answer-button block of a quiz question. It only tracks
// the cursor; scoring belongs to the caller, which reports the outcome back
// through Reveal.
type MultiChoice struct {
	Options  []string
	Selected int

	revealed bool
	correct  int
	chosen   int
}

// NewMultiChoice creates a selector over options.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{Options: options, correct: -1, chosen: -1}
}

// Update moves the cursor. It returns the chosen index and true when the
// user confirms with Enter or a digit key.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, int, bool) {
	if m.revealed {
		return m, -1, false
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, -1, false
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		return m, m.Selected, true
	default:
		if len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < len(m.Options) {
			m.Selected = int(key[0] - '1')
			return m, m.Selected, true
		}
	}
	return m, -1, false
}

// Reveal freezes the block and marks the correct option, plus the chosen one
// when it differs. chosen is -1 when the time ran out.
func (m *MultiChoice) Reveal(correct, chosen int) {
	m.revealed = true
	m.correct = correct
	m.chosen = chosen
}

// Revealed reports whether the outcome is shown.
func (m MultiChoice) Revealed() bool {
	return m.revealed
}

// View renders one line per option.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.revealed {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case m.revealed && i == m.correct:
			style = theme.Correct
		case m.revealed && i == m.chosen:
			style = theme.Incorrect
		case m.revealed:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Render(line) + "\n")
	}
	return b.String()
}
