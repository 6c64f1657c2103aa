package chat

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/fxposquad/termbot/internal/ui/layout"
	"github.com/fxposquad/termbot/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	inner := max(width-4, 20)
	s.input.SetWidth(inner - 2)

	var b strings.Builder
	for _, e := range s.entries {
		b.WriteString(renderEntry(e, inner))
		b.WriteString("\n\n")
	}
	if s.pending > 0 {
		b.WriteString(theme.Hint.Render("  ...") + "\n\n")
	}

	// Room for the separator and the prompt line.
	transcript := layout.TailLines(strings.TrimRight(b.String(), "\n"), height-3)

	rule := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", inner))
	return lipgloss.NewStyle().PaddingLeft(2).Render(transcript + "\n" + rule + "\n" + s.input.View())
}

func renderEntry(e entry, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	switch e.role {
	case roleUser:
		return wrap.Inherit(theme.UserMessage).Render("› " + e.text)
	case roleSystem:
		return wrap.Inherit(theme.SystemMessage).Render(e.text)
	}

	var b strings.Builder
	b.WriteString(wrap.Inherit(theme.BotMessage).Render("📘 Ответ:\n" + e.text))
	if e.source != "" {
		b.WriteString("\n\n" + theme.SourceLine.Render("Источник: "+e.source))
	}
	if e.image != "" {
		b.WriteString("\n" + theme.SourceLine.Render("🖼 "+e.image))
	}
	return b.String()
}
