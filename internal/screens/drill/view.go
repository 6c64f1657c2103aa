package drill

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/fxposquad/termbot/internal/ui/components"
	"github.com/fxposquad/termbot/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	inner := max(width-4, 20)

	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render("\n\n" + s.errMsg)
	}
	if s.question == nil {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\nГотовим вопрос...")
	}

	var b strings.Builder

	if s.cfg.Train {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
			Render(fmt.Sprintf("  Верно %d из %d", s.correct, s.asked)))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("  🧠 Угадай термин:"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(inner).PaddingLeft(2).Foreground(theme.Text).Render(s.question.Prompt))
	b.WriteString("\n\n")
	b.WriteString(s.choice.View())
	b.WriteString("\n")

	if s.result == nil {
		bar := components.CountdownBar{
			Remaining: s.countdown.Remaining(s.now),
			Limit:     s.cfg.Limit,
			Width:     min(inner, 60),
		}
		b.WriteString("  " + bar.View())
	} else {
		style := theme.Incorrect
		if s.result.Correct() {
			style = theme.Correct
		}
		b.WriteString("  " + style.Render(s.result.Message))
		if s.question.Explanation != "" {
			b.WriteString("\n\n")
			b.WriteString(lipgloss.NewStyle().Width(inner).PaddingLeft(2).Foreground(theme.TextDim).
				Render("💡 " + s.question.Explanation))
		}
	}

	if s.notice != "" {
		b.WriteString("\n\n  " + theme.Hint.Render(s.notice))
	}

	return b.String()
}
