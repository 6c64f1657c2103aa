package components

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/fxposquad/termbot/internal/ui/theme"
)

// CountdownBar shows the time left to answer as a shrinking bar.
type CountdownBar struct {
	Remaining time.Duration
	Limit     time.Duration
	Width     int
}

// Percent returns the remaining share of the limit in [0, 1].
func (c CountdownBar) Percent() float64 {
	if c.Limit <= 0 {
		return 0
	}
	return min(max(float64(c.Remaining)/float64(c.Limit), 0), 1)
}

// View renders the bar followed by the seconds left, rounded up.
func (c CountdownBar) View() string {
	secs := int((c.Remaining + time.Second - 1) / time.Second)
	label := fmt.Sprintf("  ⏱ %2d с", secs)

	barWidth := max(c.Width-lipgloss.Width(label), 4)
	filled := min(int(float64(barWidth)*c.Percent()), barWidth)

	fill := theme.ProgressFilled
	if c.Percent() <= 0.3 {
		fill = theme.ProgressLow
	}

	return fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(label)
}
