// Package home is the start screen: pick the answer mode, then chat.
package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/fxposquad/termbot/internal/router"
	"github.com/fxposquad/termbot/internal/screen"
	"github.com/fxposquad/termbot/internal/screens/chat"
	"github.com/fxposquad/termbot/internal/ui/components"
	"github.com/fxposquad/termbot/internal/ui/layout"
	"github.com/fxposquad/termbot/internal/ui/theme"
)

// HomeScreen offers the two answer modes.
type HomeScreen struct {
	menu   components.Menu
	terms  int
	source string
}

var (
	_ screen.Screen          = (*HomeScreen)(nil)
	_ screen.KeyHintProvider = (*HomeScreen)(nil)
)

// New creates the home screen. chatCfg is the template for the chat screen;
// its Detailed field is set by the chosen menu item.
func New(chatCfg chat.Config, terms int, source string) *HomeScreen {
	open := func(detailed bool) func() tea.Cmd {
		return func() tea.Cmd {
			cfg := chatCfg
			cfg.Detailed = detailed
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: chat.New(cfg)}
			}
		}
	}

	menu := components.NewMenu([]components.MenuItem{
		{Label: "Простой режим", Hint: "краткие определения", Action: open(false)},
		{Label: "Развернутый режим", Hint: "подробные ответы, викторина и тренировка", Action: open(true)},
		{Label: "Выход", Action: func() tea.Cmd { return tea.Quit }},
	})
	if chatCfg.Detailed {
		menu.Selected = 1
	}

	return &HomeScreen{menu: menu, terms: terms, source: source}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("👋 Добро пожаловать в termbot"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render(
		fmt.Sprintf("Словарь трейдера %s · терминов: %d", h.source, h.terms)))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(width).Render("Выберите режим:"))
	b.WriteString("\n\n")

	menu := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(
		theme.Card.Render(strings.TrimRight(h.menu.View(), "\n")))
	b.WriteString(menu)

	return b.String()
}

func (h *HomeScreen) Title() string {
	return "Старт"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Выбор"},
		{Key: "Enter", Description: "Старт"},
		{Key: "Ctrl+C", Description: "Выход"},
	}
}
