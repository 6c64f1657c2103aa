// Package app builds the logger and the domain services, and hosts the
// Bubble Tea root model of the chat UI.
package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/fxposquad/termbot/internal/router"
	"github.com/fxposquad/termbot/internal/screen"
	"github.com/fxposquad/termbot/internal/screens/chat"
	"github.com/fxposquad/termbot/internal/screens/drill"
	"github.com/fxposquad/termbot/internal/screens/home"
	"github.com/fxposquad/termbot/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel creates an AppModel with the mode-selection screen at the
// root. With skipHome the chat starts on top of it, so "сменить режим" and
// Esc still lead back to the mode choice.
func newAppModel(s *Services, skipHome bool) AppModel {
	cfg := s.Config
	chatCfg := chat.Config{
		Resolver: s.Resolver,
		Drill: drill.Config{
			Questions: s.Generator,
			Engine:    s.Engine,
			Pause:     cfg.Quiz.TrainPause,
		},
		ButtonLimit: cfg.Quiz.ButtonTimeLimit,
		ImagesDir:   cfg.Data.ImagesDir,
		RateLimit:   cfg.Chat.RateLimit,
		UserID:      cfg.Chat.UserID,
		Detailed:    cfg.Chat.Detailed(),
	}

	root := home.New(chatCfg, s.Glossary.Len(), s.Resolver.Source())
	if skipHome {
		return AppModel{router: router.New(root, chat.New(chatCfg))}
	}
	return AppModel{router: router.New(root)}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the frame around the active screen.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	var title, status string
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
	}

	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Назад"},
			{Key: "Ctrl+C", Description: "Выход"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the chat UI and blocks until the user quits. With skipHome
// the configured default mode opens straight away.
func Run(s *Services, skipHome bool) error {
	p := tea.NewProgram(newAppModel(s, skipHome))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chat ui: %w", err)
	}
	return nil
}
