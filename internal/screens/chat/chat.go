// Package chat is the conversation screen: free-text term questions, mode
// switching and the entry points of the quiz and train modes.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/fxposquad/termbot/internal/glossary"
	"github.com/fxposquad/termbot/internal/llm"
	"github.com/fxposquad/termbot/internal/resolver"
	"github.com/fxposquad/termbot/internal/router"
	"github.com/fxposquad/termbot/internal/screen"
	"github.com/fxposquad/termbot/internal/screens/drill"
	"github.com/fxposquad/termbot/internal/textnorm"
	"github.com/fxposquad/termbot/internal/ui/components"
	"github.com/fxposquad/termbot/internal/ui/layout"
)

// Replies that do not come from the resolver.
const (
	RateLimitText = "⏳ Подождите секунду перед следующим сообщением."
	SimpleText    = "✅ Простой режим."
	DetailedText  = "✅ Развернутый режим."
	DetailedOnly  = "Викторина и тренировка доступны только в развернутом режиме."
	HelpText      = "Напишите термин или вопрос, например «что такое маржа».\n" +
		"Команды: «простой», «развернутый», «сменить режим», «помощь».\n" +
		"В развернутом режиме доступны «quiz» и «train»; из тренировки выходит Esc."
)

// Resolver answers term questions.
type Resolver interface {
	Resolve(ctx context.Context, query string, detailed bool) resolver.Answer
}

// Config wires a chat screen. Drill is the template for quiz and train
// screens; its Train and Limit fields are set per command.
type Config struct {
	Resolver    Resolver
	Drill       drill.Config
	ButtonLimit time.Duration
	ImagesDir   string
	RateLimit   time.Duration
	UserID      string
	Detailed    bool
	Now         func() time.Time
}

type role int

const (
	roleUser role = iota
	roleBot
	roleSystem
)

type entry struct {
	role   role
	text   string
	source string
	image  string
}

// answerMsg carries a resolver answer back to the UI loop.
type answerMsg struct {
	Answer resolver.Answer
	Image  string
}

// Screen implements screen.Screen for the conversation.
type Screen struct {
	cfg      Config
	detailed bool
	input    components.TextInput
	entries  []entry
	lastSent time.Time
	pending  int
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

// New creates a chat screen in the configured mode.
func New(cfg Config) *Screen {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Screen{
		cfg:      cfg,
		detailed: cfg.Detailed,
		input:    components.NewTextInput("Спросите термин...", 200),
	}
	s.system(modeText(cfg.Detailed))
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *Screen) Title() string {
	return "Словарь"
}

func (s *Screen) Status() string {
	if s.detailed {
		return "развернутый режим"
	}
	return "простой режим"
}

// Detailed reports the current answer mode.
func (s *Screen) Detailed() bool {
	return s.detailed
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Отправить"},
		{Key: "Esc", Description: "Сменить режим"},
		{Key: "Ctrl+C", Description: "Выход"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case answerMsg:
		s.pending--
		s.entries = append(s.entries, entry{
			role:   roleBot,
			text:   msg.Answer.Text,
			source: msg.Answer.Source,
			image:  msg.Image,
		})
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "enter" {
			return s.send(s.input.Take())
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// send handles one submitted line.
func (s *Screen) send(text string) (screen.Screen, tea.Cmd) {
	if text == "" {
		return s, nil
	}

	now := s.cfg.Now()
	if !s.lastSent.IsZero() && now.Sub(s.lastSent) < s.cfg.RateLimit {
		s.system(RateLimitText)
		return s, nil
	}
	s.lastSent = now
	s.entries = append(s.entries, entry{role: roleUser, text: text})

	switch strings.ToLower(text) {
	case "помощь", "/help", "help":
		s.system(HelpText)
		return s, nil
	case "простой":
		s.detailed = false
		s.system(SimpleText)
		return s, nil
	case "развернутый", "развёрнутый":
		s.detailed = true
		s.system(DetailedText)
		return s, nil
	case "сменить режим":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "quiz", "/quiz", "викторина":
		return s.startDrill(false)
	case "train", "/train", "тренировка":
		return s.startDrill(true)
	}

	s.pending++
	return s, s.resolve(text, s.detailed)
}

func (s *Screen) startDrill(train bool) (screen.Screen, tea.Cmd) {
	if !s.detailed {
		s.system(DetailedOnly)
		return s, nil
	}
	cfg := s.cfg.Drill
	cfg.Train = train
	cfg.Limit = s.cfg.ButtonLimit
	cfg.UserID = s.cfg.UserID
	return s, func() tea.Msg {
		return router.PushScreenMsg{Screen: drill.New(cfg)}
	}
}

// resolve runs the lookup off the UI loop; a remote embedder may be slow.
func (s *Screen) resolve(text string, detailed bool) tea.Cmd {
	r, user, imagesDir := s.cfg.Resolver, s.cfg.UserID, s.cfg.ImagesDir
	return func() tea.Msg {
		ctx := llm.WithPurpose(resolver.WithUser(context.Background(), user), llm.PurposeEmbedQuery)
		ans := r.Resolve(ctx, text, detailed)
		var image string
		if detailed {
			image, _ = glossary.ImagePath(imagesDir, textnorm.Normalize(text))
		}
		return answerMsg{Answer: ans, Image: image}
	}
}

func (s *Screen) system(text string) {
	s.entries = append(s.entries, entry{role: roleSystem, text: text})
}

func modeText(detailed bool) string {
	if detailed {
		return fmt.Sprintf("%s Напишите «помощь», чтобы увидеть команды.", DetailedText)
	}
	return fmt.Sprintf("%s Напишите «помощь», чтобы увидеть команды.", SimpleText)
}
