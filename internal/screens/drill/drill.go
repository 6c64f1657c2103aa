// Package drill is the button quiz screen: one timed question, or an endless
// train loop with a short pause between questions.
package drill

import (
	"context"
	"errors"
	"slices"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/fxposquad/termbot/internal/quiz"
	"github.com/fxposquad/termbot/internal/resolver"
	"github.com/fxposquad/termbot/internal/router"
	"github.com/fxposquad/termbot/internal/screen"
	"github.com/fxposquad/termbot/internal/ui/components"
	"github.com/fxposquad/termbot/internal/ui/layout"
)

const tickInterval = 250 * time.Millisecond

// QuestionSource produces quiz questions.
type QuestionSource interface {
	Generate(topic string) (*quiz.Question, error)
}

// Config wires a drill screen.
type Config struct {
	Questions QuestionSource
	Engine    *quiz.Engine
	UserID    string
	Topic     string
	Limit     time.Duration
	Pause     time.Duration
	Train     bool
	Now       func() time.Time
}

// Screen implements screen.Screen for the quiz and train modes.
type Screen struct {
	cfg Config

	question  *quiz.Question
	choice    components.MultiChoice
	countdown *quiz.Countdown
	expiry    chan quiz.Result
	done      chan struct{}
	now       time.Time

	result *quiz.Result
	notice string
	errMsg string

	asked   int
	correct int
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.Closer          = (*Screen)(nil)
)

// New creates a drill screen.
func New(cfg Config) *Screen {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Screen{cfg: cfg}
}

func (s *Screen) Init() tea.Cmd {
	return s.nextQuestion()
}

func (s *Screen) Title() string {
	if s.cfg.Train {
		return "Тренировка"
	}
	return "Викторина"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	back := layout.KeyHint{Key: "Esc", Description: "Назад"}
	if s.cfg.Train {
		back.Description = "Выйти из тренинга"
	}
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Назад"}}
	case s.result == nil:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Выбор"},
			{Key: "Enter/1-4", Description: "Ответить"},
			back,
		}
	case !s.cfg.Train:
		return []layout.KeyHint{{Key: "Enter", Description: "Ещё вопрос"}, back}
	}
	return []layout.KeyHint{back}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case questionReadyMsg:
		return s.handleQuestion(msg)

	case tickMsg:
		if !s.isOpen(msg.QuestionID) {
			return s, nil
		}
		s.now = msg.At
		return s, s.tick()

	case expiredMsg:
		if !s.isOpen(msg.QuestionID) {
			return s, nil
		}
		s.finish(msg.Result, -1)
		return s, s.afterResult()

	case nextQuestionMsg:
		if s.question != nil && msg.QuestionID == s.question.ID {
			return s, s.nextQuestion()
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

// Close stops the timer and drops an unanswered question.
func (s *Screen) Close() tea.Cmd {
	if s.countdown != nil {
		s.countdown.Stop()
	}
	if s.question != nil && s.result == nil {
		_, _ = s.cfg.Engine.Skip(s.cfg.UserID)
	}
	s.release()
	return nil
}

func (s *Screen) nextQuestion() tea.Cmd {
	gen, topic := s.cfg.Questions, s.cfg.Topic
	return func() tea.Msg {
		q, err := gen.Generate(topic)
		return questionReadyMsg{Question: q, Err: err}
	}
}

func (s *Screen) handleQuestion(msg questionReadyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, quiz.ErrInsufficientTerms) {
			s.errMsg = "В словаре слишком мало терминов для викторины."
		} else {
			s.errMsg = msg.Err.Error()
		}
		return s, nil
	}

	q := msg.Question
	s.question = q
	s.result = nil
	s.notice = ""
	s.choice = components.NewMultiChoice(q.Options)
	s.now = s.cfg.Now()

	// Buffered so the timer goroutine never blocks on a screen that left.
	expiry := make(chan quiz.Result, 1)
	s.expiry = expiry
	s.done = make(chan struct{})
	s.countdown = s.cfg.Engine.StartTimed(s.cfg.UserID, q, s.cfg.Limit, func(res quiz.Result) {
		expiry <- res
	})

	return s, tea.Batch(s.awaitExpiry(), s.tick())
}

// awaitExpiry turns the timer callback into an expiredMsg, or gives up once
// the question is answered or the screen closes.
func (s *Screen) awaitExpiry() tea.Cmd {
	qid, expiry, done := s.question.ID, s.expiry, s.done
	return func() tea.Msg {
		select {
		case res := <-expiry:
			return expiredMsg{QuestionID: qid, Result: res}
		case <-done:
			return nil
		}
	}
}

func (s *Screen) tick() tea.Cmd {
	qid := s.question.ID
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg{QuestionID: qid, At: t}
	})
}

func (s *Screen) isOpen(questionID string) bool {
	return s.question != nil && s.result == nil && s.question.ID == questionID
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.question == nil {
		return s, nil
	}

	if s.result != nil {
		if !s.cfg.Train && msg.String() == "enter" {
			return s, s.nextQuestion()
		}
		return s, nil
	}

	var (
		idx    int
		chosen bool
	)
	s.choice, idx, chosen = s.choice.Update(msg)
	if !chosen {
		return s, nil
	}

	ctx := resolver.WithUser(context.Background(), s.cfg.UserID)
	res := s.cfg.Engine.SubmitFor(ctx, s.cfg.UserID, s.question.ID, s.question.Options[idx], s.cfg.Limit)
	if !res.Scored() {
		// The timer won the race; its expiredMsg is on the way.
		s.notice = res.Message
		return s, nil
	}
	s.countdown.Stop()
	s.finish(res, idx)
	return s, s.afterResult()
}

func (s *Screen) finish(res quiz.Result, chosen int) {
	s.result = &res
	s.notice = ""
	s.asked++
	if res.Correct() {
		s.correct++
	}
	s.choice.Reveal(slices.Index(s.question.Options, s.question.Correct), chosen)
	s.release()
}

// release unblocks a pending awaitExpiry.
func (s *Screen) release() {
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

func (s *Screen) afterResult() tea.Cmd {
	if !s.cfg.Train {
		return nil
	}
	qid := s.question.ID
	return tea.Tick(s.cfg.Pause, func(time.Time) tea.Msg {
		return nextQuestionMsg{QuestionID: qid}
	})
}
