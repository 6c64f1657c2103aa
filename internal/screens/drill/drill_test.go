package drill

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxposquad/termbot/internal/quiz"
	"github.com/fxposquad/termbot/internal/router"
	"github.com/fxposquad/termbot/internal/store"
)

const testUser = "u1"

// stubQuestions hands out numbered questions whose first option is correct.
type stubQuestions struct {
	n   int
	err error
}

func (s *stubQuestions) Generate(topic string) (*quiz.Question, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.n++
	return &quiz.Question{
		ID:          "q" + string(rune('0'+s.n)),
		Topic:       topic,
		Prompt:      "Залог под открытую позицию",
		Options:     []string{"маржа", "своп", "спред", "пипс"},
		Correct:     "маржа",
		Explanation: "Определение термина: залог под открытую позицию",
	}, nil
}

type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Time
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) quiz.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(c.now) {
			t.stopped = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func newDrill(t *testing.T, train bool) (*Screen, *quiz.Engine, *manualClock) {
	t.Helper()
	clock := &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	engine := quiz.NewEngine(quiz.NewSessionStore(), clock, store.NopEventRepo{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := New(Config{
		Questions: &stubQuestions{},
		Engine:    engine,
		UserID:    testUser,
		Limit:     10 * time.Second,
		Pause:     time.Millisecond,
		Train:     train,
		Now:       clock.Now,
	})
	return s, engine, clock
}

// open runs Init and delivers the generated question.
func open(t *testing.T, s *Screen) {
	t.Helper()
	msg := s.Init()()
	ready, ok := msg.(questionReadyMsg)
	require.True(t, ok, "Init should generate a question, got %T", msg)
	s.Update(ready)
	require.NotNil(t, s.question)
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestDrill_CorrectAnswer(t *testing.T) {
	s, engine, _ := newDrill(t, false)
	open(t, s)
	assert.True(t, engine.Pending(testUser))
	wait := s.awaitExpiry()

	_, cmd := s.Update(keyPress('1'))

	assert.Nil(t, cmd, "quiz mode waits for Enter after the result")
	require.NotNil(t, s.result)
	assert.Equal(t, quiz.OutcomeCorrect, s.result.Outcome)
	assert.False(t, engine.Pending(testUser))
	assert.Contains(t, s.View(80, 24), quiz.CorrectText)
	assert.Nil(t, wait(), "awaitExpiry must give up once answered")
}

func TestDrill_WrongAnswerShowsCorrectTerm(t *testing.T) {
	s, _, _ := newDrill(t, false)
	open(t, s)

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	require.NotNil(t, s.result)
	assert.Equal(t, quiz.OutcomeIncorrect, s.result.Outcome)
	assert.Contains(t, s.result.Message, "маржа")
	assert.Contains(t, s.View(80, 24), "💡 Определение термина")
}

func TestDrill_Expiry(t *testing.T) {
	s, engine, clock := newDrill(t, false)
	open(t, s)

	wait := s.awaitExpiry()
	clock.Advance(10 * time.Second)
	msg := wait()

	expired, ok := msg.(expiredMsg)
	require.True(t, ok, "got %T", msg)
	s.Update(expired)

	require.NotNil(t, s.result)
	assert.Equal(t, quiz.OutcomeExpired, s.result.Outcome)
	assert.False(t, engine.Pending(testUser))

	// A late click after expiry changes nothing.
	s.Update(keyPress('1'))
	assert.Equal(t, quiz.OutcomeExpired, s.result.Outcome)
}

func TestDrill_ClickAfterTimerFiredWaitsForExpiry(t *testing.T) {
	s, _, clock := newDrill(t, false)
	open(t, s)

	wait := s.awaitExpiry()
	clock.Advance(11 * time.Second)

	s.Update(keyPress('1'))
	assert.Nil(t, s.result, "the timer consumed the question")
	assert.Equal(t, quiz.NoSessionText, s.notice)

	s.Update(wait())
	require.NotNil(t, s.result)
	assert.Equal(t, quiz.OutcomeExpired, s.result.Outcome)
}

func TestDrill_StaleMessagesIgnored(t *testing.T) {
	s, _, _ := newDrill(t, false)
	open(t, s)

	_, cmd := s.Update(tickMsg{QuestionID: "other", At: time.Now()})
	assert.Nil(t, cmd)
	_, cmd = s.Update(expiredMsg{QuestionID: "other"})
	assert.Nil(t, cmd)
	assert.Nil(t, s.result)

	_, cmd = s.Update(tickMsg{QuestionID: s.question.ID, At: time.Now()})
	assert.NotNil(t, cmd, "a live tick re-arms itself")
}

func TestDrill_QuizModeEnterAsksAgain(t *testing.T) {
	s, _, _ := newDrill(t, false)
	open(t, s)
	s.Update(keyPress('2'))

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, ok := cmd().(questionReadyMsg)
	assert.True(t, ok)
}

func TestDrill_TrainLoops(t *testing.T) {
	s, _, _ := newDrill(t, true)
	open(t, s)
	first := s.question.ID

	_, cmd := s.Update(keyPress('1'))
	require.NotNil(t, cmd, "train mode schedules the next question")

	_, cmd = s.Update(nextQuestionMsg{QuestionID: first})
	require.NotNil(t, cmd)
	s.Update(cmd())

	assert.NotEqual(t, first, s.question.ID)
	assert.Nil(t, s.result)
	assert.Equal(t, 1, s.correct)
	assert.Equal(t, 1, s.asked)
	assert.True(t, strings.Contains(s.View(80, 24), "Верно 1 из 1"))
	assert.Equal(t, "Выйти из тренинга", s.KeyHints()[len(s.KeyHints())-1].Description)
}

func TestDrill_CloseDropsPendingQuestion(t *testing.T) {
	s, engine, clock := newDrill(t, true)
	open(t, s)

	s.Close()

	assert.False(t, engine.Pending(testUser))
	clock.Advance(time.Minute)
	assert.Nil(t, s.result, "a stopped timer never reports")
}

func TestDrill_InsufficientTerms(t *testing.T) {
	s, _, _ := newDrill(t, false)
	s.cfg.Questions = &stubQuestions{err: quiz.ErrInsufficientTerms}

	s.Update(s.Init()())
	assert.Contains(t, s.View(80, 24), "слишком мало терминов")

	_, cmd := s.Update(keyPress('x'))
	require.NotNil(t, cmd)
	assert.Equal(t, router.PopScreenMsg{}, cmd())
}

func TestDrill_Titles(t *testing.T) {
	quizScreen, _, _ := newDrill(t, false)
	trainScreen, _, _ := newDrill(t, true)
	assert.Equal(t, "Викторина", quizScreen.Title())
	assert.Equal(t, "Тренировка", trainScreen.Title())
}
