package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxposquad/termbot/internal/store"
	"github.com/fxposquad/termbot/internal/textnorm"
)

// ErrNoSession is returned by Skip when the user has nothing pending.
var ErrNoSession = errors.New("quiz: no question pending")

// Outcome of one submission.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeExpired   Outcome = "expired"
	OutcomeNoSession Outcome = "no_session"
)

// User-facing texts.
const (
	NoSessionText = "❗ Вопрос не найден или время вышло."
	CorrectText   = "✅ Верно! Отличная работа!"
	expiredFormat = "⏱ Время вышло! Правильный ответ: %s"
	wrongFormat   = "❌ Неверно. Правильный ответ: %s"
)

// Result describes a scored (or unscorable) submission. Key, Question and
// Elapsed are empty for OutcomeNoSession.
type Result struct {
	Outcome  Outcome
	Message  string
	Key      string
	Question *Question
	Flow     Flow
	Elapsed  time.Duration
}

// Scored reports whether a pending session was consumed.
func (r Result) Scored() bool { return r.Outcome != OutcomeNoSession }

// Correct reports whether the answer was right.
func (r Result) Correct() bool { return r.Outcome == OutcomeCorrect }

// Config holds the two independent answer time limits and the pause between
// train-mode questions.
type Config struct {
	TextTimeLimit   time.Duration `yaml:"text_time_limit" env:"TERMBOT_QUIZ_TEXT_LIMIT" env-default:"20s"`
	ButtonTimeLimit time.Duration `yaml:"button_time_limit" env:"TERMBOT_QUIZ_BUTTON_LIMIT" env-default:"10s"`
	TrainPause      time.Duration `yaml:"train_pause" env:"TERMBOT_QUIZ_TRAIN_PAUSE" env-default:"1s"`
}

func DefaultConfig() Config {
	return Config{
		TextTimeLimit:   20 * time.Second,
		ButtonTimeLimit: 10 * time.Second,
		TrainPause:      time.Second,
	}
}

func (c Config) Validate() error {
	if c.TextTimeLimit <= 0 || c.ButtonTimeLimit <= 0 {
		return fmt.Errorf("quiz time limits must be positive (text %s, button %s)", c.TextTimeLimit, c.ButtonTimeLimit)
	}
	if c.TrainPause < 0 {
		return fmt.Errorf("quiz.train_pause must not be negative")
	}
	return nil
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock supplies time to the engine.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// EventRecorder receives one record per scored answer.
type EventRecorder interface {
	AppendAnswer(ctx context.Context, data store.AnswerEventData) error
}

// Engine issues sessions and scores answers. It is safe for concurrent use.
type Engine struct {
	sessions *SessionStore
	clock    Clock
	events   EventRecorder
	log      *slog.Logger
}

// NewEngine creates an Engine. Nil clock and events default to the wall
// clock and a no-op recorder.
func NewEngine(sessions *SessionStore, clock Clock, events EventRecorder, logger *slog.Logger) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if events == nil {
		events = store.NopEventRepo{}
	}
	return &Engine{
		sessions: sessions,
		clock:    clock,
		events:   events,
		log:      logger.With("component", "quiz"),
	}
}

// Start opens a text-flow session for userID, replacing any pending one.
func (e *Engine) Start(userID string, q *Question) {
	e.start(userID, q, FlowText)
}

func (e *Engine) start(userID string, q *Question, flow Flow) {
	if e.sessions.Put(userID, Session{Question: q, Started: e.clock.Now(), Flow: flow}) {
		e.log.Debug("pending question replaced", "user", userID)
	}
	e.log.Debug("question issued", "user", userID, "question", q.ID, "key", q.Correct, "flow", flow)
}

// Pending reports whether userID has a question waiting for an answer.
func (e *Engine) Pending(userID string) bool {
	_, ok := e.sessions.Peek(userID)
	return ok
}

// Submit scores answer against the pending session of userID and consumes it.
// A session older than limit is expired whatever the answer.
func (e *Engine) Submit(ctx context.Context, userID, answer string, limit time.Duration) Result {
	sess, ok := e.sessions.Take(userID)
	if !ok {
		return noSession()
	}
	return e.evaluate(ctx, userID, sess, answer, limit)
}

// SubmitFor is Submit restricted to one question, for answers routed by
// question ID. A stale ID yields OutcomeNoSession and leaves the session alone.
func (e *Engine) SubmitFor(ctx context.Context, userID, questionID, answer string, limit time.Duration) Result {
	sess, ok := e.sessions.TakeIf(userID, questionID)
	if !ok {
		return noSession()
	}
	return e.evaluate(ctx, userID, sess, answer, limit)
}

// Skip discards the pending session of userID without scoring it.
func (e *Engine) Skip(userID string) (*Question, error) {
	sess, ok := e.sessions.Take(userID)
	if !ok {
		return nil, ErrNoSession
	}
	e.log.Debug("question skipped", "user", userID, "question", sess.Question.ID)
	return sess.Question, nil
}

func noSession() Result {
	return Result{Outcome: OutcomeNoSession, Message: NoSessionText}
}

func (e *Engine) evaluate(ctx context.Context, userID string, sess Session, answer string, limit time.Duration) Result {
	elapsed := e.clock.Now().Sub(sess.Started)
	key := sess.Question.Correct

	res := Result{Key: key, Question: sess.Question, Flow: sess.Flow, Elapsed: elapsed}
	switch {
	case elapsed > limit:
		res.Outcome = OutcomeExpired
		res.Message = fmt.Sprintf(expiredFormat, key)
	case textnorm.Normalize(answer) == textnorm.Normalize(key):
		res.Outcome = OutcomeCorrect
		res.Message = CorrectText
	default:
		res.Outcome = OutcomeIncorrect
		res.Message = fmt.Sprintf(wrongFormat, key)
	}

	e.record(ctx, userID, answer, limit, res)
	return res
}

func (e *Engine) record(ctx context.Context, userID, answer string, limit time.Duration, res Result) {
	e.log.Debug("answer scored",
		"user", userID, "key", res.Key, "outcome", res.Outcome, "elapsed", res.Elapsed, "flow", res.Flow)

	data := store.AnswerEventData{
		UserID:     userID,
		QuestionID: res.Question.ID,
		Flow:       string(res.Flow),
		Key:        res.Key,
		Answer:     answer,
		Outcome:    string(res.Outcome),
		Elapsed:    res.Elapsed,
		TimeLimit:  limit,
	}
	if err := e.events.AppendAnswer(ctx, data); err != nil {
		e.log.Warn("failed to record answer event", "error", err)
	}
}
