package quiz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fxposquad/termbot/internal/glossary"
	"github.com/fxposquad/termbot/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func buildGlossary(keys ...string) *glossary.Glossary {
	var terms []glossary.Entry
	for _, k := range keys {
		terms = append(terms, glossary.Entry{Key: k, Value: "def of " + k})
	}
	return glossary.Build(quietLogger(), glossary.Sources{Terms: terms}, nil)
}

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type answerRecorder struct {
	mu     sync.Mutex
	events []store.AnswerEventData
}

func (a *answerRecorder) AppendAnswer(_ context.Context, data store.AnswerEventData) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, data)
	return nil
}

func testQuestion(id, correct string) *Question {
	return &Question{ID: id, Prompt: "def", Options: []string{correct, "a", "b", "c"}, Correct: correct}
}

func TestGenerate_FourKeyGlossary(t *testing.T) {
	keys := []string{"margin", "leverage", "liquidity", "swap"}
	gen := NewGenerator(buildGlossary(keys...), glossary.Topics{}, seeded(7))

	for range 200 {
		q, err := gen.Generate("")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(q.Options) != OptionCount {
			t.Fatalf("options = %v", q.Options)
		}
		sorted := slices.Sorted(slices.Values(q.Options))
		if !slices.Equal(sorted, slices.Sorted(slices.Values(keys))) {
			t.Fatalf("options %v must be exactly the four keys", q.Options)
		}
		if q.Prompt != "def of "+q.Correct || q.Explanation != "Определение термина: def of "+q.Correct {
			t.Fatalf("prompt=%q explanation=%q", q.Prompt, q.Explanation)
		}
		if q.ID == "" {
			t.Fatal("question ID must be set")
		}
	}
}

func TestGenerate_WrongOptionsComeFromWholeGlossary(t *testing.T) {
	keys := []string{"margin", "leverage", "liquidity", "swap", "spread", "gap"}
	g := buildGlossary(keys...)
	topics := glossary.NewTopics(quietLogger(), g, []glossary.TopicEntry{
		{Name: "Смарт мани", Terms: []string{"margin", "leverage"}},
	})
	gen := NewGenerator(g, topics, seeded(11))

	seenWrong := map[string]bool{}
	for range 300 {
		q, err := gen.Generate("смарт мани")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if q.Correct != "margin" && q.Correct != "leverage" {
			t.Fatalf("correct %q is outside the topic", q.Correct)
		}
		if q.Topic != "смарт мани" {
			t.Fatalf("topic = %q", q.Topic)
		}
		count := 0
		for _, o := range q.Options {
			if o == q.Correct {
				count++
			} else {
				seenWrong[o] = true
			}
		}
		if count != 1 {
			t.Fatalf("correct key appears %d times in %v", count, q.Options)
		}
	}
	for _, k := range []string{"liquidity", "swap", "spread", "gap"} {
		if !seenWrong[k] {
			t.Errorf("%q never drawn as a wrong option", k)
		}
	}
}

func TestGenerate_UnknownTopicUsesAllKeys(t *testing.T) {
	keys := []string{"margin", "leverage", "liquidity", "swap", "spread"}
	gen := NewGenerator(buildGlossary(keys...), glossary.Topics{}, seeded(3))

	seen := map[string]bool{}
	for range 300 {
		q, err := gen.Generate("астрология")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		seen[q.Correct] = true
	}
	if len(seen) != len(keys) {
		t.Fatalf("only %d of %d keys were ever correct", len(seen), len(keys))
	}
}

func TestGenerate_InsufficientTerms(t *testing.T) {
	for _, keys := range [][]string{nil, {"a"}, {"a", "b", "c"}} {
		gen := NewGenerator(buildGlossary(keys...), glossary.Topics{}, seeded(1))
		if _, err := gen.Generate(""); !errors.Is(err, ErrInsufficientTerms) {
			t.Fatalf("%d keys: err = %v", len(keys), err)
		}
	}
}

func TestGenerate_MissingDefinition(t *testing.T) {
	g := glossary.Build(quietLogger(), glossary.Sources{Terms: []glossary.Entry{
		{Key: "blank", Value: ""}, {Key: "a", Value: "A"}, {Key: "b", Value: "B"}, {Key: "c", Value: "C"},
	}}, nil)
	topics := glossary.NewTopics(quietLogger(), g, []glossary.TopicEntry{{Name: "t", Terms: []string{"blank"}}})
	gen := NewGenerator(g, topics, seeded(5))

	q, err := gen.Generate("t")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if q.Prompt != NoDefinition || q.Explanation != "Определение термина: "+NoDefinition {
		t.Fatalf("prompt=%q explanation=%q", q.Prompt, q.Explanation)
	}
}

func TestGenerate_SameSeedSameQuestions(t *testing.T) {
	g := buildGlossary("margin", "leverage", "liquidity", "swap", "spread")
	a := NewGenerator(g, glossary.Topics{}, seeded(42))
	b := NewGenerator(g, glossary.Topics{}, seeded(42))
	for range 20 {
		qa, _ := a.Generate("")
		qb, _ := b.Generate("")
		if qa.Correct != qb.Correct || !slices.Equal(qa.Options, qb.Options) {
			t.Fatalf("%v/%s vs %v/%s", qa.Options, qa.Correct, qb.Options, qb.Correct)
		}
	}
}

func TestSessionStore(t *testing.T) {
	s := NewSessionStore()
	if s.Put("u", Session{Question: testQuestion("q1", "margin")}) {
		t.Fatal("first Put must not report a replacement")
	}
	if !s.Put("u", Session{Question: testQuestion("q2", "swap")}) {
		t.Fatal("second Put must replace")
	}

	if _, ok := s.TakeIf("u", "q1"); ok {
		t.Fatal("TakeIf with a stale question must fail")
	}
	if s.Len() != 1 {
		t.Fatal("stale TakeIf must leave the session")
	}
	sess, ok := s.TakeIf("u", "q2")
	if !ok || sess.Question.Correct != "swap" {
		t.Fatalf("TakeIf = %+v, %v", sess, ok)
	}
	if _, ok := s.Take("u"); ok {
		t.Fatal("session consumed twice")
	}
}

func TestEngine_Submit(t *testing.T) {
	tests := []struct {
		name        string
		answer      string
		wait        time.Duration
		wantOutcome Outcome
		wantMessage string
	}{
		{"correct after normalization", "  MARGIN!", 5 * time.Second, OutcomeCorrect, CorrectText},
		{"stop phrase ignored", "что такое margin", 0, OutcomeCorrect, CorrectText},
		{"incorrect", "swap", 5 * time.Second, OutcomeIncorrect, "❌ Неверно. Правильный ответ: margin"},
		{"exactly at the limit", "margin", 20 * time.Second, OutcomeCorrect, CorrectText},
		{"expired even when right", "margin", 21 * time.Second, OutcomeExpired, "⏱ Время вышло! Правильный ответ: margin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			rec := &answerRecorder{}
			e := NewEngine(NewSessionStore(), clock, rec, quietLogger())

			e.Start("u1", testQuestion("q1", "margin"))
			clock.Advance(tt.wait)
			res := e.Submit(context.Background(), "u1", tt.answer, 20*time.Second)

			if res.Outcome != tt.wantOutcome || res.Message != tt.wantMessage {
				t.Fatalf("got %q %q, want %q %q", res.Outcome, res.Message, tt.wantOutcome, tt.wantMessage)
			}
			if res.Key != "margin" || res.Elapsed != tt.wait || res.Flow != FlowText {
				t.Fatalf("result = %+v", res)
			}
			if len(rec.events) != 1 {
				t.Fatalf("got %d events", len(rec.events))
			}
			ev := rec.events[0]
			if ev.UserID != "u1" || ev.QuestionID != "q1" || ev.Outcome != string(tt.wantOutcome) ||
				ev.Flow != "text" || ev.Answer != tt.answer || ev.TimeLimit != 20*time.Second {
				t.Fatalf("event = %+v", ev)
			}
		})
	}
}

func TestEngine_SingleUse(t *testing.T) {
	rec := &answerRecorder{}
	e := NewEngine(NewSessionStore(), newFakeClock(), rec, quietLogger())
	e.Start("u1", testQuestion("q1", "margin"))

	if res := e.Submit(context.Background(), "u1", "margin", time.Minute); !res.Scored() || !res.Correct() {
		t.Fatalf("first submit: %+v", res)
	}
	res := e.Submit(context.Background(), "u1", "margin", time.Minute)
	if res.Outcome != OutcomeNoSession || res.Message != NoSessionText || res.Key != "" {
		t.Fatalf("second submit: %+v", res)
	}
	if len(rec.events) != 1 {
		t.Fatalf("unscored submission must not be recorded, got %d events", len(rec.events))
	}

	if res := e.Submit(context.Background(), "never", "x", time.Minute); res.Scored() {
		t.Fatalf("user without a question: %+v", res)
	}
}

func TestEngine_NewQuestionReplacesOld(t *testing.T) {
	e := NewEngine(NewSessionStore(), newFakeClock(), nil, quietLogger())
	e.Start("u1", testQuestion("q1", "margin"))
	e.Start("u1", testQuestion("q2", "swap"))

	if res := e.SubmitFor(context.Background(), "u1", "q1", "margin", time.Minute); res.Scored() {
		t.Fatalf("stale question scored: %+v", res)
	}
	if res := e.SubmitFor(context.Background(), "u1", "q2", "swap", time.Minute); !res.Correct() {
		t.Fatalf("current question: %+v", res)
	}
}

func TestEngine_Skip(t *testing.T) {
	e := NewEngine(NewSessionStore(), nil, nil, quietLogger())
	if _, err := e.Skip("u1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v", err)
	}
	e.Start("u1", testQuestion("q1", "margin"))
	if !e.Pending("u1") {
		t.Fatal("expected pending question")
	}
	q, err := e.Skip("u1")
	if err != nil || q.ID != "q1" || e.Pending("u1") {
		t.Fatalf("Skip = %v, %v; pending=%v", q, err, e.Pending("u1"))
	}
}

func TestEngine_ConcurrentSubmitsScoreOnce(t *testing.T) {
	for range 50 {
		e := NewEngine(NewSessionStore(), nil, nil, quietLogger())
		e.Start("u1", testQuestion("q1", "margin"))

		var scored atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if e.Submit(context.Background(), "u1", "margin", time.Minute).Scored() {
					scored.Add(1)
				}
			}()
		}
		wg.Wait()

		if scored.Load() != 1 {
			t.Fatalf("%d submissions scored, want exactly 1", scored.Load())
		}
	}
}

func TestCountdown_TimeoutRacesManualAnswer(t *testing.T) {
	for range 100 {
		clock := newFakeClock()
		e := NewEngine(NewSessionStore(), clock, nil, quietLogger())

		var expired, manual atomic.Int32
		e.StartTimed("u1", testQuestion("q1", "margin"), 10*time.Second, func(Result) { expired.Add(1) })

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			clock.Advance(10 * time.Second)
		}()
		go func() {
			defer wg.Done()
			if e.SubmitFor(context.Background(), "u1", "q1", "swap", 10*time.Second).Scored() {
				manual.Add(1)
			}
		}()
		wg.Wait()

		if expired.Load()+manual.Load() != 1 {
			t.Fatalf("expired=%d manual=%d, want exactly one outcome", expired.Load(), manual.Load())
		}
	}
}

func TestCountdown_ManualAnswerStopsTimer(t *testing.T) {
	clock := newFakeClock()
	e := NewEngine(NewSessionStore(), clock, nil, quietLogger())

	called := false
	cd := e.StartTimed("u1", testQuestion("q1", "margin"), 10*time.Second, func(Result) { called = true })

	clock.Advance(3 * time.Second)
	if got := cd.Remaining(clock.Now()); got != 7*time.Second {
		t.Fatalf("remaining = %s", got)
	}
	if !cd.Stop() {
		t.Fatal("Stop before expiry must report true")
	}
	res := e.SubmitFor(context.Background(), "u1", "q1", "margin", 10*time.Second)
	if !res.Correct() || res.Flow != FlowButton {
		t.Fatalf("result = %+v", res)
	}

	clock.Advance(time.Minute)
	if called || cd.Fired() {
		t.Fatal("stopped timer fired")
	}
	if cd.Remaining(clock.Now()) != 0 {
		t.Fatal("remaining must not go negative")
	}
}

func TestCountdown_Expiry(t *testing.T) {
	clock := newFakeClock()
	rec := &answerRecorder{}
	e := NewEngine(NewSessionStore(), clock, rec, quietLogger())

	var got Result
	cd := e.StartTimed("u1", testQuestion("q1", "margin"), 10*time.Second, func(r Result) { got = r })
	clock.Advance(10 * time.Second)

	if got.Outcome != OutcomeExpired || got.Key != "margin" || got.Elapsed != 10*time.Second {
		t.Fatalf("expiry result = %+v", got)
	}
	if !cd.Fired() || cd.Stop() {
		t.Fatal("fired timer must not stop")
	}
	if e.Pending("u1") {
		t.Fatal("expired session must be consumed")
	}
	if res := e.SubmitFor(context.Background(), "u1", "q1", "margin", 10*time.Second); res.Scored() {
		t.Fatalf("late answer scored: %+v", res)
	}
	if len(rec.events) != 1 || rec.events[0].Outcome != "expired" || rec.events[0].Flow != "button" {
		t.Fatalf("events = %+v", rec.events)
	}
}

func TestCountdown_StaleTimerIgnoresNewQuestion(t *testing.T) {
	clock := newFakeClock()
	e := NewEngine(NewSessionStore(), clock, nil, quietLogger())

	fired := 0
	e.StartTimed("u1", testQuestion("q1", "margin"), 10*time.Second, func(Result) { fired++ })
	e.StartTimed("u1", testQuestion("q2", "swap"), 20*time.Second, func(Result) { fired++ })

	clock.Advance(10 * time.Second)
	if fired != 0 || !e.Pending("u1") {
		t.Fatalf("old timer consumed the new question (fired=%d)", fired)
	}
	clock.Advance(10 * time.Second)
	if fired != 1 || e.Pending("u1") {
		t.Fatalf("new timer did not expire its question (fired=%d)", fired)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	bad := []Config{
		{TextTimeLimit: 0, ButtonTimeLimit: time.Second},
		{TextTimeLimit: time.Second, ButtonTimeLimit: -time.Second},
		{TextTimeLimit: time.Second, ButtonTimeLimit: time.Second, TrainPause: -1},
	}
	for i, c := range bad {
		if c.Validate() == nil {
			t.Errorf("config %d: expected error", i)
		}
	}
}
