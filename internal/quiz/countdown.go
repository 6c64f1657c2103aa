package quiz

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Countdown is the expiry timer of a button-flow question.
type Countdown struct {
	timer    Timer
	deadline time.Time
	fired    atomic.Bool
}

// StartTimed opens a button-flow session and arms a timer for limit. When the
// timer fires while the same question is still pending, the session is
// consumed as expired and onExpire receives the result. A manual answer that
// consumes the session first leaves the timer with nothing to do.
func (e *Engine) StartTimed(userID string, q *Question, limit time.Duration, onExpire func(Result)) *Countdown {
	e.start(userID, q, FlowButton)

	c := &Countdown{deadline: e.clock.Now().Add(limit)}
	c.timer = e.clock.AfterFunc(limit, func() {
		c.fired.Store(true)
		sess, ok := e.sessions.TakeIf(userID, q.ID)
		if !ok {
			return
		}
		res := Result{
			Outcome:  OutcomeExpired,
			Message:  fmt.Sprintf(expiredFormat, q.Correct),
			Key:      q.Correct,
			Question: q,
			Flow:     sess.Flow,
			Elapsed:  e.clock.Now().Sub(sess.Started),
		}
		e.record(context.Background(), userID, "", limit, res)
		if onExpire != nil {
			onExpire(res)
		}
	})
	return c
}

// Stop cancels the timer. It returns false when the timer already fired.
func (c *Countdown) Stop() bool {
	return c.timer.Stop()
}

// Remaining returns the time left before expiry, never negative.
func (c *Countdown) Remaining(now time.Time) time.Duration {
	return max(c.deadline.Sub(now), 0)
}

// Fired reports whether the timer callback has run.
func (c *Countdown) Fired() bool {
	return c.fired.Load()
}
