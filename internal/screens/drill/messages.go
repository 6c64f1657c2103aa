package drill

import (
	"time"

	"github.com/fxposquad/termbot/internal/quiz"
)

// questionReadyMsg carries a freshly generated question.
type questionReadyMsg struct {
	Question *quiz.Question
	Err      error
}

// tickMsg redraws the countdown of one question.
type tickMsg struct {
	QuestionID string
	At         time.Time
}

// expiredMsg is delivered when the expiry timer consumed the question.
type expiredMsg struct {
	QuestionID string
	Result     quiz.Result
}

// nextQuestionMsg ends the pause between train-mode questions.
type nextQuestionMsg struct {
	QuestionID string
}
