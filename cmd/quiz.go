package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fxposquad/termbot/internal/quiz"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Answer quiz questions by typing the term",
	Long: `Prints a definition with four candidate terms and reads your answer from
stdin. Type the term or its number. Answers given after the text time limit
count as expired.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		count, _ := cmd.Flags().GetInt("count")

		s, cleanup, err := bootstrap(cmd, false)
		if err != nil {
			return err
		}
		defer cleanup()

		userID := s.Config.Chat.UserID
		limit := s.Config.Quiz.TextTimeLimit
		out := cmd.OutOrStdout()
		in := bufio.NewScanner(cmd.InOrStdin())

		var correct, asked int
		for i := 0; count <= 0 || i < count; i++ {
			q, err := s.Generator.Generate(topic)
			if errors.Is(err, quiz.ErrInsufficientTerms) {
				return fmt.Errorf("glossary too small for a quiz: %w", err)
			}
			if err != nil {
				return fmt.Errorf("generate question: %w", err)
			}

			s.Engine.Start(userID, q)
			printQuestion(out, i+1, q, limit)

			if !in.Scan() {
				_, _ = s.Engine.Skip(userID)
				break
			}
			answer := pickOption(q, in.Text())

			res := s.Engine.Submit(cmd.Context(), userID, answer, limit)
			fmt.Fprintln(out, res.Message)
			fmt.Fprintln(out)

			asked++
			if res.Correct() {
				correct++
			}
		}
		if err := in.Err(); err != nil {
			return fmt.Errorf("read answer: %w", err)
		}

		fmt.Fprintf(out, "Итог: %d из %d\n", correct, asked)
		return nil
	},
}

func printQuestion(w io.Writer, n int, q *quiz.Question, limit time.Duration) {
	fmt.Fprintf(w, "❓ Вопрос %d (%s на ответ)\n%s\n\n", n, limit, q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(w, "  %d. %s\n", i+1, opt)
	}
	fmt.Fprint(w, "> ")
}

// pickOption maps an option number to its term; any other input is the
// answer as typed.
func pickOption(q *quiz.Question, input string) string {
	input = strings.TrimSpace(input)
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1]
	}
	return input
}

func init() {
	quizCmd.Flags().StringP("topic", "t", "", "Draw correct answers from one topic")
	quizCmd.Flags().IntP("count", "n", 5, "Number of questions (0 runs until stdin closes)")
}
