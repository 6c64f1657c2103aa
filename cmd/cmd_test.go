package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxposquad/termbot/internal/quiz"
)

// resetFlags restores every flag of c and its children to its default, since
// the command tree is shared between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func testEnv(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "events.db")
	t.Setenv("TERMBOT_CONFIG", "")
	t.Setenv("TERMBOT_DB", db)
	t.Setenv("TERMBOT_IMAGES_DIR", t.TempDir())
	t.Setenv("TERMBOT_LOG_LEVEL", "error")
	return db
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "termbot (devel)\n", out)
}

func TestAskRecordsLookup(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "", "ask", "Что", "такое", "маржа?")
	require.NoError(t, err)
	assert.Contains(t, out, "Источник: FXPO Squad")

	out, err = execute(t, "", "events", "lookups")
	require.NoError(t, err)
	assert.Contains(t, out, "alias")
	assert.Contains(t, out, "margin")
}

func TestQuizReadsAnswersFromStdin(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "1\n2\n", "quiz", "--count", "2", "--topic", "смарт мани")
	require.NoError(t, err)
	assert.Contains(t, out, "Вопрос 1")
	assert.Contains(t, out, "Вопрос 2")
	assert.Contains(t, out, "из 2")

	out, err = execute(t, "", "events", "answers")
	require.NoError(t, err)
	assert.Contains(t, out, "text")
}

func TestQuizStopsAtEndOfInput(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "", "quiz", "--count", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Итог: 0 из 0")
}

func TestTerms(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "", "terms", "--topics")
	require.NoError(t, err)
	assert.Contains(t, out, "смарт мани")

	_, err = execute(t, "", "terms", "--topic", "нет такой темы")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown topic")
}

func TestEventsStatsOnEmptyLog(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "", "events", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Lookups by Branch")
}

func TestBadLogLevelFlag(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "", "terms", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestPickOption(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2", "b"},
		{" 4 ", "d"},
		{"5", "5"},
		{"маржа", "маржа"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, pickOption(&quiz.Question{Options: []string{"a", "b", "c", "d"}}, tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "смар", truncate("смарт мани", 4))
	assert.Equal(t, "swap", truncate("swap", 10))
}
