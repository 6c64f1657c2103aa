package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxposquad/termbot/internal/config"
	"github.com/fxposquad/termbot/internal/embedding"
	"github.com/fxposquad/termbot/internal/quiz"
	"github.com/fxposquad/termbot/internal/resolver"
	"github.com/fxposquad/termbot/internal/router"
	"github.com/fxposquad/termbot/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log:       config.LogConfig{Level: "info", Format: "text"},
		Data:      config.DataConfig{ImagesDir: t.TempDir()},
		Resolver:  resolver.DefaultConfig(),
		Quiz:      quiz.DefaultConfig(),
		Embedding: embedding.DefaultConfig(),
		Store:     config.StoreConfig{Path: filepath.Join(t.TempDir(), "data", "events.db")},
		Chat:      config.ChatConfig{RateLimit: time.Second, DefaultMode: "simple", UserID: "local"},
	}
}

func TestBootstrap_EmbeddedDataset(t *testing.T) {
	cfg := testConfig(t)
	s, err := Bootstrap(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	assert.Equal(t, s.Glossary.Len(), s.Index.Len())

	ctx := resolver.WithUser(context.Background(), "u1")
	ans := s.Resolver.Resolve(ctx, "Что такое маржа?", false)
	assert.Equal(t, resolver.KindAlias, ans.Kind)
	assert.Equal(t, "margin", ans.Key)
	assert.Equal(t, "FXPO Squad", ans.Source)

	q, err := s.Generator.Generate("смарт мани")
	require.NoError(t, err)
	assert.Len(t, q.Options, quiz.OptionCount)

	s.Engine.Start("u1", q)
	res := s.Engine.Submit(ctx, "u1", q.Correct, cfg.Quiz.TextTimeLimit)
	assert.True(t, res.Correct())

	lookups, err := s.Events.QueryLookups(context.Background(), store.QueryOpts{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, lookups, 1)
	assert.Equal(t, "alias", lookups[0].Kind)

	answers, err := s.Events.QueryAnswers(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "correct", answers[0].Outcome)
}

func TestBootstrap_StoreDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Disabled = true

	s, err := Bootstrap(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Events.(store.NopEventRepo)
	assert.True(t, ok, "disabled store must fall back to the no-op repo")
}

func TestBootstrap_BadDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Dir = filepath.Join(t.TempDir(), "missing")

	_, err := Bootstrap(context.Background(), cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load glossary")
}

func TestAppModel_FrameAndNavigation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Disabled = true
	s, err := Bootstrap(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer s.Close()

	m := newAppModel(s, false)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(AppModel)

	view := m.render()
	assert.True(t, strings.Contains(view, "termbot"))
	assert.True(t, strings.Contains(view, "Старт"))

	// Enter on the first menu item opens the chat in simple mode.
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(AppModel)
	assert.Equal(t, 2, m.router.Depth())
	assert.Contains(t, m.render(), "простой режим")

	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	assert.Equal(t, router.PopScreenMsg{}, cmd())

	_, cmd = m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppModel_TooSmall(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Disabled = true
	s, err := Bootstrap(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer s.Close()

	m := newAppModel(s, true)
	assert.Equal(t, 2, m.router.Depth(), "skip-home keeps the mode choice under the chat")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	assert.Contains(t, next.(AppModel).render(), "Окно слишком маленькое")
}
