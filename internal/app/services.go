package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fxposquad/termbot/internal/config"
	"github.com/fxposquad/termbot/internal/embedding"
	"github.com/fxposquad/termbot/internal/glossary"
	"github.com/fxposquad/termbot/internal/llm"
	"github.com/fxposquad/termbot/internal/quiz"
	"github.com/fxposquad/termbot/internal/resolver"
	"github.com/fxposquad/termbot/internal/store"
)

// Services holds the wired domain services shared by the CLI commands and
// the chat UI.
type Services struct {
	Config    *config.Config
	Logger    *slog.Logger
	Glossary  *glossary.Glossary
	Topics    glossary.Topics
	Index     *embedding.Index
	Resolver  *resolver.Resolver
	Generator *quiz.Generator
	Engine    *quiz.Engine
	Events    store.EventRepo

	closers []io.Closer
}

// Bootstrap loads the glossary, embeds its keys and wires the resolver, the
// quiz engine and the event log. Call Close when done.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	s := &Services{Config: cfg, Logger: logger}

	events, closer, err := OpenEvents(cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	s.Events = events
	s.closers = append(s.closers, closer)

	s.Glossary, s.Topics, err = LoadGlossary(cfg.Data, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	embedder, closer, err := embedding.New(ctx, cfg.Embedding, cfg.Cache, cfg.LLM, events, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	s.closers = append(s.closers, closer)

	s.Index, err = embedding.NewIndex(llm.WithPurpose(ctx, llm.PurposeEmbedIndex), embedder, s.Glossary.Keys())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("build embedding index: %w", err)
	}
	logger.Info("embedding index ready", "embedder", embedder.Name(), "keys", s.Index.Len())

	s.Resolver = resolver.New(logger, s.Glossary, s.Index, cfg.Resolver, events)
	s.Generator = quiz.NewGenerator(s.Glossary, s.Topics, nil)
	s.Engine = quiz.NewEngine(quiz.NewSessionStore(), quiz.SystemClock{}, events, logger)

	return s, nil
}

// Close releases the event log and the embedding cache connection.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// LoadGlossary builds the glossary and topic pools from cfg.Dir, or from the
// built-in dataset when Dir is empty.
func LoadGlossary(cfg config.DataConfig, logger *slog.Logger) (*glossary.Glossary, glossary.Topics, error) {
	var (
		src glossary.Sources
		err error
	)
	if cfg.Dir == "" {
		src, err = glossary.LoadEmbedded()
	} else {
		src, err = glossary.LoadDir(cfg.Dir)
	}
	if err != nil {
		return nil, glossary.Topics{}, fmt.Errorf("load glossary: %w", err)
	}

	g := glossary.Build(logger, src, glossary.DefaultLangVariants.Merge(src.Variants))
	topics := glossary.NewTopics(logger, g, src.Topics)
	logger.Info("glossary loaded", "terms", g.Len(), "topics", len(topics.Names()), "dir", cfg.Dir)
	return g, topics, nil
}

// OpenEvents opens the SQLite event log, or returns a no-op repository when
// the log is disabled.
func OpenEvents(cfg config.StoreConfig, logger *slog.Logger) (store.EventRepo, io.Closer, error) {
	if cfg.Disabled {
		return store.NopEventRepo{}, nopCloser{}, nil
	}

	path := cfg.Path
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	} else if err := store.EnsureDir(path); err != nil {
		return nil, nil, fmt.Errorf("create db dir: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log %s: %w", path, err)
	}
	logger.Debug("event log opened", "path", path)
	return st.EventRepo(), st, nil
}
