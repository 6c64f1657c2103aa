package embedding

import (
	"context"
	"io"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fxposquad/termbot/internal/llm"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the embedder named by cfg.Provider. Remote embedders get the
// llm retry and logging middleware, request batching and, when cacheCfg.Addr
// is set and reachable, the Redis cache. The returned Closer releases the
// Redis connection.
func New(ctx context.Context, cfg Config, cacheCfg CacheConfig, llmCfg llm.Config, events llm.EventRecorder, logger *slog.Logger) (Embedder, io.Closer, error) {
	if cfg.Provider == "" || cfg.Provider == "local" {
		return NewHashEmbedder(cfg), nopCloser{}, nil
	}

	remote, err := llm.NewEmbedder(ctx, cfg.Provider, cfg.Model, cfg.Dimensions, llmCfg, events, logger)
	if err != nil {
		return nil, nil, err
	}
	var e Embedder = WithBatching(remote, cfg.BatchSize)

	if cacheCfg.Addr == "" {
		return e, nopCloser{}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cacheCfg.Addr,
		Password: cacheCfg.Password,
		DB:       cacheCfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("embedding cache unavailable, continuing without it",
			"addr", cacheCfg.Addr, "error", err)
		client.Close()
		return e, nopCloser{}, nil
	}

	logger.Info("embedding cache enabled", "addr", cacheCfg.Addr, "ttl", cacheCfg.TTL)
	return NewCache(e, NewRedisBackend(client), cacheCfg, logger), client, nil
}

