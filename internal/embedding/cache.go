package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CacheConfig points the embedding cache at a Redis server. An empty Addr
// disables the cache.
type CacheConfig struct {
	Addr     string        `yaml:"addr" env:"TERMBOT_REDIS_ADDR"`
	Password string        `yaml:"password" env:"TERMBOT_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"TERMBOT_REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"TERMBOT_CACHE_TTL" env-default:"720h"`
	Prefix   string        `yaml:"prefix" env:"TERMBOT_CACHE_PREFIX" env-default:"emb:"`
}

// Backend is the byte store behind Cache. Get reports a miss with ok=false
// and a nil error.
type Backend interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisBackend stores cache entries in Redis.
type RedisBackend struct {
	client *goredis.Client
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client *goredis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Cache is an Embedder decorator that serves previously computed vectors
// from a Backend. Backend failures degrade to cache misses.
type Cache struct {
	inner   Embedder
	backend Backend
	ttl     time.Duration
	prefix  string
	log     *slog.Logger
}

// NewCache wraps inner with a cache stored in backend.
func NewCache(inner Embedder, backend Backend, cfg CacheConfig, logger *slog.Logger) *Cache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "emb:"
	}
	return &Cache{
		inner:   inner,
		backend: backend,
		ttl:     cfg.TTL,
		prefix:  prefix,
		log:     logger.With("component", "embedding_cache", "embedder", inner.Name()),
	}
}

func (c *Cache) Name() string { return c.inner.Name() }

func (c *Cache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if vec, ok := c.lookup(ctx, text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	c.log.Debug("embedding cache", "texts", len(texts), "hits", len(texts)-len(missTexts))
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		if j >= len(missIdx) {
			break
		}
		out[missIdx[j]] = vec
		c.store(ctx, missTexts[j], vec)
	}
	return out, nil
}

func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.Name() + "\x00" + text))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *Cache) lookup(ctx context.Context, text string) ([]float32, bool) {
	key := c.key(text)
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.log.Warn("embedding cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		c.log.Warn("dropping corrupt embedding cache entry", "key", key, "error", err)
		_ = c.backend.Delete(ctx, key)
		return nil, false
	}
	return vec, true
}

func (c *Cache) store(ctx context.Context, text string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	key := c.key(text)
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn("embedding cache write failed", "key", key, "error", err)
	}
}
