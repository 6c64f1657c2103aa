// Package embedding turns term keys and queries into vectors and scores them
// against each other.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Embedder produces one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// Config selects and shapes the embedder used for the semantic fallback.
type Config struct {
	Provider   string `yaml:"provider" env:"TERMBOT_EMBEDDING_PROVIDER" env-default:"local"`
	Model      string `yaml:"model" env:"TERMBOT_EMBEDDING_MODEL"`
	Dimensions int    `yaml:"dimensions" env:"TERMBOT_EMBEDDING_DIMENSIONS" env-default:"256"`
	NGramMin   int    `yaml:"ngram_min" env:"TERMBOT_EMBEDDING_NGRAM_MIN" env-default:"2"`
	NGramMax   int    `yaml:"ngram_max" env:"TERMBOT_EMBEDDING_NGRAM_MAX" env-default:"3"`
	BatchSize  int    `yaml:"batch_size" env:"TERMBOT_EMBEDDING_BATCH_SIZE" env-default:"64"`
}

// DefaultConfig mirrors the env-default tags.
func DefaultConfig() Config {
	return Config{
		Provider:   "local",
		Dimensions: 256,
		NGramMin:   2,
		NGramMax:   3,
		BatchSize:  64,
	}
}

// Validate checks the embedding section.
func (c Config) Validate() error {
	switch c.Provider {
	case "local":
		if c.Dimensions <= 0 {
			return fmt.Errorf("embedding.dimensions must be positive for the local embedder")
		}
		if c.NGramMin <= 0 || c.NGramMax < c.NGramMin {
			return fmt.Errorf("embedding n-gram range [%d, %d] is invalid", c.NGramMin, c.NGramMax)
		}
	case "openai", "gemini":
		if c.Dimensions < 0 {
			return fmt.Errorf("embedding.dimensions must not be negative")
		}
	default:
		return fmt.Errorf("unknown embedding provider %q (want local, openai or gemini)", c.Provider)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("embedding.batch_size must not be negative")
	}
	return nil
}

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or with zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// batchEmbedder splits large inputs into provider-sized requests.
type batchEmbedder struct {
	inner Embedder
	size  int
}

// WithBatching caps the number of texts per inner Embed call. A size of zero
// or less returns e unchanged.
func WithBatching(e Embedder, size int) Embedder {
	if size <= 0 {
		return e
	}
	return &batchEmbedder{inner: e, size: size}
}

func (b *batchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.size {
		end := min(start+b.size, len(texts))
		vecs, err := b.inner.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedder %s returned %d vectors for %d texts", b.inner.Name(), len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (b *batchEmbedder) Name() string { return b.inner.Name() }
