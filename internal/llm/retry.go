package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider is a decorator that retries transient errors with
// exponential backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := retry(ctx, r.config, func() error {
		var err error
		resp, err = r.inner.Generate(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// RetryEmbedder applies the same retry policy to embedding calls.
type RetryEmbedder struct {
	inner  Embedder
	config RetryConfig
}

// WithEmbedRetry wraps an Embedder with retry logic.
func WithEmbedRetry(e Embedder, cfg RetryConfig) Embedder {
	return &RetryEmbedder{inner: e, config: cfg}
}

func (r *RetryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := retry(ctx, r.config, func() error {
		var err error
		vecs, err = r.inner.Embed(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

func (r *RetryEmbedder) Name() string {
	return r.inner.Name()
}

// retry runs call up to cfg.MaxAttempts times, sleeping between attempts.
func retry(ctx context.Context, cfg RetryConfig, call func() error) error {
	var lastErr error
	invalidRetried := false
	attempts := max(cfg.MaxAttempts, 1)

	for attempt := range attempts {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err, &invalidRetried) {
			return err
		}

		// Last attempt: don't sleep, just return the error.
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(cfg, attempt, err)):
		}
	}

	return lastErr
}

// shouldRetry reports whether err is worth another attempt. A response
// that breaks the schema is retried once.
func shouldRetry(err error, invalidRetried *bool) bool {
	switch errorKind(err) {
	case "canceled", "max_tokens":
		return false
	case "invalid_response":
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	default:
		return true
	}
}

// backoff computes the wait duration for the given attempt.
func backoff(cfg RetryConfig, attempt int, err error) time.Duration {
	// Respect RetryAfter for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(cfg.InitialWait) * math.Pow(cfg.Multiplier, float64(attempt))
	if wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	// Add ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
