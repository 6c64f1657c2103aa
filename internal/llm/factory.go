package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// NewProvider creates a chat Provider from configuration, wrapped as
// caller → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config, events EventRecorder, logger *slog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, events, logger)
	return WithRetry(logged, cfg.Retry), nil
}

// NewEmbedder creates a remote Embedder ("openai" or "gemini") with the same
// retry and logging middleware as chat providers. Keys come from cfg.
func NewEmbedder(ctx context.Context, provider, model string, dimensions int, cfg Config, events EventRecorder, logger *slog.Logger) (Embedder, error) {
	var base Embedder
	var err error

	switch provider {
	case "openai":
		base, err = NewOpenAIEmbedder(cfg.OpenAI, model, dimensions)
	case "gemini":
		base, err = NewGeminiEmbedder(ctx, cfg.Gemini, model, dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s embedder: %w", provider, err)
	}

	logged := WithEmbedLogging(base, provider, events, logger)
	return WithEmbedRetry(logged, cfg.Retry), nil
}
