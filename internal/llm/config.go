package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
// The struct tags let it be embedded directly in the application config file.
type Config struct {
	// Provider selects which chat provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string `yaml:"provider" env:"TERMBOT_LLM_PROVIDER" env-default:"anthropic"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout is the maximum duration for a single LLM request
	// (including retries).
	Timeout time.Duration `yaml:"timeout" env:"TERMBOT_LLM_TIMEOUT" env-default:"30s"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key" env:"TERMBOT_ANTHROPIC_API_KEY"`
	Model  string `yaml:"model"   env:"TERMBOT_ANTHROPIC_MODEL" env-default:"claude-haiku"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"  env:"TERMBOT_OPENAI_API_KEY"`
	Model   string `yaml:"model"    env:"TERMBOT_OPENAI_MODEL" env-default:"gpt-4o-mini"`
	BaseURL string `yaml:"base_url" env:"TERMBOT_OPENAI_BASE_URL"` // OpenRouter or compatible APIs
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"TERMBOT_GEMINI_API_KEY"`
	Model  string `yaml:"model"   env:"TERMBOT_GEMINI_MODEL" env-default:"gemini-flash"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"  env:"TERMBOT_OPENROUTER_API_KEY"`
	Model   string `yaml:"model"    env:"TERMBOT_OPENROUTER_MODEL" env-default:"google/gemini-2.0-flash-exp"`
	BaseURL string `yaml:"base_url" env:"TERMBOT_OPENROUTER_BASE_URL"`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"TERMBOT_LLM_RETRY_MAX_ATTEMPTS" env-default:"3"`
	InitialWait time.Duration `yaml:"initial_wait" env:"TERMBOT_LLM_RETRY_INITIAL_WAIT" env-default:"1s"`
	MaxWait     time.Duration `yaml:"max_wait"     env:"TERMBOT_LLM_RETRY_MAX_WAIT"     env-default:"10s"`
	Multiplier  float64       `yaml:"multiplier"   env:"TERMBOT_LLM_RETRY_MULTIPLIER"   env-default:"2"`
}

// DefaultConfig returns a Config with the same defaults the struct tags declare.
func DefaultConfig() Config {
	return Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// DiscoverConfig probes the vendors' standard API key env vars in priority
// order (Gemini, OpenAI, Anthropic, OpenRouter) and returns base with the
// first provider whose key is found. Returns (base, false) if none found.
func DiscoverConfig(base Config) (Config, bool) {
	cfg := base

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return base, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("%w: TERMBOT_ANTHROPIC_API_KEY is required for the anthropic provider", ErrNotConfigured)
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: TERMBOT_OPENAI_API_KEY is required for the openai provider", ErrNotConfigured)
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("%w: TERMBOT_GEMINI_API_KEY is required for the gemini provider", ErrNotConfigured)
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("%w: TERMBOT_OPENROUTER_API_KEY is required for the openrouter provider", ErrNotConfigured)
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
