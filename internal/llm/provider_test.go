package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestMockProvider_ServesQueueInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"detail":"first"}`), Usage: Usage{InputTokens: 12, OutputTokens: 4, TotalTokens: 16}},
		MockResponse{Content: json.RawMessage(`{"detail":"second"}`)},
	)

	for i, want := range []string{`{"detail":"first"}`, `{"detail":"second"}`} {
		resp, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "margin"}}})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if string(resp.Content) != want {
			t.Fatalf("call %d: content = %s, want %s", i, resp.Content, want)
		}
		if resp.StopReason != "end" || resp.Model != "mock" {
			t.Fatalf("call %d: stop=%q model=%q", i, resp.StopReason, resp.Model)
		}
	}

	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
	if mock.Calls[0].Messages[0].Content != "margin" {
		t.Fatalf("call not recorded: %+v", mock.Calls[0])
	}

	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("empty queue: expected ErrProviderUnavailable, got %T", err)
	}
}

func TestMockProvider_ConfiguredErrorAndAddResponse(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{}})
	mock.AddResponse(MockResponse{Content: json.RawMessage(`{}`)})

	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %T", err)
	}
	if _, err := mock.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("appended response: %v", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	if p := PurposeFrom(WithPurpose(ctx, "enrich")); p != "enrich" {
		t.Fatalf("expected 'enrich', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "k"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "k"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "k"}}, false},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"empty provider", Config{}, true},
		{"unknown provider", Config{Provider: "llama"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if strings.HasSuffix(tt.name, "without key") && !errors.Is(err, ErrNotConfigured) {
				t.Fatalf("missing key should wrap ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	base := DefaultConfig()
	if _, ok := DiscoverConfig(base); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")
	cfg, ok := DiscoverConfig(base)
	if !ok {
		t.Fatal("expected a provider")
	}
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "o" {
		t.Fatalf("OpenAI should win over Anthropic, got %q", cfg.Provider)
	}
	if cfg.OpenAI.Model != base.OpenAI.Model {
		t.Fatalf("base model lost: %q", cfg.OpenAI.Model)
	}
}

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model string
		in    int
		out   int
		want  float64
		known bool
	}{
		{"gpt-4o-mini", 1_000_000, 1_000_000, 0.75, true},
		{"openai/text-embedding-3-small/256", 2_000_000, 0, 0.04, true},
		{"gemini/gemini-embedding-001", 1_000_000, 0, 0.15, true},
		{"mock", 10, 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			c := LookupCost(tt.model)
			if (c != nil) != tt.known {
				t.Fatalf("LookupCost(%q) known = %v, want %v", tt.model, c != nil, tt.known)
			}
			if c == nil {
				return
			}
			if got := c.Cost(tt.in, tt.out); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("cost = %v, want %v", got, tt.want)
			}
		})
	}
}
