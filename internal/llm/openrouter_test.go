package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       OpenRouterConfig
		wantErr   bool
		wantModel string
	}{
		{"default base URL", OpenRouterConfig{APIKey: "sk-or", Model: "google/gemini-2.0-flash-exp"}, false, "google/gemini-2.0-flash-exp"},
		{"custom base URL", OpenRouterConfig{APIKey: "sk-or", Model: "meta-llama/llama-3-8b", BaseURL: "https://router.example/v1"}, false, "meta-llama/llama-3-8b"},
		{"model passes through unmapped", OpenRouterConfig{APIKey: "sk-or", Model: "gpt-4o"}, false, "gpt-4o"},
		{"missing key", OpenRouterConfig{Model: "x"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.ModelID() != tt.wantModel {
				t.Errorf("model = %q, want %q", p.ModelID(), tt.wantModel)
			}
		})
	}
}

func TestOpenRouterProvider_SendsAppTitle(t *testing.T) {
	var title, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("X-Title")
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      "gen-test",
			"object":  "chat.completion",
			"model":   "google/gemini-2.0-flash-exp",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "{}"}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
		})
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or", Model: "google/gemini-2.0-flash-exp", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "swap"}}, MaxTokens: 16}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "termbot" || auth != "Bearer sk-or" {
		t.Fatalf("X-Title = %q, Authorization = %q", title, auth)
	}
}
