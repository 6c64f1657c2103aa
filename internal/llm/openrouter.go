package llm

import (
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterAppTitle       = "termbot"
)

// NewOpenRouterProvider returns an OpenAIProvider aimed at OpenRouter's
// OpenAI-compatible API. Model names pass through unmapped since OpenRouter
// uses vendor-prefixed IDs.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if clientCfg.BaseURL == "" {
		clientCfg.BaseURL = defaultOpenRouterBaseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Transport: titleTransport{base: http.DefaultTransport, title: openRouterAppTitle},
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// titleTransport sets the X-Title header OpenRouter uses for app attribution.
type titleTransport struct {
	base  http.RoundTripper
	title string
}

func (t titleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Title", t.title)
	return t.base.RoundTrip(req)
}
