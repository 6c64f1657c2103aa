// Package llm talks to chat and embedding APIs behind two small interfaces,
// with retry and event-logging decorators shared by every vendor.
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Provider generates one reply. When Request.Schema is set the reply is JSON
// already validated against it.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Embedder turns text into fixed-length vectors. Every call with the same
// Name must produce vectors in the same space.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name identifies the model and dimensionality.
	Name() string
}

// Request is a single-turn prompt; term enrichment never needs history.
type Request struct {
	System   string
	Messages []Message
	// Schema, when set, selects the vendor's structured output mode.
	Schema      *Schema
	MaxTokens   int
	Temperature float64 // 0 leaves the vendor default
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema, e.g. "term-detail".
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the model output. StopReason is normalized to "end" or
// "max_tokens".
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// resolveModel maps a short alias like "claude-haiku" to a vendor model ID;
// anything else is taken as an ID already.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
