package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fxposquad/termbot/internal/store"
)

// EventRecorder receives one record per LLM call.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   EventRecorder
	log      *slog.Logger
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, providerName string, events EventRecorder, logger *slog.Logger) Provider {
	return &LoggingProvider{
		inner:    p,
		provider: providerName,
		events:   events,
		log:      logger.With("component", "llm", "provider", providerName),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		l.log.Warn("llm request failed", "purpose", data.Purpose, "kind", errorKind(err), "error", err)
	}

	l.record(ctx, data)
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) record(ctx context.Context, data store.LLMRequestEventData) {
	l.log.Debug("llm request",
		"model", data.Model, "purpose", data.Purpose, "latency_ms", data.LatencyMs,
		"input_tokens", data.InputTokens, "output_tokens", data.OutputTokens, "ok", data.Success)

	// A failed event write never fails the request.
	if err := l.events.AppendLLMRequest(ctx, data); err != nil {
		l.log.Warn("failed to log LLM request event", "error", err)
	}
}

// LoggingEmbedder records every embedding batch as an LLM event with the
// purpose taken from the context.
type LoggingEmbedder struct {
	inner    Embedder
	provider string
	events   EventRecorder
	log      *slog.Logger
}

// WithEmbedLogging wraps an Embedder with event logging.
func WithEmbedLogging(e Embedder, providerName string, events EventRecorder, logger *slog.Logger) Embedder {
	return &LoggingEmbedder{
		inner:    e,
		provider: providerName,
		events:   events,
		log:      logger.With("component", "llm", "provider", providerName),
	}
}

func (l *LoggingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := l.inner.Embed(ctx, texts)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.Name(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: fmt.Sprintf("[embed] %d texts\n%s", len(texts), strings.Join(texts, "\n")),
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		l.log.Warn("embedding request failed", "purpose", data.Purpose, "kind", errorKind(err), "error", err)
	}

	l.log.Debug("embedding request", "model", data.Model, "texts", len(texts), "latency_ms", data.LatencyMs, "ok", data.Success)
	if logErr := l.events.AppendLLMRequest(ctx, data); logErr != nil {
		l.log.Warn("failed to log embedding event", "error", logErr)
	}
	return vecs, err
}

func (l *LoggingEmbedder) Name() string {
	return l.inner.Name()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}

	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}

	return b.String()
}
