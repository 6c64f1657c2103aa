// Package enrich drafts detailed definitions for glossary terms that only
// have a short one.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/fxposquad/termbot/internal/glossary"
	"github.com/fxposquad/termbot/internal/llm"
)

// Config holds drafting settings.
type Config struct {
	MaxTokens     int
	Temperature   float64
	Concurrency   int
	Limit         int  // 0 drafts every missing term
	KeepLowConfig bool // keep drafts the model marked low-confidence
}

// DefaultConfig returns sensible defaults for drafting.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   512,
		Temperature: 0.4,
		Concurrency: 4,
	}
}

// Draft is one generated detailed definition.
type Draft struct {
	Key        string
	Detail     string
	Confidence string
	Related    []string
}

// Drafter asks an LLM for detailed definitions.
type Drafter struct {
	provider llm.Provider
	cfg      Config
	log      *slog.Logger
}

func New(provider llm.Provider, cfg Config, logger *slog.Logger) *Drafter {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Drafter{provider: provider, cfg: cfg, log: logger.With("component", "enrich")}
}

// Missing lists the keys that have a short definition but no detailed one.
func Missing(g *glossary.Glossary) []string {
	var keys []string
	for _, k := range g.Keys() {
		if _, ok := g.Detailed(k); ok {
			continue
		}
		if _, ok := g.Definition(k); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

type termDetailOutput struct {
	Detail     string   `json:"detail"`
	Confidence string   `json:"confidence"`
	Related    []string `json:"related"`
}

// Draft generates detailed definitions for every missing term, in glossary
// order. Failed terms are logged and left out; their errors are joined into
// the returned error alongside whatever drafts succeeded.
func (d *Drafter) Draft(ctx context.Context, g *glossary.Glossary) ([]Draft, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeEnrich)

	keys := Missing(g)
	if d.cfg.Limit > 0 && len(keys) > d.cfg.Limit {
		keys = keys[:d.cfg.Limit]
	}
	known := g.Keys()

	results := make([]*Draft, len(keys))
	var mu sync.Mutex
	var errs []error

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(d.cfg.Concurrency)
	for i, key := range keys {
		eg.Go(func() error {
			draft, err := d.draftOne(egCtx, g, key, known)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				d.log.Warn("draft failed", "key", key, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				mu.Unlock()
				return nil
			}
			if draft.Confidence == "low" && !d.cfg.KeepLowConfig {
				d.log.Info("low-confidence draft dropped", "key", key)
				return nil
			}
			results[i] = draft
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var drafts []Draft
	for _, r := range results {
		if r != nil {
			drafts = append(drafts, *r)
		}
	}
	d.log.Info("drafting finished", "requested", len(keys), "drafted", len(drafts), "failed", len(errs))
	return drafts, errors.Join(errs...)
}

func (d *Drafter) draftOne(ctx context.Context, g *glossary.Glossary, key string, known []string) (*Draft, error) {
	definition, _ := g.Definition(key)
	others := slices.DeleteFunc(slices.Clone(known), func(k string) bool { return k == key })

	resp, err := d.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(key, definition, g.Aliases(key), others)},
		},
		Schema:      TermDetailSchema,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("term detail generation: %w", err)
	}

	var out termDetailOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse term detail response: %w", err)
	}

	var related []string
	for _, r := range out.Related {
		if rk, ok := g.Canonical(r); ok && rk != key && !slices.Contains(related, rk) {
			related = append(related, rk)
		}
	}

	return &Draft{
		Key:        key,
		Detail:     strings.TrimSpace(out.Detail),
		Confidence: out.Confidence,
		Related:    related,
	}, nil
}

// WriteYAML writes drafts as a detailed-definitions mapping that the glossary
// loader accepts, keeping draft order.
func WriteYAML(w io.Writer, drafts []Draft) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, d := range drafts {
		val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: d.Detail}
		if strings.Contains(d.Detail, "\n") || len(d.Detail) > 80 {
			val.Style = yaml.LiteralStyle
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: d.Key}
		if len(d.Related) > 0 {
			key.HeadComment = "related: " + strings.Join(d.Related, ", ")
		}
		root.Content = append(root.Content, key, val)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	return enc.Close()
}
