// Package resolver answers free-text term questions from the glossary,
// falling back to embedding similarity when no key or alias matches.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/fxposquad/termbot/internal/glossary"
	"github.com/fxposquad/termbot/internal/store"
	"github.com/fxposquad/termbot/internal/textnorm"
)

// User-facing texts.
const (
	NotFoundText      = "Извините, не удалось найти точный ответ."
	SuggestionPrefix  = "❓ Возможно, вы имели в виду: "
	MissingDetailNote = "\n\n📌 Подробное описание пока не добавлено."
)

// Kind is the branch that produced an answer.
type Kind string

const (
	KindExact      Kind = "exact"
	KindAlias      Kind = "alias"
	KindSemantic   Kind = "semantic"
	KindSuggestion Kind = "suggestion"
	KindNotFound   Kind = "not_found"
)

// Answer is always displayable, whatever the branch.
type Answer struct {
	Text        string
	Source      string
	Kind        Kind
	Key         string
	Score       float64
	Suggestions []string
}

// Resolved reports whether the answer carries a definition.
func (a Answer) Resolved() bool {
	return a.Kind == KindExact || a.Kind == KindAlias || a.Kind == KindSemantic
}

// Config holds the semantic thresholds and the attribution label.
type Config struct {
	ResolveThreshold float64 `yaml:"resolve_threshold" env:"TERMBOT_RESOLVE_THRESHOLD" env-default:"0.5"`
	SuggestThreshold float64 `yaml:"suggest_threshold" env:"TERMBOT_SUGGEST_THRESHOLD" env-default:"0.3"`
	SuggestCount     int     `yaml:"suggest_count" env:"TERMBOT_SUGGEST_COUNT" env-default:"3"`
	Source           string  `yaml:"source" env:"TERMBOT_SOURCE" env-default:"FXPO Squad"`
}

// DefaultConfig mirrors the env-default tags.
func DefaultConfig() Config {
	return Config{
		ResolveThreshold: 0.5,
		SuggestThreshold: 0.3,
		SuggestCount:     3,
		Source:           "FXPO Squad",
	}
}

// Validate checks threshold ordering and ranges.
func (c Config) Validate() error {
	if c.ResolveThreshold < -1 || c.ResolveThreshold > 1 {
		return fmt.Errorf("resolver.resolve_threshold %.3f is outside [-1, 1]", c.ResolveThreshold)
	}
	if c.SuggestThreshold > c.ResolveThreshold {
		return fmt.Errorf("resolver.suggest_threshold %.3f exceeds resolve_threshold %.3f",
			c.SuggestThreshold, c.ResolveThreshold)
	}
	if c.SuggestCount < 0 {
		return fmt.Errorf("resolver.suggest_count must not be negative")
	}
	return nil
}

// SemanticIndex scores a query against a fixed list of keys.
type SemanticIndex interface {
	Keys() []string
	Similarities(ctx context.Context, text string) ([]float64, error)
}

// EventRecorder receives one record per resolved query.
type EventRecorder interface {
	AppendLookup(ctx context.Context, data store.LookupEventData) error
}

// Resolver is safe for concurrent use; all of its state is read-only.
type Resolver struct {
	glossary  *glossary.Glossary
	index     SemanticIndex
	indexKeys []string
	cfg       Config
	events    EventRecorder
	log       *slog.Logger
}

// New creates a Resolver. A nil index disables the semantic fallback and a
// nil events recorder disables lookup logging.
func New(logger *slog.Logger, g *glossary.Glossary, index SemanticIndex, cfg Config, events EventRecorder) *Resolver {
	if events == nil {
		events = store.NopEventRepo{}
	}
	r := &Resolver{
		glossary: g,
		index:    index,
		cfg:      cfg,
		events:   events,
		log:      logger.With("component", "resolver"),
	}
	if index != nil {
		r.indexKeys = index.Keys()
	}
	return r
}

// Source returns the attribution label attached to every answer.
func (r *Resolver) Source() string { return r.cfg.Source }

// Resolve answers query. It never fails: every branch produces text.
func (r *Resolver) Resolve(ctx context.Context, query string, detailed bool) Answer {
	normalized := textnorm.Normalize(query)
	ans := r.resolve(ctx, normalized, detailed)
	ans.Source = r.cfg.Source

	r.log.Debug("query resolved",
		"query", query, "normalized", normalized, "kind", ans.Kind, "key", ans.Key, "score", ans.Score)

	data := store.LookupEventData{
		UserID:     UserFrom(ctx),
		Query:      query,
		Normalized: normalized,
		Kind:       string(ans.Kind),
		Key:        ans.Key,
		Score:      ans.Score,
		Detailed:   detailed,
	}
	if err := r.events.AppendLookup(ctx, data); err != nil {
		r.log.Warn("failed to record lookup event", "error", err)
	}
	return ans
}

func (r *Resolver) resolve(ctx context.Context, normalized string, detailed bool) Answer {
	work := r.matchPhrase(normalized)

	if r.glossary.Has(work) {
		if text, ok := r.pick(work, detailed); ok {
			return Answer{Text: text, Kind: KindExact, Key: work, Score: 1}
		}
	}

	// Keys without any definition are skipped so a later alias owner can answer.
	for _, key := range r.glossary.KeysForAlias(work) {
		if text, ok := r.pick(key, detailed); ok {
			return Answer{Text: text, Kind: KindAlias, Key: key, Score: 1}
		}
	}

	return r.semantic(ctx, work, detailed)
}

// matchPhrase returns the first key, in key order, that occurs in query as
// whole words. Without a match the query is returned unchanged.
func (r *Resolver) matchPhrase(query string) string {
	for _, key := range r.glossary.Keys() {
		if key != "" && containsWords(query, key) {
			return key
		}
	}
	return query
}

// containsWords reports whether phrase occurs in s bounded by the string ends
// or by spaces.
func containsWords(s, phrase string) bool {
	for offset := 0; offset <= len(s)-len(phrase); {
		i := strings.Index(s[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if (start == 0 || s[start-1] == ' ') && (end == len(s) || s[end] == ' ') {
			return true
		}
		offset = start + 1
	}
	return false
}

// pick selects the detailed or short text for key, substituting the short
// definition plus a note when the detailed one is missing.
func (r *Resolver) pick(key string, detailed bool) (string, bool) {
	if detailed {
		if text, ok := r.glossary.Detailed(key); ok {
			return text, true
		}
	} else if text, ok := r.glossary.Definition(key); ok {
		return text, true
	}

	if short, ok := r.glossary.Definition(key); ok {
		return short + MissingDetailNote, true
	}
	return "", false
}

func (r *Resolver) semantic(ctx context.Context, work string, detailed bool) Answer {
	notFound := Answer{Text: NotFoundText, Kind: KindNotFound}
	if r.index == nil || len(r.indexKeys) == 0 {
		return notFound
	}

	scores, err := r.index.Similarities(ctx, work)
	if err != nil {
		r.log.Warn("semantic fallback unavailable", "query", work, "error", err)
		return notFound
	}
	if len(scores) != len(r.indexKeys) {
		r.log.Warn("semantic index returned mismatched scores",
			"scores", len(scores), "keys", len(r.indexKeys))
		return notFound
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	bestKey, bestScore := r.indexKeys[best], scores[best]

	if bestScore >= r.cfg.ResolveThreshold {
		if text, ok := r.pick(bestKey, detailed); ok {
			return Answer{Text: text, Kind: KindSemantic, Key: bestKey, Score: bestScore}
		}
		notFound.Score = bestScore
		return notFound
	}

	suggestions := r.suggest(scores)
	if len(suggestions) == 0 {
		notFound.Score = bestScore
		return notFound
	}
	return Answer{
		Text:        SuggestionPrefix + strings.Join(suggestions, ", "),
		Kind:        KindSuggestion,
		Key:         suggestions[0],
		Score:       bestScore,
		Suggestions: suggestions,
	}
}

// suggest returns the top keys by score, ties in key order, keeping only
// those strictly above the suggestion threshold.
func (r *Resolver) suggest(scores []float64) []string {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		}
		return 0
	})

	var out []string
	for _, i := range order[:min(r.cfg.SuggestCount, len(order))] {
		if scores[i] > r.cfg.SuggestThreshold {
			out = append(out, r.indexKeys[i])
		}
	}
	return out
}
