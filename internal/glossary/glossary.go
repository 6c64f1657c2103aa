// Package glossary builds the read-only term store: short definitions,
// detailed definitions and alias sets keyed by canonical (normalized) term.
package glossary

import (
	"log/slog"
	"slices"

	"github.com/fxposquad/termbot/internal/textnorm"
)

// Glossary is immutable after Build and safe for concurrent reads.
type Glossary struct {
	keys        []string
	definitions map[string]string
	detailed    map[string]string
	aliases     []AliasSet
	aliasIndex  map[string]int
}

// Build normalizes the raw sources into a Glossary.
//
// Keys colliding after normalization overwrite the earlier value while keeping
// the earlier position; every collision is logged. Variants are appended to
// the alias list of a matching raw key before normalization.
func Build(logger *slog.Logger, src Sources, variants LangVariants) *Glossary {
	log := logger.With("component", "glossary")
	g := &Glossary{
		definitions: make(map[string]string, len(src.Terms)),
		detailed:    make(map[string]string, len(src.Detailed)),
		aliasIndex:  make(map[string]int, len(src.Aliases)),
	}

	for _, e := range src.Terms {
		key := textnorm.Normalize(e.Key)
		if _, dup := g.definitions[key]; dup {
			log.Warn("duplicate normalized key, later definition wins",
				"mapping", "terms", "key", key, "raw_key", e.Key)
		} else {
			g.keys = append(g.keys, key)
		}
		g.definitions[key] = e.Value
	}

	for _, e := range src.Detailed {
		key := textnorm.Normalize(e.Key)
		if _, dup := g.detailed[key]; dup {
			log.Warn("duplicate normalized key, later definition wins",
				"mapping", "detailed", "key", key, "raw_key", e.Key)
		}
		g.detailed[key] = e.Value
	}

	for _, e := range src.Aliases {
		raw := aliasList(e.Value)
		if lv, ok := variants[e.Key]; ok {
			raw = append(raw, lv.Translation, lv.Transliteration)
		}

		normalized := make([]string, 0, len(raw))
		for _, a := range raw {
			normalized = append(normalized, textnorm.Normalize(a))
		}

		key := textnorm.Normalize(e.Key)
		if i, dup := g.aliasIndex[key]; dup {
			log.Warn("duplicate normalized key, later aliases win",
				"mapping", "aliases", "key", key, "raw_key", e.Key)
			g.aliases[i].Aliases = normalized
			continue
		}
		g.aliasIndex[key] = len(g.aliases)
		g.aliases = append(g.aliases, AliasSet{Key: key, Aliases: normalized})
	}

	log.Debug("glossary built",
		"terms", len(g.keys), "detailed", len(g.detailed), "alias_sets", len(g.aliases))
	return g
}

// aliasList accepts a plain list of strings or a pair whose second element is
// the list. Non-string members are skipped.
func aliasList(v any) []string {
	switch list := v.(type) {
	case []string:
		return slices.Clone(list)
	case []any:
		if len(list) == 2 {
			if inner, ok := list[1].([]any); ok {
				return stringsOf(inner)
			}
			if inner, ok := list[1].([]string); ok {
				return slices.Clone(inner)
			}
		}
		return stringsOf(list)
	default:
		return nil
	}
}

func stringsOf(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Keys returns the canonical keys in first-seen order. The order is fixed for
// the lifetime of the glossary; the embedding index relies on it.
func (g *Glossary) Keys() []string {
	return slices.Clone(g.keys)
}

// Len returns the number of canonical keys.
func (g *Glossary) Len() int {
	return len(g.keys)
}

// Has reports whether key is a canonical key.
func (g *Glossary) Has(key string) bool {
	_, ok := g.definitions[key]
	return ok
}

// Definition returns the short definition. Empty text counts as absent.
func (g *Glossary) Definition(key string) (string, bool) {
	d, ok := g.definitions[key]
	return d, ok && d != ""
}

// Detailed returns the detailed definition. Empty text counts as absent.
func (g *Glossary) Detailed(key string) (string, bool) {
	d, ok := g.detailed[key]
	return d, ok && d != ""
}

// Aliases returns the alias list of key.
func (g *Glossary) Aliases(key string) []string {
	i, ok := g.aliasIndex[key]
	if !ok {
		return nil
	}
	return slices.Clone(g.aliases[i].Aliases)
}

// AliasSets returns every alias set in storage order.
func (g *Glossary) AliasSets() []AliasSet {
	out := make([]AliasSet, len(g.aliases))
	for i, s := range g.aliases {
		out[i] = AliasSet{Key: s.Key, Aliases: slices.Clone(s.Aliases)}
	}
	return out
}

// KeysForAlias returns every key whose alias set holds alias, in storage order.
func (g *Glossary) KeysForAlias(alias string) []string {
	var keys []string
	for _, s := range g.aliases {
		if slices.Contains(s.Aliases, alias) {
			keys = append(keys, s.Key)
		}
	}
	return keys
}

// KeyForAlias returns the first key, in storage order, whose alias set holds alias.
func (g *Glossary) KeyForAlias(alias string) (string, bool) {
	keys := g.KeysForAlias(alias)
	if len(keys) == 0 {
		return "", false
	}
	return keys[0], true
}

// Canonical maps free text to a canonical key through the key itself or an alias.
func (g *Glossary) Canonical(term string) (string, bool) {
	norm := textnorm.Normalize(term)
	if g.Has(norm) {
		return norm, true
	}
	return g.KeyForAlias(norm)
}
