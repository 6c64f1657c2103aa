package glossary

import (
	"log/slog"

	"github.com/fxposquad/termbot/internal/textnorm"
)

// Topics maps a normalized topic name to a pool of canonical keys.
type Topics struct {
	names []string
	pools map[string][]string
}

// NewTopics resolves every raw topic term to a canonical key through the key
// itself or its aliases. Terms that resolve to nothing are dropped with a
// warning; a topic left without terms is not registered.
func NewTopics(logger *slog.Logger, g *Glossary, raw []TopicEntry) Topics {
	log := logger.With("component", "topics")
	t := Topics{pools: make(map[string][]string, len(raw))}

	for _, entry := range raw {
		name := textnorm.Normalize(entry.Name)
		seen := make(map[string]bool, len(entry.Terms))
		var pool []string
		for _, term := range entry.Terms {
			key, ok := g.Canonical(term)
			if !ok {
				log.Warn("topic term not in glossary, skipped", "topic", entry.Name, "term", term)
				continue
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			pool = append(pool, key)
		}
		if len(pool) == 0 {
			log.Warn("topic has no resolvable terms", "topic", entry.Name)
			continue
		}
		if _, dup := t.pools[name]; !dup {
			t.names = append(t.names, name)
		}
		t.pools[name] = pool
	}
	return t
}

// Pool returns the canonical keys of a topic. The topic name is normalized first.
func (t Topics) Pool(topic string) ([]string, bool) {
	pool, ok := t.pools[textnorm.Normalize(topic)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), pool...), true
}

// Names returns the registered topic names in source order.
func (t Topics) Names() []string {
	return append([]string(nil), t.names...)
}
