package embedding

import (
	"context"
	"fmt"
	"slices"
)

// Index holds one precomputed vector per term key. Position i of every
// result lines up with Keys()[i]. An Index is immutable once built.
type Index struct {
	embedder Embedder
	keys     []string
	vectors  [][]float32
}

// NewIndex embeds every key. It blocks until all vectors are ready, so no
// query can be scored against a partial index.
func NewIndex(ctx context.Context, embedder Embedder, keys []string) (*Index, error) {
	idx := &Index{embedder: embedder, keys: slices.Clone(keys)}
	if len(keys) == 0 {
		return idx, nil
	}

	vecs, err := embedder.Embed(ctx, idx.keys)
	if err != nil {
		return nil, fmt.Errorf("embedding %d term keys with %s: %w", len(keys), embedder.Name(), err)
	}
	if len(vecs) != len(keys) {
		return nil, fmt.Errorf("embedder %s returned %d vectors for %d keys", embedder.Name(), len(vecs), len(keys))
	}
	idx.vectors = vecs
	return idx, nil
}

// Keys returns a copy of the indexed keys in index order.
func (idx *Index) Keys() []string {
	return slices.Clone(idx.keys)
}

// Len reports the number of indexed keys.
func (idx *Index) Len() int { return len(idx.keys) }

// Embedder returns the embedder used for keys and live queries.
func (idx *Index) Embedder() Embedder { return idx.embedder }

// Similarities embeds text and returns its cosine similarity to every key.
func (idx *Index) Similarities(ctx context.Context, text string) ([]float64, error) {
	if len(idx.keys) == 0 {
		return nil, nil
	}

	vecs, err := idx.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder %s returned %d vectors for one query", idx.embedder.Name(), len(vecs))
	}

	scores := make([]float64, len(idx.vectors))
	for i, v := range idx.vectors {
		scores[i] = Cosine(vecs[0], v)
	}
	return scores, nil
}
