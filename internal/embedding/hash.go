package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

// HashEmbedder is an offline embedder that hashes character n-grams of the
// text into a fixed number of buckets. Strings that share spelling land close
// to each other, which is what typo-tolerant term lookup needs.
type HashEmbedder struct {
	dims     int
	ngramMin int
	ngramMax int
}

// NewHashEmbedder builds a HashEmbedder from cfg, falling back to the
// defaults for unset fields.
func NewHashEmbedder(cfg Config) *HashEmbedder {
	def := DefaultConfig()
	h := &HashEmbedder{dims: cfg.Dimensions, ngramMin: cfg.NGramMin, ngramMax: cfg.NGramMax}
	if h.dims <= 0 {
		h.dims = def.Dimensions
	}
	if h.ngramMin <= 0 {
		h.ngramMin = def.NGramMin
	}
	if h.ngramMax < h.ngramMin {
		h.ngramMax = max(def.NGramMax, h.ngramMin)
	}
	return h
}

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashEmbedder) Name() string {
	return fmt.Sprintf("local/hash-%d-%d-%d", h.dims, h.ngramMin, h.ngramMax)
}

func (h *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, h.dims)
	// Word boundaries become part of the grams so prefixes and suffixes weigh in.
	runes := []rune(" " + text + " ")

	for n := h.ngramMin; n <= h.ngramMax; n++ {
		for i := 0; i+n <= len(runes); i++ {
			f := fnv.New64a()
			f.Write([]byte(string(runes[i : i+n])))
			sum := f.Sum64()
			bucket := sum % uint64(h.dims)
			if sum>>63 == 1 {
				vec[bucket]--
			} else {
				vec[bucket]++
			}
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
