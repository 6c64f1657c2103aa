// Package quiz builds multiple-choice term questions and scores answers
// against a per-user, single-use session.
package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fxposquad/termbot/internal/glossary"
)

// OptionCount is the number of choices in every question.
const OptionCount = 4

// NoDefinition stands in for a term without a short definition.
const NoDefinition = "Нет определения"

// ErrInsufficientTerms means the glossary cannot supply three distinct wrong options.
var ErrInsufficientTerms = errors.New("quiz: glossary needs at least 4 terms")

// Question asks the user to name the term behind Prompt.
type Question struct {
	ID          string
	Topic       string
	Prompt      string
	Options     []string
	Correct     string
	Explanation string
}

// Generator draws questions from a glossary. It is safe for concurrent use.
type Generator struct {
	glossary *glossary.Glossary
	topics   glossary.Topics

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a Generator. A nil rng is seeded from the clock.
func NewGenerator(g *glossary.Glossary, topics glossary.Topics, rng *rand.Rand) *Generator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Generator{glossary: g, topics: topics, rng: rng}
}

// Generate picks a correct term from the topic pool (or from every term when
// the topic is empty or unknown) and three wrong terms from the whole glossary.
func (gen *Generator) Generate(topic string) (*Question, error) {
	keys := gen.glossary.Keys()

	pool := keys
	if topic != "" {
		if p, ok := gen.topics.Pool(topic); ok {
			pool = p
		}
	}
	if len(pool) == 0 {
		return nil, ErrInsufficientTerms
	}

	gen.mu.Lock()
	correct := pool[gen.rng.IntN(len(pool))]

	rest := slices.DeleteFunc(slices.Clone(keys), func(k string) bool { return k == correct })
	if len(rest) < OptionCount-1 {
		gen.mu.Unlock()
		return nil, fmt.Errorf("%w (have %d other terms)", ErrInsufficientTerms, len(rest))
	}

	options := make([]string, 0, OptionCount)
	for _, i := range gen.rng.Perm(len(rest))[:OptionCount-1] {
		options = append(options, rest[i])
	}
	options = append(options, correct)
	gen.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	gen.mu.Unlock()

	definition, ok := gen.glossary.Definition(correct)
	if !ok {
		definition = NoDefinition
	}

	return &Question{
		ID:          uuid.NewString(),
		Topic:       topic,
		Prompt:      definition,
		Options:     options,
		Correct:     correct,
		Explanation: "Определение термина: " + definition,
	}, nil
}

// Topics returns the topic names questions can be drawn from.
func (gen *Generator) Topics() []string {
	return gen.topics.Names()
}
