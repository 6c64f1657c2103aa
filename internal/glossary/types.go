package glossary

// Entry is one raw term → text pair, kept in source order.
type Entry struct {
	Key   string
	Value string
}

// AliasEntry is one raw alias record. Value is either a plain list of alias
// strings or a two-element list whose second element is the alias list.
// Any other shape yields no aliases.
type AliasEntry struct {
	Key   string
	Value any
}

// TopicEntry is a named pool of quiz terms.
type TopicEntry struct {
	Name  string
	Terms []string
}

// Sources holds the raw, un-normalized collections the glossary is built from.
type Sources struct {
	Terms    []Entry
	Detailed []Entry
	Aliases  []AliasEntry
	Topics   []TopicEntry
	Variants LangVariants
}

// LangVariant is the localized translation and transliteration of an English key.
type LangVariant struct {
	Translation     string
	Transliteration string
}

// LangVariants maps raw English keys to their variants. It is consulted only
// while building alias sets.
type LangVariants map[string]LangVariant

// DefaultLangVariants is the built-in variant table.
var DefaultLangVariants = LangVariants{
	"smart money":  {Translation: "умные деньги", Transliteration: "смарт мани"},
	"order block":  {Translation: "блок ордеров", Transliteration: "ордер блок"},
	"market shift": {Translation: "смена рынка", Transliteration: "маркет шифт"},
}

// Merge returns a copy of v with extra layered on top.
func (v LangVariants) Merge(extra LangVariants) LangVariants {
	out := make(LangVariants, len(v)+len(extra))
	for k, lv := range v {
		out[k] = lv
	}
	for k, lv := range extra {
		out[k] = lv
	}
	return out
}

// AliasSet is the ordered alias list of one canonical key.
type AliasSet struct {
	Key     string
	Aliases []string
}
