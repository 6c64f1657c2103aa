package glossary

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Source file names inside a data directory. Only terms.yaml is required.
const (
	TermsFile    = "terms.yaml"
	DetailedFile = "detailed.yaml"
	AliasesFile  = "aliases.yaml"
	TopicsFile   = "topics.yaml"
	VariantsFile = "variants.yaml"
)

//go:embed data/*.yaml
var embedded embed.FS

// LoadEmbedded loads the dataset compiled into the binary.
func LoadEmbedded() (Sources, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return Sources{}, fmt.Errorf("open embedded data: %w", err)
	}
	return LoadFS(sub)
}

// LoadDir loads the dataset from a directory on disk.
func LoadDir(dir string) (Sources, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads the YAML source files from fsys, preserving document order.
func LoadFS(fsys fs.FS) (Sources, error) {
	var src Sources

	pairs, err := readMapping(fsys, TermsFile, true)
	if err != nil {
		return Sources{}, err
	}
	for _, p := range pairs {
		var v string
		if err := p.value.Decode(&v); err != nil {
			return Sources{}, fmt.Errorf("%s:%d: term %q: %w", TermsFile, p.line, p.key, err)
		}
		src.Terms = append(src.Terms, Entry{Key: p.key, Value: v})
	}

	pairs, err = readMapping(fsys, DetailedFile, false)
	if err != nil {
		return Sources{}, err
	}
	for _, p := range pairs {
		var v string
		if err := p.value.Decode(&v); err != nil {
			return Sources{}, fmt.Errorf("%s:%d: term %q: %w", DetailedFile, p.line, p.key, err)
		}
		src.Detailed = append(src.Detailed, Entry{Key: p.key, Value: v})
	}

	pairs, err = readMapping(fsys, AliasesFile, false)
	if err != nil {
		return Sources{}, err
	}
	for _, p := range pairs {
		var v any
		if err := p.value.Decode(&v); err != nil {
			return Sources{}, fmt.Errorf("%s:%d: term %q: %w", AliasesFile, p.line, p.key, err)
		}
		src.Aliases = append(src.Aliases, AliasEntry{Key: p.key, Value: v})
	}

	pairs, err = readMapping(fsys, TopicsFile, false)
	if err != nil {
		return Sources{}, err
	}
	for _, p := range pairs {
		var terms []string
		if err := p.value.Decode(&terms); err != nil {
			return Sources{}, fmt.Errorf("%s:%d: topic %q: %w", TopicsFile, p.line, p.key, err)
		}
		src.Topics = append(src.Topics, TopicEntry{Name: p.key, Terms: terms})
	}

	pairs, err = readMapping(fsys, VariantsFile, false)
	if err != nil {
		return Sources{}, err
	}
	if len(pairs) > 0 {
		src.Variants = make(LangVariants, len(pairs))
	}
	for _, p := range pairs {
		var pair []string
		if err := p.value.Decode(&pair); err != nil || len(pair) != 2 {
			return Sources{}, fmt.Errorf("%s:%d: variant %q: want [translation, transliteration]", VariantsFile, p.line, p.key)
		}
		src.Variants[p.key] = LangVariant{Translation: pair[0], Transliteration: pair[1]}
	}

	return src, nil
}

type yamlPair struct {
	key   string
	value *yaml.Node
	line  int
}

// readMapping parses a top-level YAML mapping into ordered key/value pairs.
// A missing optional file yields no pairs.
func readMapping(fsys fs.FS, name string, required bool) ([]yamlPair, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: top level must be a mapping", name)
	}

	pairs := make([]yamlPair, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		pairs = append(pairs, yamlPair{key: k.Value, value: v, line: k.Line})
	}
	return pairs, nil
}
