package enrich

import "github.com/fxposquad/termbot/internal/llm"

// TermDetailSchema is the structured output expected for one term.
var TermDetailSchema = &llm.Schema{
	Name:        "term-detail",
	Description: "Detailed glossary entry for one trading term",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"detail": map[string]any{
				"type":        "string",
				"minLength":   40,
				"description": "3-5 sentence explanation in Russian with a concrete numeric example",
			},
			"confidence": map[string]any{
				"type":        "string",
				"enum":        []any{"high", "medium", "low"},
				"description": "How sure you are that the explanation is accurate",
			},
			"related": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "0-3 related glossary terms",
			},
		},
		"required":             []any{"detail", "confidence", "related"},
		"additionalProperties": false,
	},
}
