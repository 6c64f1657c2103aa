package enrich

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write entries for a Russian-language glossary of trading and Smart Money Concepts terms. Readers are beginner traders. Write in Russian, stay factual and avoid investment advice.`

func buildUserMessage(key, definition string, aliases, known []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Term: %s\n", key)
	fmt.Fprintf(&b, "Short definition: %s\n", definition)
	if len(aliases) > 0 {
		fmt.Fprintf(&b, "Also known as: %s\n", strings.Join(aliases, ", "))
	}
	if len(known) > 0 {
		fmt.Fprintf(&b, "Other glossary terms: %s\n", strings.Join(known, ", "))
	}

	b.WriteString(`
Instructions:
1. Expand the short definition into 3-5 sentences.
2. Include one concrete example with numbers.
3. In "related", list up to 3 terms from the glossary list above that a reader should look up next.
4. Set "confidence" to "low" if the term is ambiguous or you are unsure.
5. Plain text only. No Markdown, no HTML.`)

	return b.String()
}
