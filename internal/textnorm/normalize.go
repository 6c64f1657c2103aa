// Package textnorm canonicalizes free text so that glossary keys, aliases and
// user queries are all compared in one space.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// StopPhrases are leading filler phrases removed from queries.
// Longer phrases come before their prefixes so "поясни пожалуйста" wins over "поясни".
var StopPhrases = []string{
	"поясни пожалуйста",
	"что такое",
	"что значит",
	"объясни",
	"поясни",
	"расскажи",
	"дай",
	"почему",
	"как",
	"пожалуйста",
	"please explain",
	"what is",
	"what are",
	"what does",
	"explain",
	"tell me",
	"define",
	"why",
	"how",
	"please",
}

var lower = cases.Lower(language.Und)

// Normalize lower-cases text, turns underscores into spaces, strips everything
// that is neither a word character nor whitespace, removes leading stop phrases
// and collapses whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = lower.String(text)
	text = strings.ReplaceAll(text, "_", " ")
	// Composition runs after stripping: a dropped rune can leave a base letter
	// next to a combining mark that was not adjacent before.
	text = norm.NFC.String(strings.Map(keepWordOrSpace, text))
	text = collapse(text)

	for {
		stripped, ok := stripStopPhrase(text)
		if !ok {
			break
		}
		text = stripped
	}
	return text
}

// keepWordOrSpace drops runes that are neither word characters nor whitespace.
func keepWordOrSpace(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || unicode.IsSpace(r) {
		return r
	}
	return -1
}

// collapse replaces whitespace runs with a single space and trims the ends.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// stripStopPhrase removes one leading stop phrase. A phrase only matches on a
// word boundary, so "however" keeps its "how".
func stripStopPhrase(text string) (string, bool) {
	for _, stop := range StopPhrases {
		if !strings.HasPrefix(text, stop) {
			continue
		}
		rest := text[len(stop):]
		if rest != "" && rest[0] != ' ' {
			continue
		}
		return strings.TrimSpace(rest), true
	}
	return text, false
}
